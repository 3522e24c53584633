// Package features derives the engineered model inputs and the up/down
// label from a raw yield observation frame. The evaluator core trusts the
// output schema: date index + selected feature columns + one label column.
package features

import (
	"fmt"
	"math"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
)

// LabelColumn is the name of the generated ground-truth column.
const LabelColumn = "target"

// AllFeatures lists every engineered column the engine can produce, in the
// canonical column order.
var AllFeatures = []string{
	"close", "amount", "t10y", "fr007_5y",
	"pct_chg", "avg_chg_5", "avg_chg_10",
	"fr007_chg_5", "usdcny_chg_5",
	"spread_t1y", "spread_t10y", "spread_fr007", "spread_fr007_5y", "spread_usdcny",
}

// Params configures one engineering pass.
type Params struct {
	SelectFeatures []string
	FuturePeriod   int
	LabelType      domain.LabelType
	DropNA         bool
}

// Engineer builds the evaluation frame: the selected features plus the
// label column. With DropNA set, rows missing any selected feature or the
// label are removed; with it unset, rows are kept so the most recent
// (unlabeled) observations remain predictable.
func Engineer(raw *dataset.Frame, p Params) (*dataset.Frame, error) {
	if p.FuturePeriod <= 0 {
		return nil, fmt.Errorf("future period must be positive, got %d", p.FuturePeriod)
	}
	if _, err := domain.ParseLabelType(string(p.LabelType)); err != nil {
		return nil, err
	}
	if len(p.SelectFeatures) == 0 {
		p.SelectFeatures = AllFeatures
	}

	out, err := dataset.New(raw.Dates())
	if err != nil {
		return nil, err
	}
	for _, name := range p.SelectFeatures {
		col, err := buildFeature(raw, name)
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(name, col); err != nil {
			return nil, err
		}
	}

	label, err := buildLabel(raw, p.FuturePeriod, p.LabelType)
	if err != nil {
		return nil, err
	}
	if err := out.AddColumn(LabelColumn, label); err != nil {
		return nil, err
	}

	if p.DropNA {
		return out.DropNaN()
	}
	return out, nil
}

func buildFeature(raw *dataset.Frame, name string) ([]float64, error) {
	switch name {
	case "close", "amount", "t1y", "t10y", "fr007", "fr007_5y", "usdcny":
		return rawColumn(raw, name)
	case "pct_chg":
		return pctChange(raw, "close", 1)
	case "avg_chg_5":
		return avgChange(raw, "close", 5)
	case "avg_chg_10":
		return avgChange(raw, "close", 10)
	case "fr007_chg_5":
		return pctChange(raw, "fr007", 5)
	case "usdcny_chg_5":
		return pctChange(raw, "usdcny", 5)
	case "spread_t1y":
		return spread(raw, "close", "t1y")
	case "spread_t10y":
		return spread(raw, "close", "t10y")
	case "spread_fr007":
		return spread(raw, "close", "fr007")
	case "spread_fr007_5y":
		return spread(raw, "close", "fr007_5y")
	case "spread_usdcny":
		return spread(raw, "close", "usdcny")
	default:
		return nil, fmt.Errorf("unknown feature %q", name)
	}
}

func rawColumn(raw *dataset.Frame, name string) ([]float64, error) {
	col, ok := raw.Column(name)
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", name)
	}
	return append([]float64(nil), col...), nil
}

// pctChange is the relative change of a column versus lag periods ago.
func pctChange(raw *dataset.Frame, name string, lag int) ([]float64, error) {
	col, ok := raw.Column(name)
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", name)
	}
	out := make([]float64, len(col))
	for i := range col {
		if i < lag || col[i-lag] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = col[i]/col[i-lag] - 1
	}
	return out, nil
}

// avgChange is the relative change of a column versus its own trailing mean.
func avgChange(raw *dataset.Frame, name string, window int) ([]float64, error) {
	col, ok := raw.Column(name)
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", name)
	}
	out := make([]float64, len(col))
	for i := range col {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += col[j]
		}
		mean := sum / float64(window)
		if mean == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = col[i]/mean - 1
	}
	return out, nil
}

func spread(raw *dataset.Frame, a, b string) ([]float64, error) {
	colA, ok := raw.Column(a)
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", a)
	}
	colB, ok := raw.Column(b)
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", b)
	}
	out := make([]float64, len(colA))
	for i := range colA {
		out[i] = colA[i] - colB[i]
	}
	return out, nil
}

// buildLabel marks each date 1 when the future close (single period ahead
// for fwd, mean of the next periods for avg) exceeds the current close.
// Dates without enough future history get NaN.
func buildLabel(raw *dataset.Frame, futurePeriod int, labelType domain.LabelType) ([]float64, error) {
	closes, ok := raw.Column("close")
	if !ok {
		return nil, fmt.Errorf("raw frame has no column %q", "close")
	}
	out := make([]float64, len(closes))
	for i := range closes {
		if i+futurePeriod >= len(closes) {
			out[i] = math.NaN()
			continue
		}
		var future float64
		switch labelType {
		case domain.LabelFwd:
			future = closes[i+futurePeriod]
		case domain.LabelAvg:
			sum := 0.0
			for j := i + 1; j <= i+futurePeriod; j++ {
				sum += closes[j]
			}
			future = sum / float64(futurePeriod)
		default:
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLabelType, labelType)
		}
		if future > closes[i] {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return out, nil
}
