// Package scoring runs one model against an aligned evaluation frame,
// producing a dated prediction/probability/correctness row per scoreable
// date plus the aggregate accuracy.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
	"yield-compass/internal/ml/registry"
	"yield-compass/internal/ml/window"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	tracer trace.Tracer
	log    zerolog.Logger
}

func NewService(tracer trace.Tracer, log zerolog.Logger) *Service {
	return &Service{tracer: tracer, log: log}
}

// ScorePlain scores a plain model over every row of the frame. Every date
// must carry both the model's features and a known label.
func (s *Service) ScorePlain(ctx context.Context, model registry.PlainModel, frame *dataset.Frame) (domain.ModelResult, error) {
	_, span := s.tracer.Start(ctx, "scoring.plain")
	defer span.End()

	meta := model.Meta
	s.log.Info().
		Str("model", meta.Name).
		Strs("features", meta.Features).
		Str("label", meta.Label()).
		Msg("scoring plain model")

	result := domain.ModelResult{Name: meta.Name, Rows: make([]domain.ResultRow, 0, frame.Len())}
	actuals := make([]int, 0, frame.Len())
	preds := make([]int, 0, frame.Len())
	rights := 0
	for i := 0; i < frame.Len(); i++ {
		vec, err := frame.Row(i, meta.Features)
		if err != nil {
			return domain.ModelResult{}, fmt.Errorf("model %q: %w", meta.Name, err)
		}
		actual, err := frame.IntLabel(meta.Label(), i)
		if err != nil {
			return domain.ModelResult{}, fmt.Errorf("model %q: %w", meta.Name, err)
		}
		up := clamp01(model.Handle.PredictProb(vec))
		row := buildRow(frame.Date(i), up, actual)
		if row.Outcome == domain.OutcomeRight {
			rights++
		}
		result.Rows = append(result.Rows, row)
		actuals = append(actuals, actual)
		preds = append(preds, row.Pred)
	}
	if len(result.Rows) == 0 {
		return domain.ModelResult{}, fmt.Errorf("model %q: no scoreable rows", meta.Name)
	}
	result.Accuracy = float64(rights) / float64(len(result.Rows))

	s.logDiagnostics(meta, model.Handle, Classification(actuals, preds), result.Accuracy)
	return result, nil
}

// ScoreSequential scores a windowed model over the frame minus its first
// seqLen dates, which have too little history to be scoreable.
func (s *Service) ScoreSequential(ctx context.Context, model registry.SequentialModel, frame *dataset.Frame, seqLen int) (domain.ModelResult, error) {
	_, span := s.tracer.Start(ctx, "scoring.sequential")
	defer span.End()

	meta := model.Meta
	if frame.Len() <= seqLen {
		return domain.ModelResult{}, fmt.Errorf("model %q: frame has %d rows, need more than seq_len %d",
			meta.Name, frame.Len(), seqLen)
	}
	s.log.Info().
		Str("model", meta.Name).
		Strs("features", meta.Features).
		Strs("scaled_feats", meta.ScaledFeats).
		Int("seq_len", seqLen).
		Msg("scoring sequential model")

	scaled, err := window.ApplyScaling(frame, meta.ScaledFeats, meta.Stats)
	if err != nil {
		return domain.ModelResult{}, fmt.Errorf("model %q: %w", meta.Name, err)
	}

	dates := frame.Dates()[seqLen:]
	result := domain.ModelResult{Name: meta.Name, Rows: make([]domain.ResultRow, 0, len(dates))}
	actuals := make([]int, 0, len(dates))
	preds := make([]int, 0, len(dates))
	rights := 0
	for _, date := range dates {
		win, err := window.Slice(scaled, date, meta.Features, seqLen)
		if err != nil {
			return domain.ModelResult{}, fmt.Errorf("model %q: %w", meta.Name, err)
		}
		up, err := model.Handle.PredictWindow(win)
		if err != nil {
			return domain.ModelResult{}, fmt.Errorf("model %q: predict %s: %w",
				meta.Name, date.Format("2006-01-02"), err)
		}
		idx, _ := frame.IndexOf(date)
		actual, err := frame.IntLabel(meta.Label(), idx)
		if err != nil {
			return domain.ModelResult{}, fmt.Errorf("model %q: %w", meta.Name, err)
		}
		row := buildRow(date, clamp01(up), actual)
		if row.Outcome == domain.OutcomeRight {
			rights++
		}
		result.Rows = append(result.Rows, row)
		actuals = append(actuals, actual)
		preds = append(preds, row.Pred)
	}
	result.Accuracy = float64(rights) / float64(len(result.Rows))

	s.logDiagnostics(meta, nil, Classification(actuals, preds), result.Accuracy)
	return result, nil
}

// buildRow derives the per-date record from the up-probability: predicted
// class is 1 only when up > 0.5, the boundary itself resolving to down.
func buildRow(date time.Time, up float64, actual int) domain.ResultRow {
	pred := 0
	if up > 0.5 {
		pred = 1
	}
	return domain.ResultRow{
		Date:    date,
		Pred:    pred,
		Actual:  actual,
		Down:    1 - up,
		Up:      up,
		Outcome: domain.OutcomeOf(pred, actual),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *Service) logDiagnostics(meta domain.ModelMeta, handle domain.Classifier, report Report, accuracy float64) {
	s.log.Info().
		Str("model", meta.Name).
		Float64("accuracy", accuracy).
		Float64("up_precision", report.Up.Precision).
		Float64("up_recall", report.Up.Recall).
		Float64("up_f1", report.Up.F1).
		Float64("down_precision", report.Down.Precision).
		Float64("down_recall", report.Down.Recall).
		Float64("down_f1", report.Down.F1).
		Msg("classification report")

	if !meta.SupportsImportances || handle == nil {
		return
	}
	imp, ok := handle.(domain.FeatureImportancer)
	if !ok {
		s.log.Warn().Str("model", meta.Name).Msg("metadata promises importances but handle has none")
		return
	}
	scores := imp.FeatureImportances()
	if len(scores) != len(meta.Features) {
		s.log.Warn().Str("model", meta.Name).Msg("importance count does not match feature count")
		return
	}
	type ranked struct {
		name  string
		score float64
	}
	list := make([]ranked, len(scores))
	for i := range scores {
		list[i] = ranked{name: meta.Features[i], score: scores[i]}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].score > list[j].score })
	for _, r := range list {
		s.log.Info().Str("model", meta.Name).Str("feature", r.name).Float64("importance", r.score).Msg("feature importance")
	}
}
