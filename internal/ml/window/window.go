// Package window prepares the inputs of sequential models: applying
// precomputed scaling stats to a private frame copy and cutting fixed-length
// windows of rows per prediction date.
package window

import (
	"fmt"
	"time"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
)

// ApplyScaling returns a copy of the frame with the listed features
// normalized using the supplied stats. The stats were fitted by the trainer;
// this only applies them.
func ApplyScaling(f *dataset.Frame, scaledFeats []string, stats *domain.ScaleStats) (*dataset.Frame, error) {
	out := f.Copy()
	if len(scaledFeats) == 0 {
		return out, nil
	}
	if stats == nil {
		return nil, fmt.Errorf("scaled features declared but no stats supplied")
	}
	for _, name := range scaledFeats {
		col, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("frame has no column %q to scale", name)
		}
		mean, ok := stats.Mean[name]
		if !ok {
			return nil, fmt.Errorf("no scaling mean for feature %q", name)
		}
		std := stats.Std[name]
		if std == 0 {
			std = 1
		}
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - mean) / std
		}
		if err := out.SetColumn(name, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Slice returns the seqLen x len(features) window ending at (and including)
// the target date's row. It fails with ErrInsufficientWindow when fewer than
// seqLen rows exist before the target; callers prevent that by dropping the
// first seqLen dates of any evaluation range.
func Slice(f *dataset.Frame, target time.Time, features []string, seqLen int) ([][]float64, error) {
	if seqLen <= 0 {
		return nil, fmt.Errorf("seq_len must be positive, got %d", seqLen)
	}
	idx, ok := f.IndexOf(target)
	if !ok {
		return nil, fmt.Errorf("date %s not in frame", target.UTC().Format("2006-01-02"))
	}
	if idx < seqLen {
		return nil, fmt.Errorf("%w: %d rows before %s, need %d",
			domain.ErrInsufficientWindow, idx, target.UTC().Format("2006-01-02"), seqLen)
	}
	out := make([][]float64, 0, seqLen)
	for i := idx - seqLen + 1; i <= idx; i++ {
		row, err := f.Row(i, features)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
