package domain

import "fmt"

// Weighting selects how the ensemble combines individual model votes.
type Weighting string

const (
	// WeightingHard counts each model's binary prediction equally.
	WeightingHard Weighting = "hard"
	// WeightingSoft sums each model's up-probability as its vote weight.
	WeightingSoft Weighting = "soft"
)

// ParseWeighting validates a weighting mode string into a closed Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(s) {
	case WeightingHard:
		return WeightingHard, nil
	case WeightingSoft:
		return WeightingSoft, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedWeighting, s)
	}
}

// LabelType selects the ground-truth semantics for the up/down label.
type LabelType string

const (
	// LabelFwd compares the close exactly future_period periods ahead to
	// today's close.
	LabelFwd LabelType = "fwd"
	// LabelAvg compares the average close over the next future_period
	// periods to today's close.
	LabelAvg LabelType = "avg"
)

// ParseLabelType validates a label type string into a closed LabelType.
func ParseLabelType(s string) (LabelType, error) {
	switch LabelType(s) {
	case LabelFwd:
		return LabelFwd, nil
	case LabelAvg:
		return LabelAvg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLabelType, s)
	}
}
