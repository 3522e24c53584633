package domain

import "errors"

var (
	// ErrUnsupportedWeighting rejects any vote weighting other than hard/soft.
	ErrUnsupportedWeighting = errors.New("unsupported vote weighting")

	// ErrUnsupportedLabelType rejects any label semantics other than fwd/avg.
	ErrUnsupportedLabelType = errors.New("unsupported label type")

	// ErrInsufficientWindow means a sequential prediction was requested for a
	// date with fewer than seq_len rows of history. The caller is expected to
	// prevent this by trimming the first seq_len dates of the evaluation set.
	ErrInsufficientWindow = errors.New("not enough history for sequence window")

	// ErrModelNotFound means a named model or its metadata could not be
	// located by the registry.
	ErrModelNotFound = errors.New("model not found")
)
