package domain

import "time"

// Outcome flags whether a prediction matched the actual movement.
type Outcome string

const (
	OutcomeRight Outcome = "Right"
	OutcomeWrong Outcome = "Wrong"
)

// OutcomeOf compares a predicted class against the actual class.
func OutcomeOf(pred, actual int) Outcome {
	if pred == actual {
		return OutcomeRight
	}
	return OutcomeWrong
}

// ResultRow is one dated prediction from one model.
type ResultRow struct {
	Date    time.Time
	Pred    int
	Actual  int
	Down    float64
	Up      float64
	Outcome Outcome
}

// ModelResult is the scored history of a single model.
type ModelResult struct {
	Name     string
	Rows     []ResultRow
	Accuracy float64
}

// Restrict returns a copy of the result containing only the rows whose dates
// appear in keep, preserving row order. Rows compare dates by UTC day.
func (r ModelResult) Restrict(keep []time.Time) ModelResult {
	set := make(map[int64]struct{}, len(keep))
	for _, d := range keep {
		set[d.UTC().Unix()] = struct{}{}
	}
	out := ModelResult{Name: r.Name, Accuracy: r.Accuracy}
	out.Rows = make([]ResultRow, 0, len(keep))
	for _, row := range r.Rows {
		if _, ok := set[row.Date.UTC().Unix()]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// EnsembleRow is the consensus prediction for one date, alongside the actual
// movement and the correctness of each vote type.
type EnsembleRow struct {
	Date        time.Time
	HardPred    int
	SoftPred    int
	Actual      int
	HardOutcome Outcome
	SoftOutcome Outcome
}

// Forecast is an as-of-today prediction from one plain model.
type Forecast struct {
	Model     string
	Date      time.Time
	Pred      int
	Down      float64
	Up        float64
	Statement string
}
