// Package voting combines per-model predictions into one consensus class.
// Vote is pure so its threshold semantics can be property-tested in
// isolation.
package voting

import (
	"fmt"

	"yield-compass/internal/domain"
)

// Ballot is one model's contribution to the vote: its predicted class and
// its up-probability.
type Ballot struct {
	Name string
	Pred int
	Up   float64
}

// Vote returns the consensus class for one row. Hard weighting sums the
// binary predictions, soft weighting sums the up-probabilities; either sum
// is compared against half the model count, with a sum at or below the
// threshold resolving to 0. That tie rule is asymmetric on purpose: an exact
// split favors down.
func Vote(ballots []Ballot, weighting domain.Weighting) (int, error) {
	if _, err := domain.ParseWeighting(string(weighting)); err != nil {
		return 0, err
	}
	threshold := float64(len(ballots)) / 2
	score := 0.0
	for _, b := range ballots {
		switch weighting {
		case domain.WeightingHard:
			if b.Pred != 0 && b.Pred != 1 {
				return 0, fmt.Errorf("ballot %q has non-binary prediction %d", b.Name, b.Pred)
			}
			score += float64(b.Pred)
		case domain.WeightingSoft:
			score += b.Up
		}
	}
	if score <= threshold {
		return 0, nil
	}
	return 1, nil
}
