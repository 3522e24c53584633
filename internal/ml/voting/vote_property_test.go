package voting

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"yield-compass/internal/domain"
)

func predSliceGen() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 1))
}

func upSliceGen() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(0, 1))
}

func hardBallots(preds []int) []Ballot {
	out := make([]Ballot, len(preds))
	for i, p := range preds {
		out[i] = Ballot{Name: "m", Pred: p, Up: float64(p)}
	}
	return out
}

func softBallots(ups []float64) []Ballot {
	out := make([]Ballot, len(ups))
	for i, up := range ups {
		out[i] = Ballot{Name: "m", Up: up}
	}
	return out
}

// TestProperty_VoteIsBinary tests that a valid vote always resolves to class 0 or 1.
func TestProperty_VoteIsBinary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Hard vote resolves to 0 or 1", prop.ForAll(
		func(preds []int) bool {
			got, err := Vote(hardBallots(preds), domain.WeightingHard)
			if err != nil {
				return false
			}
			return got == 0 || got == 1
		},
		predSliceGen(),
	))

	properties.Property("Soft vote resolves to 0 or 1", prop.ForAll(
		func(ups []float64) bool {
			got, err := Vote(softBallots(ups), domain.WeightingSoft)
			if err != nil {
				return false
			}
			return got == 0 || got == 1
		},
		upSliceGen(),
	))

	properties.TestingRun(t)
}

// TestProperty_VoteThresholdSemantics tests that either weighting is exactly a
// sum compared against half the ballot count, with ties resolving to 0.
func TestProperty_VoteThresholdSemantics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Hard vote is majority of up predictions", prop.ForAll(
		func(preds []int) bool {
			got, err := Vote(hardBallots(preds), domain.WeightingHard)
			if err != nil {
				return false
			}
			ups := 0
			for _, p := range preds {
				ups += p
			}
			want := 0
			if float64(ups) > float64(len(preds))/2 {
				want = 1
			}
			return got == want
		},
		predSliceGen(),
	))

	properties.Property("Soft vote is probability mass above half the count", prop.ForAll(
		func(ups []float64) bool {
			got, err := Vote(softBallots(ups), domain.WeightingSoft)
			if err != nil {
				return false
			}
			sum := 0.0
			for _, up := range ups {
				sum += up
			}
			want := 0
			if sum > float64(len(ups))/2 {
				want = 1
			}
			return got == want
		},
		upSliceGen(),
	))

	properties.TestingRun(t)
}

// TestProperty_VoteOrderInvariant tests that reversing the ballots never
// changes the outcome.
func TestProperty_VoteOrderInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Soft vote ignores ballot order", prop.ForAll(
		func(ups []float64) bool {
			forward, err := Vote(softBallots(ups), domain.WeightingSoft)
			if err != nil {
				return false
			}
			reversed := make([]float64, len(ups))
			for i, up := range ups {
				reversed[len(ups)-1-i] = up
			}
			backward, err := Vote(softBallots(reversed), domain.WeightingSoft)
			if err != nil {
				return false
			}
			return forward == backward
		},
		upSliceGen(),
	))

	properties.TestingRun(t)
}

// TestProperty_DownBallotNeverLiftsVote tests that appending a down ballot
// never flips a down consensus to up.
func TestProperty_DownBallotNeverLiftsVote(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Appending a hard down ballot never flips 0 to 1", prop.ForAll(
		func(preds []int) bool {
			before, err := Vote(hardBallots(preds), domain.WeightingHard)
			if err != nil {
				return false
			}
			after, err := Vote(hardBallots(append(preds, 0)), domain.WeightingHard)
			if err != nil {
				return false
			}
			if before == 0 {
				return after == 0
			}
			return true
		},
		predSliceGen(),
	))

	properties.TestingRun(t)
}
