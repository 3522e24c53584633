// Package evaluate runs one full evaluation pass: load the named models,
// score each against the evaluation frame, vote per date under both
// weighting rules, and assemble the report table.
package evaluate

import (
	"context"
	"fmt"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
	"yield-compass/internal/ml/registry"
	"yield-compass/internal/ml/report"
	"yield-compass/internal/ml/scoring"
	"yield-compass/internal/ml/voting"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	PlainModels      []string
	SequentialModels []string
	SeqLen           int
}

type Service struct {
	tracer trace.Tracer
	log    zerolog.Logger
	loader *registry.Loader
	scorer *scoring.Service
	cfg    Config
}

func NewService(tracer trace.Tracer, log zerolog.Logger, loader *registry.Loader, scorer *scoring.Service, cfg Config) *Service {
	if cfg.SeqLen <= 0 {
		cfg.SeqLen = 10
	}
	return &Service{tracer: tracer, log: log, loader: loader, scorer: scorer, cfg: cfg}
}

// Run evaluates every configured model over the frame and returns the
// assembled report. The frame must carry engineered features and a known
// label for every date.
func (s *Service) Run(ctx context.Context, frame *dataset.Frame) (*report.Table, error) {
	ctx, span := s.tracer.Start(ctx, "evaluate.run")
	defer span.End()

	if len(s.cfg.PlainModels)+len(s.cfg.SequentialModels) == 0 {
		return nil, fmt.Errorf("no models configured")
	}

	plainModels, err := s.loader.LoadPlain(ctx, s.cfg.PlainModels)
	if err != nil {
		return nil, err
	}
	seqModels, err := s.loader.LoadSequential(ctx, s.cfg.SequentialModels)
	if err != nil {
		return nil, err
	}

	plainResults := make([]domain.ModelResult, 0, len(plainModels))
	for _, m := range plainModels {
		r, err := s.scorer.ScorePlain(ctx, m, frame)
		if err != nil {
			return nil, err
		}
		plainResults = append(plainResults, r)
	}
	seqResults := make([]domain.ModelResult, 0, len(seqModels))
	for _, m := range seqModels {
		r, err := s.scorer.ScoreSequential(ctx, m, frame, s.cfg.SeqLen)
		if err != nil {
			return nil, err
		}
		seqResults = append(seqResults, r)
	}
	s.log.Info().
		Int("plain_sample_size", frame.Len()).
		Int("sequential_sample_size", maxInt(frame.Len()-s.cfg.SeqLen, 0)).
		Msg("scored all models")

	// Sequential models only cover the frame minus its first seq_len dates,
	// so the ensemble is voted on that intersection.
	dates := frame.Dates()
	if len(seqModels) > 0 {
		if frame.Len() <= s.cfg.SeqLen {
			return nil, fmt.Errorf("frame has %d rows, need more than seq_len %d", frame.Len(), s.cfg.SeqLen)
		}
		dates = dates[s.cfg.SeqLen:]
	}

	voters := make([]domain.ModelResult, 0, len(plainResults)+len(seqResults))
	for _, r := range plainResults {
		voters = append(voters, r.Restrict(dates))
	}
	voters = append(voters, seqResults...)

	ensembleRows := make([]domain.EnsembleRow, len(dates))
	hardHits, softHits := 0, 0
	for i, date := range dates {
		ballots := make([]voting.Ballot, len(voters))
		for j, r := range voters {
			row := r.Rows[i]
			ballots[j] = voting.Ballot{Name: r.Name, Pred: row.Pred, Up: row.Up}
		}
		hard, err := voting.Vote(ballots, domain.WeightingHard)
		if err != nil {
			return nil, err
		}
		soft, err := voting.Vote(ballots, domain.WeightingSoft)
		if err != nil {
			return nil, err
		}
		actual := voters[0].Rows[i].Actual
		ensembleRows[i] = domain.EnsembleRow{
			Date:        date,
			HardPred:    hard,
			SoftPred:    soft,
			Actual:      actual,
			HardOutcome: domain.OutcomeOf(hard, actual),
			SoftOutcome: domain.OutcomeOf(soft, actual),
		}
		if hard == actual {
			hardHits++
		}
		if soft == actual {
			softHits++
		}
	}
	s.log.Info().
		Float64("hard_accuracy", float64(hardHits)/float64(len(dates))).
		Float64("soft_accuracy", float64(softHits)/float64(len(dates))).
		Msg("ensemble accuracy")

	return report.Assemble(ensembleRows, plainResults, seqResults)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
