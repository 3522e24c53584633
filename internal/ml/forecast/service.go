// Package forecast applies already-fitted plain models to the most recent
// observation to produce an as-of-today directional prediction. Sequential
// models are out of scope here.
package forecast

import (
	"context"
	"fmt"
	"math"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
	"yield-compass/internal/features"
	"yield-compass/internal/ml/registry"

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

// PredictLatest engineers features for the raw history, takes the single
// most recent feature row, and asks every plain model for its direction.
func (s *Service) PredictLatest(
	ctx context.Context,
	raw *dataset.Frame,
	models []registry.PlainModel,
	futurePeriod int,
	labelType domain.LabelType,
) ([]domain.Forecast, error) {
	_, span := s.tracer.Start(ctx, "forecast.predict-latest")
	defer span.End()

	if _, err := domain.ParseLabelType(string(labelType)); err != nil {
		return nil, err
	}
	engineered, err := features.Engineer(raw, features.Params{
		SelectFeatures: features.AllFeatures,
		FuturePeriod:   futurePeriod,
		LabelType:      labelType,
		DropNA:         false,
	})
	if err != nil {
		return nil, err
	}
	if engineered.Len() == 0 {
		return nil, fmt.Errorf("no observations to predict from")
	}
	last := engineered.Len() - 1
	today := engineered.Date(last)

	out := make([]domain.Forecast, 0, len(models))
	for _, m := range models {
		vec, err := engineered.Row(last, m.Meta.Features)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Meta.Name, err)
		}
		for _, v := range vec {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("model %q: latest row is missing a feature value", m.Meta.Name)
			}
		}
		up := clamp01(m.Handle.PredictProb(vec))
		pred := 0
		if up > 0.5 {
			pred = 1
		}
		statement, err := statement(m.Meta.Name, today.Format("2006-01-02"), pred, futurePeriod, labelType)
		if err != nil {
			return nil, err
		}
		s.log.Info().
			Str("model", m.Meta.Name).
			Int("pred", pred).
			Float64("down_prob", 1-up).
			Float64("up_prob", up).
			Msg(statement)
		out = append(out, domain.Forecast{
			Model:     m.Meta.Name,
			Date:      today,
			Pred:      pred,
			Down:      1 - up,
			Up:        up,
			Statement: statement,
		})
	}
	return out, nil
}

func statement(model, today string, pred, futurePeriod int, labelType domain.LabelType) (string, error) {
	direction := "fall"
	if pred == 1 {
		direction = "rise"
	}
	switch labelType {
	case domain.LabelFwd:
		return fmt.Sprintf("%s - %s - yield will %s %d period(s) from now", model, today, direction, futurePeriod), nil
	case domain.LabelAvg:
		return fmt.Sprintf("%s - %s - average yield over the next %d period(s) will %s versus today", model, today, futurePeriod, direction), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLabelType, labelType)
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
