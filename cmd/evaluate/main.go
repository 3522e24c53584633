package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"yield-compass/internal/config"
	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
	"yield-compass/internal/features"
	"yield-compass/internal/logging"
	"yield-compass/internal/ml/evaluate"
	"yield-compass/internal/ml/forecast"
	"yield-compass/internal/ml/registry"
	"yield-compass/internal/ml/report"
	"yield-compass/internal/ml/scoring"

	"yield-compass/pkg/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var tracingInit = tracing.InitTracer

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := tracingInit(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var store registry.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to model database")
		}
		defer pool.Close()
		pgStore := registry.NewPostgresStore(pool, tracer)
		if err := pgStore.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run model store migrations")
		}
		store = pgStore
	} else {
		store = registry.NewFSStore(cfg.ModelBasePath)
	}
	loader := registry.NewLoader(store, tracer, log)

	raw, err := readFrame(cfg.SampleFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SampleFile).Msg("failed to read sample file")
	}

	engineered, err := features.Engineer(raw, features.Params{
		SelectFeatures: features.AllFeatures,
		FuturePeriod:   cfg.FuturePeriod,
		LabelType:      cfg.LabelType,
		DropNA:         true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("feature engineering failed")
	}

	scorer := scoring.NewService(tracer, log)
	eval := evaluate.NewService(tracer, log, loader, scorer, evaluate.Config{
		PlainModels:      cfg.PlainModels,
		SequentialModels: cfg.SequentialModels,
		SeqLen:           cfg.SeqLen,
	})
	table, err := eval.Run(ctx, engineered)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}
	if err := writeReport(table, cfg.ReportFile); err != nil {
		log.Fatal().Err(err).Str("file", cfg.ReportFile).Msg("failed to write report")
	}
	logConsensus(log, table, cfg.Weighting)

	plainModels, err := loader.LoadPlain(ctx, cfg.PlainModels)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load plain models for forecast")
	}
	fc := forecast.NewService(tracer, log)
	forecasts, err := fc.PredictLatest(ctx, raw, plainModels, cfg.FuturePeriod, cfg.LabelType)
	if err != nil {
		log.Fatal().Err(err).Msg("forecast failed")
	}
	if err := writeForecasts(forecasts, cfg.ForecastFile); err != nil {
		log.Fatal().Err(err).Str("file", cfg.ForecastFile).Msg("failed to write forecasts")
	}

	log.Info().
		Str("report", cfg.ReportFile).
		Str("forecast", cfg.ForecastFile).
		Msg("evaluation run complete")
}

// logConsensus announces the most recent ensemble prediction under the
// configured weighting rule.
func logConsensus(log zerolog.Logger, table *report.Table, weighting domain.Weighting) {
	column := "hard_pred"
	if weighting == domain.WeightingSoft {
		column = "soft_pred"
	}
	idx := -1
	for j, col := range table.Columns {
		if col.Name == column {
			idx = j
			break
		}
	}
	if idx < 0 || table.DataRowCount() == 0 {
		return
	}
	last := table.DataRowCount() - 1
	direction := "down"
	if table.Rows[last][idx].Value > 0.5 {
		direction = "up"
	}
	log.Info().
		Str("weighting", string(weighting)).
		Str("date", table.Index[last]).
		Str("direction", direction).
		Msg("latest ensemble consensus")
}

func readFrame(path string) (*dataset.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

func writeReport(table *report.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return table.WriteCSV(f)
}

func writeForecasts(forecasts []domain.Forecast, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return forecast.WriteCSV(f, forecasts)
}
