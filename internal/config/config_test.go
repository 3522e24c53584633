package config

import (
	"errors"
	"testing"

	"yield-compass/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MODEL_BASE_PATH", "DATABASE_URL", "PLAIN_MODELS", "SEQ_MODELS",
		"SEQ_LEN", "FUTURE_PERIOD", "WEIGHTING", "LABEL_TYPE",
		"SAMPLE_FILE", "REPORT_FILE", "FORECAST_FILE", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelBasePath != "models" {
		t.Fatalf("expected default model base path, got %s", cfg.ModelBasePath)
	}
	if cfg.SeqLen != 10 || cfg.FuturePeriod != 1 {
		t.Fatalf("expected defaults seq_len 10 / future period 1, got %d/%d", cfg.SeqLen, cfg.FuturePeriod)
	}
	if cfg.Weighting != domain.WeightingHard || cfg.LabelType != domain.LabelFwd {
		t.Fatalf("unexpected enum defaults: %s/%s", cfg.Weighting, cfg.LabelType)
	}
	if len(cfg.PlainModels) != 0 || len(cfg.SequentialModels) != 0 {
		t.Fatalf("expected empty model lists, got %v/%v", cfg.PlainModels, cfg.SequentialModels)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PLAIN_MODELS", "lr-1d, xgb-1d ,")
	t.Setenv("SEQ_MODELS", "seq-10d")
	t.Setenv("SEQ_LEN", "15")
	t.Setenv("FUTURE_PERIOD", "5")
	t.Setenv("WEIGHTING", "soft")
	t.Setenv("LABEL_TYPE", "avg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("unexpected database url: %s", cfg.DatabaseURL)
	}
	if len(cfg.PlainModels) != 2 || cfg.PlainModels[0] != "lr-1d" || cfg.PlainModels[1] != "xgb-1d" {
		t.Fatalf("unexpected plain models: %v", cfg.PlainModels)
	}
	if len(cfg.SequentialModels) != 1 || cfg.SequentialModels[0] != "seq-10d" {
		t.Fatalf("unexpected sequential models: %v", cfg.SequentialModels)
	}
	if cfg.SeqLen != 15 || cfg.FuturePeriod != 5 {
		t.Fatalf("unexpected numeric settings: %d/%d", cfg.SeqLen, cfg.FuturePeriod)
	}
	if cfg.Weighting != domain.WeightingSoft || cfg.LabelType != domain.LabelAvg {
		t.Fatalf("unexpected enums: %s/%s", cfg.Weighting, cfg.LabelType)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEQ_LEN", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric SEQ_LEN")
	}

	clearEnv(t)
	t.Setenv("FUTURE_PERIOD", "-3")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative FUTURE_PERIOD")
	}

	clearEnv(t)
	t.Setenv("WEIGHTING", "median")
	if _, err := Load(); !errors.Is(err, domain.ErrUnsupportedWeighting) {
		t.Fatalf("expected ErrUnsupportedWeighting, got %v", err)
	}

	clearEnv(t)
	t.Setenv("LABEL_TYPE", "delta")
	if _, err := Load(); !errors.Is(err, domain.ErrUnsupportedLabelType) {
		t.Fatalf("expected ErrUnsupportedLabelType, got %v", err)
	}
}
