// Package config loads the evaluation run configuration from the
// environment. Enum-valued settings are parsed into closed types here, so an
// invalid weighting or label type is rejected before any model executes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"yield-compass/internal/domain"
)

type Config struct {
	ModelBasePath string
	DatabaseURL   string

	PlainModels      []string
	SequentialModels []string
	SeqLen           int

	Weighting    domain.Weighting
	LabelType    domain.LabelType
	FuturePeriod int

	SampleFile   string
	ReportFile   string
	ForecastFile string

	LogLevel string
	LogFile  string
}

func Load() (*Config, error) {
	cfg := &Config{
		ModelBasePath: envOr("MODEL_BASE_PATH", "models"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SampleFile:    envOr("SAMPLE_FILE", "data/features_latest.csv"),
		ReportFile:    envOr("REPORT_FILE", "out/history_result.csv"),
		ForecastFile:  envOr("FORECAST_FILE", "out/forecast.csv"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
	}

	cfg.PlainModels = splitList(os.Getenv("PLAIN_MODELS"))
	cfg.SequentialModels = splitList(os.Getenv("SEQ_MODELS"))

	cfg.SeqLen = 10
	if v := strings.TrimSpace(os.Getenv("SEQ_LEN")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SEQ_LEN must be a positive integer, got %q", v)
		}
		cfg.SeqLen = n
	}

	cfg.FuturePeriod = 1
	if v := strings.TrimSpace(os.Getenv("FUTURE_PERIOD")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("FUTURE_PERIOD must be a positive integer, got %q", v)
		}
		cfg.FuturePeriod = n
	}

	weighting, err := domain.ParseWeighting(envOr("WEIGHTING", string(domain.WeightingHard)))
	if err != nil {
		return nil, err
	}
	cfg.Weighting = weighting

	labelType, err := domain.ParseLabelType(envOr("LABEL_TYPE", string(domain.LabelFwd)))
	if err != nil {
		return nil, err
	}
	cfg.LabelType = labelType

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
