package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"yield-compass/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore backs the registry with a model_artifacts table, for
// deployments that keep trained models in the database instead of on disk.
type PostgresStore struct {
	pool   pool
	tracer trace.Tracer
}

func NewPostgresStore(pool pool, tracer trace.Tracer) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: tracer}
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "model-store.migrate")
	defer span.End()

	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS model_artifacts (
    name                 TEXT PRIMARY KEY,
    category             TEXT NOT NULL,
    features_json        TEXT NOT NULL,
    labels_json          TEXT NOT NULL,
    scaled_feats_json    TEXT NOT NULL DEFAULT '[]',
    stats_json           TEXT,
    supports_importances BOOLEAN NOT NULL DEFAULT FALSE,
    artifact_format      TEXT NOT NULL,
    artifact_blob        BYTEA NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	return err
}

func (s *PostgresStore) GetRecord(ctx context.Context, name string) (*Record, error) {
	_, span := s.tracer.Start(ctx, "model-store.get-record")
	defer span.End()

	var (
		rec         Record
		category    string
		features    string
		labels      string
		scaledFeats string
		stats       *string
	)
	err := s.pool.QueryRow(ctx, `
SELECT name, category, features_json, labels_json, scaled_feats_json,
       stats_json, supports_importances, artifact_format
FROM model_artifacts
WHERE name = $1`, name).Scan(
		&rec.Meta.Name,
		&category,
		&features,
		&labels,
		&scaledFeats,
		&stats,
		&rec.Meta.SupportsImportances,
		&rec.ArtifactFormat,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Meta.Category = domain.Category(category)
	if err := json.Unmarshal([]byte(features), &rec.Meta.Features); err != nil {
		return nil, fmt.Errorf("model %q: bad features_json: %w", name, err)
	}
	if err := json.Unmarshal([]byte(labels), &rec.Meta.Labels); err != nil {
		return nil, fmt.Errorf("model %q: bad labels_json: %w", name, err)
	}
	if err := json.Unmarshal([]byte(scaledFeats), &rec.Meta.ScaledFeats); err != nil {
		return nil, fmt.Errorf("model %q: bad scaled_feats_json: %w", name, err)
	}
	if stats != nil && *stats != "" {
		rec.Meta.Stats = &domain.ScaleStats{}
		if err := json.Unmarshal([]byte(*stats), rec.Meta.Stats); err != nil {
			return nil, fmt.Errorf("model %q: bad stats_json: %w", name, err)
		}
	}
	return &rec, nil
}

func (s *PostgresStore) GetArtifact(ctx context.Context, name string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "model-store.get-artifact")
	defer span.End()

	var blob []byte
	err := s.pool.QueryRow(ctx, `SELECT artifact_blob FROM model_artifacts WHERE name = $1`, name).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no artifact for %q", domain.ErrModelNotFound, name)
		}
		return nil, err
	}
	return blob, nil
}

// Save inserts or replaces a model entry; used by the external trainer.
func (s *PostgresStore) Save(ctx context.Context, rec Record, blob []byte) error {
	_, span := s.tracer.Start(ctx, "model-store.save")
	defer span.End()

	if err := rec.Meta.Validate(); err != nil {
		return err
	}
	features, _ := json.Marshal(rec.Meta.Features)
	labels, _ := json.Marshal(rec.Meta.Labels)
	scaledFeats, _ := json.Marshal(fallbackSlice(rec.Meta.ScaledFeats))
	var stats any
	if rec.Meta.Stats != nil {
		b, err := json.Marshal(rec.Meta.Stats)
		if err != nil {
			return err
		}
		stats = string(b)
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO model_artifacts (
    name, category, features_json, labels_json, scaled_feats_json,
    stats_json, supports_importances, artifact_format, artifact_blob
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (name) DO UPDATE SET
    category = EXCLUDED.category,
    features_json = EXCLUDED.features_json,
    labels_json = EXCLUDED.labels_json,
    scaled_feats_json = EXCLUDED.scaled_feats_json,
    stats_json = EXCLUDED.stats_json,
    supports_importances = EXCLUDED.supports_importances,
    artifact_format = EXCLUDED.artifact_format,
    artifact_blob = EXCLUDED.artifact_blob`,
		rec.Meta.Name,
		string(rec.Meta.Category),
		string(features),
		string(labels),
		string(scaledFeats),
		stats,
		rec.Meta.SupportsImportances,
		rec.ArtifactFormat,
		blob,
	)
	return err
}

func fallbackSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
