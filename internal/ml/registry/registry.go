// Package registry resolves model names to their metadata and loaded
// handles. Metadata lookups signal absence with a nil record rather than an
// error, so callers can tell "unknown model" apart from a corrupt or
// unreadable artifact.
package registry

import (
	"context"
	"fmt"

	"yield-compass/internal/domain"
	"yield-compass/internal/ml/models/logreg"
	"yield-compass/internal/ml/models/seqnet"
	"yield-compass/internal/ml/models/xgboost"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Artifact formats understood by the loader.
const (
	FormatLogReg  = "json/logreg-v1"
	FormatXGBoost = "json/boo-xgboost-v1"
	FormatSeqNet  = "json/seqnet-v1"
)

// Record is one persisted model entry: its metadata plus the format tag
// needed to decode the artifact blob.
type Record struct {
	Meta           domain.ModelMeta `json:"meta"`
	ArtifactFormat string           `json:"artifact_format"`
}

// Store is the persistence collaborator. GetRecord returns (nil, nil) for an
// unknown name; GetArtifact fails for anything it cannot materialize.
type Store interface {
	GetRecord(ctx context.Context, name string) (*Record, error)
	GetArtifact(ctx context.Context, name string) ([]byte, error)
}

// PlainModel pairs metadata with a row-wise classifier handle.
type PlainModel struct {
	Meta   domain.ModelMeta
	Handle domain.Classifier
}

// SequentialModel pairs metadata with a windowed classifier handle.
type SequentialModel struct {
	Meta   domain.ModelMeta
	Handle domain.SequenceClassifier
}

type Loader struct {
	store  Store
	tracer trace.Tracer
	log    zerolog.Logger
}

func NewLoader(store Store, tracer trace.Tracer, log zerolog.Logger) *Loader {
	return &Loader{store: store, tracer: tracer, log: log}
}

// LoadPlain resolves every named plain model or fails on the first miss.
func (l *Loader) LoadPlain(ctx context.Context, names []string) ([]PlainModel, error) {
	_, span := l.tracer.Start(ctx, "model-registry.load-plain")
	defer span.End()

	out := make([]PlainModel, 0, len(names))
	for _, name := range names {
		rec, blob, err := l.fetch(ctx, name, domain.CategoryPlain)
		if err != nil {
			return nil, err
		}
		handle, err := decodePlain(rec.ArtifactFormat, blob)
		if err != nil {
			return nil, fmt.Errorf("decode model %q: %w", name, err)
		}
		l.log.Debug().Str("model", name).Str("format", rec.ArtifactFormat).Msg("loaded plain model")
		out = append(out, PlainModel{Meta: rec.Meta, Handle: handle})
	}
	return out, nil
}

// LoadSequential resolves every named sequential model or fails on the first
// miss.
func (l *Loader) LoadSequential(ctx context.Context, names []string) ([]SequentialModel, error) {
	_, span := l.tracer.Start(ctx, "model-registry.load-sequential")
	defer span.End()

	out := make([]SequentialModel, 0, len(names))
	for _, name := range names {
		rec, blob, err := l.fetch(ctx, name, domain.CategorySequential)
		if err != nil {
			return nil, err
		}
		handle, err := decodeSequential(rec.ArtifactFormat, blob)
		if err != nil {
			return nil, fmt.Errorf("decode model %q: %w", name, err)
		}
		l.log.Debug().Str("model", name).Str("format", rec.ArtifactFormat).Msg("loaded sequential model")
		out = append(out, SequentialModel{Meta: rec.Meta, Handle: handle})
	}
	return out, nil
}

func (l *Loader) fetch(ctx context.Context, name string, want domain.Category) (*Record, []byte, error) {
	rec, err := l.store.GetRecord(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup metadata for %q: %w", name, err)
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: no metadata for %q", domain.ErrModelNotFound, name)
	}
	if err := rec.Meta.Validate(); err != nil {
		return nil, nil, err
	}
	if rec.Meta.Category != want {
		return nil, nil, fmt.Errorf("model %q is %s, expected %s", name, rec.Meta.Category, want)
	}
	blob, err := l.store.GetArtifact(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("load artifact for %q: %w", name, err)
	}
	return rec, blob, nil
}

func decodePlain(format string, blob []byte) (domain.Classifier, error) {
	switch format {
	case FormatLogReg:
		return logreg.UnmarshalBinary(blob)
	case FormatXGBoost:
		return xgboost.UnmarshalBinary(blob)
	default:
		return nil, fmt.Errorf("unknown plain artifact format %q", format)
	}
}

func decodeSequential(format string, blob []byte) (domain.SequenceClassifier, error) {
	switch format {
	case FormatSeqNet:
		return seqnet.UnmarshalBinary(blob)
	default:
		return nil, fmt.Errorf("unknown sequential artifact format %q", format)
	}
}
