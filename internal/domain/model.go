package domain

import "fmt"

// Category tells the evaluator how a model consumes its input: one feature
// row at a time, or a trailing window of rows.
type Category string

const (
	CategoryPlain      Category = "plain"
	CategorySequential Category = "sequential"
)

// ParseCategory converts a stored category string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPlain:
		return CategoryPlain, nil
	case CategorySequential:
		return CategorySequential, nil
	default:
		return "", fmt.Errorf("unknown model category %q", s)
	}
}

// ScaleStats holds precomputed per-feature normalization statistics. The
// stats are fitted by the external trainer; the evaluator only applies them.
type ScaleStats struct {
	Mean map[string]float64 `json:"mean"`
	Std  map[string]float64 `json:"std"`
}

// ModelMeta describes one persisted model: which columns it consumes, which
// column holds its label, and its capability tags. Capability is declared
// here, never inferred from the runtime type of the handle.
type ModelMeta struct {
	Name                string      `json:"name"`
	Category            Category    `json:"category"`
	Features            []string    `json:"features"`
	Labels              []string    `json:"labels"`
	ScaledFeats         []string    `json:"scaled_feats,omitempty"`
	Stats               *ScaleStats `json:"stats,omitempty"`
	SupportsImportances bool        `json:"supports_importances"`
}

// Label returns the single label column name.
func (m ModelMeta) Label() string {
	if len(m.Labels) == 0 {
		return ""
	}
	return m.Labels[0]
}

// Validate enforces the metadata invariants: exactly one label column and
// scaled_feats being a subset of features.
func (m ModelMeta) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model metadata missing name")
	}
	if _, err := ParseCategory(string(m.Category)); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	if len(m.Features) == 0 {
		return fmt.Errorf("model %q declares no features", m.Name)
	}
	if len(m.Labels) != 1 {
		return fmt.Errorf("model %q must declare exactly one label column, got %d", m.Name, len(m.Labels))
	}
	feats := make(map[string]struct{}, len(m.Features))
	for _, f := range m.Features {
		feats[f] = struct{}{}
	}
	for _, f := range m.ScaledFeats {
		if _, ok := feats[f]; !ok {
			return fmt.Errorf("model %q scaled feature %q is not a declared feature", m.Name, f)
		}
		if m.Stats == nil {
			return fmt.Errorf("model %q declares scaled features but carries no stats", m.Name)
		}
		if _, ok := m.Stats.Mean[f]; !ok {
			return fmt.Errorf("model %q has no scaling stats for feature %q", m.Name, f)
		}
	}
	return nil
}

// Classifier is a plain model handle: one feature row in, up-probability out.
type Classifier interface {
	PredictProb(sample []float64) float64
}

// SequenceClassifier is a sequential model handle: a seq_len x features
// window in, up-probability out.
type SequenceClassifier interface {
	PredictWindow(window [][]float64) (float64, error)
}

// FeatureImportancer is the optional capability of tree-ensemble models that
// expose per-feature importances. Callers gate on ModelMeta.SupportsImportances
// before asserting this interface.
type FeatureImportancer interface {
	FeatureImportances() []float64
}
