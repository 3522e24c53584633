// Package xgboost wraps a gradient-boosted tree classifier used as a plain
// model: one feature row in, up-probability out. This is the one model kind
// that exposes per-feature importances.
package xgboost

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type TrainOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

type artifact struct {
	FeatureNames []string  `json:"feature_names"`
	Importances  []float64 `json:"importances"`
	ModelText    string    `json:"model_text"`
}

type Model struct {
	featureNames []string
	importances  []float64
	boost        *boo.MultiClass
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       40,
		LearningRate: 0.08,
		MaxDepth:     4,
	}
}

// Train fits a boosted classifier on 0/1 labels. Feature importances are
// computed once here by mean-ablation over the training sample and stored in
// the artifact, so evaluation never needs to re-touch training data.
func Train(samples [][]float64, labels []float64, featureNames []string, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	if len(samples[0]) == 0 {
		return nil, errors.New("empty feature vectors")
	}
	classSet := make(map[int]struct{}, 2)
	intLabels := make([]int, len(labels))
	for i, v := range labels {
		label := 0
		if v >= 0.5 {
			label = 1
		}
		intLabels[i] = label
		classSet[label] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, errors.New("training requires both classes")
	}
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultTrainOptions().Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}
	if len(featureNames) != len(samples[0]) {
		return nil, errors.New("feature name count does not match feature vectors")
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	data := &utils.DataBunch{
		Data:   samples,
		Labels: intLabels,
		Keys:   featureNames,
	}
	boost := boo.NewMultiClass(data, o)
	if boost == nil {
		return nil, errors.New("failed to train boosted model")
	}
	m := &Model{
		featureNames: append([]string(nil), featureNames...),
		boost:        boost,
	}
	m.importances = ablationImportances(m, samples)
	return m, nil
}

// PredictProb returns the probability of the up class for one feature row.
func (m *Model) PredictProb(sample []float64) float64 {
	if m == nil || m.boost == nil {
		return 0.5
	}
	probs := m.boost.PredictSingle(sample)
	labels := m.boost.ClassLabels()
	for i := range labels {
		if labels[i] == 1 {
			return clamp01(probs[i])
		}
	}
	if len(probs) == 0 {
		return 0.5
	}
	return clamp01(probs[len(probs)-1])
}

func (m *Model) PredictBatch(samples [][]float64) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = m.PredictProb(samples[i])
	}
	return out
}

// FeatureImportances returns per-feature importances aligned with the
// training feature order.
func (m *Model) FeatureImportances() []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.importances...)
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.featureNames...)
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("nil model")
	}
	var buf bytes.Buffer
	if err := boo.JSONMultiClass(m.boost, "softmax", &buf); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		Importances:  m.importances,
		ModelText:    buf.String(),
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(bytes.NewReader([]byte(a.ModelText)))
	boost, err := boo.UnJSONMultiClass(reader)
	if err != nil {
		return nil, err
	}
	return &Model{
		featureNames: append([]string(nil), a.FeatureNames...),
		importances:  append([]float64(nil), a.Importances...),
		boost:        boost,
	}, nil
}

// ablationImportances measures how much the predicted probability moves when
// one feature is replaced by its sample mean, averaged over the sample.
func ablationImportances(m *Model, samples [][]float64) []float64 {
	featCount := len(samples[0])
	means := make([]float64, featCount)
	for j := 0; j < featCount; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= float64(len(samples))
	}
	out := make([]float64, featCount)
	probe := make([]float64, featCount)
	for i := range samples {
		base := m.PredictProb(samples[i])
		for j := 0; j < featCount; j++ {
			copy(probe, samples[i])
			probe[j] = means[j]
			out[j] += math.Abs(m.PredictProb(probe) - base)
		}
	}
	for j := range out {
		out[j] /= float64(len(samples))
	}
	return out
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
