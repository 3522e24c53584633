// Package seqnet is the sequential model: a single-hidden-layer network over
// a flattened seq_len x features window of scaled observations, ending at the
// prediction date. The forward pass runs on gonum dense matrices.
package seqnet

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

type TrainOptions struct {
	HiddenUnits  int
	LearningRate float64
	Epochs       int
	Seed         int64
}

type Artifact struct {
	FeatureNames []string  `json:"feature_names"`
	SeqLen       int       `json:"seq_len"`
	HiddenUnits  int       `json:"hidden_units"`
	W1           []float64 `json:"w1"` // hidden x input, row-major
	B1           []float64 `json:"b1"`
	W2           []float64 `json:"w2"`
	B2           float64   `json:"b2"`
}

type Model struct {
	artifact Artifact
	w1       *mat.Dense
	b1       *mat.VecDense
	w2       *mat.VecDense
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		HiddenUnits:  16,
		LearningRate: 0.05,
		Epochs:       400,
		Seed:         1,
	}
}

// Train fits the network on flattened windows with full-batch gradient
// descent. windows[i] must be seqLen rows of len(featureNames) features.
func Train(windows [][][]float64, labels []float64, featureNames []string, seqLen int, opts TrainOptions) (*Model, error) {
	if len(windows) == 0 || len(windows) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	if seqLen <= 0 || len(featureNames) == 0 {
		return nil, errors.New("invalid window shape")
	}
	if opts.HiddenUnits <= 0 {
		opts.HiddenUnits = DefaultTrainOptions().HiddenUnits
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainOptions().Epochs
	}

	inDim := seqLen * len(featureNames)
	flat := make([][]float64, len(windows))
	for i, w := range windows {
		v, err := flatten(w, seqLen, len(featureNames))
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		flat[i] = v
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	scale := 1 / math.Sqrt(float64(inDim))
	w1 := mat.NewDense(opts.HiddenUnits, inDim, nil)
	for r := 0; r < opts.HiddenUnits; r++ {
		for c := 0; c < inDim; c++ {
			w1.Set(r, c, rng.NormFloat64()*scale)
		}
	}
	b1 := mat.NewVecDense(opts.HiddenUnits, nil)
	w2 := mat.NewVecDense(opts.HiddenUnits, nil)
	for r := 0; r < opts.HiddenUnits; r++ {
		w2.SetVec(r, rng.NormFloat64()/math.Sqrt(float64(opts.HiddenUnits)))
	}
	b2 := 0.0

	h := mat.NewVecDense(opts.HiddenUnits, nil)
	gradW1 := mat.NewDense(opts.HiddenUnits, inDim, nil)
	gradB1 := mat.NewVecDense(opts.HiddenUnits, nil)
	gradW2 := mat.NewVecDense(opts.HiddenUnits, nil)

	n := float64(len(flat))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		gradW1.Zero()
		gradB1.Zero()
		gradW2.Zero()
		gradB2 := 0.0
		for i := range flat {
			x := mat.NewVecDense(inDim, flat[i])
			h.MulVec(w1, x)
			h.AddVec(h, b1)
			for r := 0; r < opts.HiddenUnits; r++ {
				h.SetVec(r, math.Tanh(h.AtVec(r)))
			}
			p := sigmoid(mat.Dot(w2, h) + b2)
			dOut := p - labels[i]

			gradB2 += dOut
			for r := 0; r < opts.HiddenUnits; r++ {
				hr := h.AtVec(r)
				gradW2.SetVec(r, gradW2.AtVec(r)+dOut*hr)
				dh := dOut * w2.AtVec(r) * (1 - hr*hr)
				gradB1.SetVec(r, gradB1.AtVec(r)+dh)
				for c := 0; c < inDim; c++ {
					gradW1.Set(r, c, gradW1.At(r, c)+dh*x.AtVec(c))
				}
			}
		}
		lr := opts.LearningRate / n
		for r := 0; r < opts.HiddenUnits; r++ {
			b1.SetVec(r, b1.AtVec(r)-lr*gradB1.AtVec(r))
			w2.SetVec(r, w2.AtVec(r)-lr*gradW2.AtVec(r))
			for c := 0; c < inDim; c++ {
				w1.Set(r, c, w1.At(r, c)-lr*gradW1.At(r, c))
			}
		}
		b2 -= lr * gradB2
	}

	a := Artifact{
		FeatureNames: append([]string(nil), featureNames...),
		SeqLen:       seqLen,
		HiddenUnits:  opts.HiddenUnits,
		W1:           append([]float64(nil), w1.RawMatrix().Data...),
		B1:           append([]float64(nil), b1.RawVector().Data...),
		W2:           append([]float64(nil), w2.RawVector().Data...),
		B2:           b2,
	}
	return fromArtifact(a)
}

// PredictWindow returns the up-probability for one seq_len x features window.
// The window shape must match the trained shape exactly; short windows are an
// error, never padded.
func (m *Model) PredictWindow(window [][]float64) (float64, error) {
	if m == nil {
		return 0, errors.New("nil model")
	}
	flat, err := flatten(window, m.artifact.SeqLen, len(m.artifact.FeatureNames))
	if err != nil {
		return 0, err
	}
	x := mat.NewVecDense(len(flat), flat)
	h := mat.NewVecDense(m.artifact.HiddenUnits, nil)
	h.MulVec(m.w1, x)
	h.AddVec(h, m.b1)
	for r := 0; r < m.artifact.HiddenUnits; r++ {
		h.SetVec(r, math.Tanh(h.AtVec(r)))
	}
	return sigmoid(mat.Dot(m.w2, h) + m.artifact.B2), nil
}

func (m *Model) SeqLen() int {
	if m == nil {
		return 0
	}
	return m.artifact.SeqLen
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.artifact.FeatureNames...)
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	return json.Marshal(m.artifact)
}

func UnmarshalBinary(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return fromArtifact(a)
}

func fromArtifact(a Artifact) (*Model, error) {
	inDim := a.SeqLen * len(a.FeatureNames)
	if a.SeqLen <= 0 || a.HiddenUnits <= 0 || inDim == 0 {
		return nil, errors.New("invalid artifact shape")
	}
	if len(a.W1) != a.HiddenUnits*inDim || len(a.B1) != a.HiddenUnits || len(a.W2) != a.HiddenUnits {
		return nil, errors.New("artifact weight shapes are inconsistent")
	}
	return &Model{
		artifact: a,
		w1:       mat.NewDense(a.HiddenUnits, inDim, append([]float64(nil), a.W1...)),
		b1:       mat.NewVecDense(a.HiddenUnits, append([]float64(nil), a.B1...)),
		w2:       mat.NewVecDense(a.HiddenUnits, append([]float64(nil), a.W2...)),
	}, nil
}

func flatten(window [][]float64, seqLen, featCount int) ([]float64, error) {
	if len(window) != seqLen {
		return nil, fmt.Errorf("window has %d rows, model expects %d", len(window), seqLen)
	}
	out := make([]float64, 0, seqLen*featCount)
	for i, row := range window {
		if len(row) != featCount {
			return nil, fmt.Errorf("window row %d has %d features, model expects %d", i, len(row), featCount)
		}
		out = append(out, row...)
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	if x > 35 {
		return 1
	}
	if x < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}
