package xgboost

import (
	"testing"
)

func TestTrainPredictAndRoundTrip(t *testing.T) {
	samples, labels := dataset()
	model, err := Train(samples, labels, []string{"pct_chg", "spread_t10y"}, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	pLow := model.PredictProb([]float64{-1.8, -1.3})
	pHigh := model.PredictProb([]float64{1.8, 1.3})
	if pLow < 0 || pLow > 1 || pHigh < 0 || pHigh > 1 {
		t.Fatalf("expected probabilities in [0,1], got low=%.4f high=%.4f", pLow, pHigh)
	}
	if pHigh <= pLow {
		t.Fatalf("expected positive sample probability > negative sample probability, got %.4f <= %.4f", pHigh, pLow)
	}

	blob, err := model.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored, err := UnmarshalBinary(blob)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	pRoundTrip := restored.PredictProb([]float64{1.8, 1.3})
	if pRoundTrip < 0 || pRoundTrip > 1 {
		t.Fatalf("expected roundtrip probability in [0,1], got %.4f", pRoundTrip)
	}
}

func TestFeatureImportancesSurviveRoundTrip(t *testing.T) {
	samples, labels := dataset()
	model, err := Train(samples, labels, []string{"pct_chg", "spread_t10y"}, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	imp := model.FeatureImportances()
	if len(imp) != 2 {
		t.Fatalf("expected 2 importances, got %d", len(imp))
	}
	for i, v := range imp {
		if v < 0 {
			t.Fatalf("importance %d is negative: %v", i, v)
		}
	}

	blob, err := model.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored, err := UnmarshalBinary(blob)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	restoredImp := restored.FeatureImportances()
	if len(restoredImp) != len(imp) {
		t.Fatalf("importances lost in roundtrip: %d vs %d", len(restoredImp), len(imp))
	}
	for i := range imp {
		if restoredImp[i] != imp[i] {
			t.Fatalf("importance %d changed in roundtrip", i)
		}
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	samples := [][]float64{{1, 2}, {2, 3}, {3, 4}}
	labels := []float64{1, 1, 1}
	if _, err := Train(samples, labels, []string{"a", "b"}, DefaultTrainOptions()); err == nil {
		t.Fatal("expected error for single-class training data")
	}
}

func dataset() ([][]float64, []float64) {
	samples := make([][]float64, 0, 120)
	labels := make([]float64, 0, 120)
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{-2.0 + float64(i)/90.0, -1.5 + float64(i)/120.0})
		labels = append(labels, 0)
	}
	for i := 0; i < 60; i++ {
		samples = append(samples, []float64{1.0 + float64(i)/90.0, 1.1 + float64(i)/110.0})
		labels = append(labels, 1)
	}
	return samples, labels
}
