package scoring

// ClassMetrics holds precision/recall/F1 for one class.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a two-class classification report. It is diagnostic output only
// and never feeds back into scoring results.
type Report struct {
	Down     ClassMetrics
	Up       ClassMetrics
	Accuracy float64
}

// Classification computes the per-class report over aligned actual and
// predicted class slices.
func Classification(actual, preds []int) Report {
	n := len(actual)
	if n == 0 || len(preds) != n {
		return Report{}
	}
	var tp, fp, tn, fn float64
	for i := 0; i < n; i++ {
		switch {
		case preds[i] == 1 && actual[i] == 1:
			tp++
		case preds[i] == 1 && actual[i] == 0:
			fp++
		case preds[i] == 0 && actual[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return Report{
		Up: ClassMetrics{
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			F1:        f1(ratio(tp, tp+fp), ratio(tp, tp+fn)),
			Support:   int(tp + fn),
		},
		Down: ClassMetrics{
			Precision: ratio(tn, tn+fn),
			Recall:    ratio(tn, tn+fp),
			F1:        f1(ratio(tn, tn+fn), ratio(tn, tn+fp)),
			Support:   int(tn + fp),
		},
		Accuracy: (tp + tn) / float64(n),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
