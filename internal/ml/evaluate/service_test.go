package evaluate

import (
	"context"
	"testing"
	"time"

	"yield-compass/internal/dataset"
	"yield-compass/internal/domain"
	"yield-compass/internal/ml/models/logreg"
	"yield-compass/internal/ml/models/seqnet"
	"yield-compass/internal/ml/registry"
	"yield-compass/internal/ml/scoring"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

const testSeqLen = 10

// seedStore trains one logistic model and one windowed model on synthetic
// separable data and saves both, so the full pipeline runs on real handles.
func seedStore(t *testing.T) registry.Store {
	t.Helper()
	ctx := context.Background()
	store := registry.NewFSStore(t.TempDir())

	samples := make([][]float64, 0, 80)
	labels := make([]float64, 0, 80)
	for i := 0; i < 40; i++ {
		samples = append(samples, []float64{-1.0 - float64(i)/50})
		labels = append(labels, 0)
		samples = append(samples, []float64{1.0 + float64(i)/50})
		labels = append(labels, 1)
	}
	lr, err := logreg.Train(samples, labels, []string{"pct_chg"}, logreg.DefaultTrainOptions())
	if err != nil {
		t.Fatalf("train logreg: %v", err)
	}
	lrBlob, err := lr.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal logreg: %v", err)
	}
	if err := store.Save(ctx, registry.Record{
		Meta: domain.ModelMeta{
			Name:     "lr",
			Category: domain.CategoryPlain,
			Features: []string{"pct_chg"},
			Labels:   []string{"target"},
		},
		ArtifactFormat: registry.FormatLogReg,
	}, lrBlob); err != nil {
		t.Fatalf("save logreg: %v", err)
	}

	win := func(level float64) [][]float64 {
		out := make([][]float64, testSeqLen)
		for i := range out {
			out[i] = []float64{level}
		}
		return out
	}
	windows := make([][][]float64, 0, 40)
	winLabels := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		windows = append(windows, win(-1.0-float64(i)/40))
		winLabels = append(winLabels, 0)
		windows = append(windows, win(1.0+float64(i)/40))
		winLabels = append(winLabels, 1)
	}
	sn, err := seqnet.Train(windows, winLabels, []string{"pct_chg"}, testSeqLen, seqnet.DefaultTrainOptions())
	if err != nil {
		t.Fatalf("train seqnet: %v", err)
	}
	snBlob, err := sn.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal seqnet: %v", err)
	}
	if err := store.Save(ctx, registry.Record{
		Meta: domain.ModelMeta{
			Name:     "seq",
			Category: domain.CategorySequential,
			Features: []string{"pct_chg"},
			Labels:   []string{"target"},
		},
		ArtifactFormat: registry.FormatSeqNet,
	}, snBlob); err != nil {
		t.Fatalf("save seqnet: %v", err)
	}
	return store
}

// evalFrame has a constant strongly-up feature so both models agree on every
// date, making the ensemble deterministic.
func evalFrame(t *testing.T, n int) *dataset.Frame {
	t.Helper()
	dates := make([]time.Time, n)
	feature := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		feature[i] = 1.5
		labels[i] = 1
	}
	f, err := dataset.New(dates)
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	f.AddColumn("pct_chg", feature)
	f.AddColumn("target", labels)
	return f
}

func newTestService(t *testing.T, store registry.Store, cfg Config) *Service {
	t.Helper()
	log := zerolog.Nop()
	loader := registry.NewLoader(store, testTracer, log)
	scorer := scoring.NewService(testTracer, log)
	return NewService(testTracer, log, loader, scorer, cfg)
}

func TestRunFullPipeline(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(t, store, Config{
		PlainModels:      []string{"lr"},
		SequentialModels: []string{"seq"},
		SeqLen:           testSeqLen,
	})

	frame := evalFrame(t, 12)
	table, err := svc.Run(context.Background(), frame)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 12 dates minus the seq_len warmup leaves 2 scoreable dates.
	if table.DataRowCount() != 2 {
		t.Fatalf("expected 2 data rows, got %d", table.DataRowCount())
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 2 data rows + average, got %d", len(table.Rows))
	}
	if got, want := len(table.Columns), 5+5*2; got != want {
		t.Fatalf("expected %d columns for two models, got %d", want, got)
	}
	if table.Index[0] != frame.Date(testSeqLen).Format("2006-01-02") {
		t.Fatalf("first report date %s, want %s", table.Index[0], frame.Date(testSeqLen).Format("2006-01-02"))
	}
	if table.Index[2] != "average" {
		t.Fatalf("last index %q, want average", table.Index[2])
	}

	// Both models see a strongly-up feature, so both votes are up and right.
	for i := 0; i < table.DataRowCount(); i++ {
		row := table.Rows[i]
		if row[2].Value != 1 || row[3].Value != 1 {
			t.Fatalf("row %d ensemble preds %v/%v, want 1/1", i, row[2].Value, row[3].Value)
		}
		if row[4].Value != 1 {
			t.Fatalf("row %d actual %v, want 1", i, row[4].Value)
		}
		if row[0].Text != string(domain.OutcomeRight) || row[1].Text != string(domain.OutcomeRight) {
			t.Fatalf("row %d outcomes %q/%q, want Right/Right", i, row[0].Text, row[1].Text)
		}
	}
}

func TestRunPlainOnlyKeepsEveryDate(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(t, store, Config{
		PlainModels: []string{"lr"},
		SeqLen:      testSeqLen,
	})

	frame := evalFrame(t, 12)
	table, err := svc.Run(context.Background(), frame)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Without sequential voters there is no warmup to drop.
	if table.DataRowCount() != 12 {
		t.Fatalf("expected 12 data rows, got %d", table.DataRowCount())
	}
	if got, want := len(table.Columns), 5+5; got != want {
		t.Fatalf("expected %d columns, got %d", want, got)
	}
}

func TestRunRejectsBadConfiguration(t *testing.T) {
	store := seedStore(t)

	empty := newTestService(t, store, Config{SeqLen: testSeqLen})
	if _, err := empty.Run(context.Background(), evalFrame(t, 12)); err == nil {
		t.Fatal("expected error when no models are configured")
	}

	svc := newTestService(t, store, Config{
		PlainModels:      []string{"lr"},
		SequentialModels: []string{"seq"},
		SeqLen:           testSeqLen,
	})
	if _, err := svc.Run(context.Background(), evalFrame(t, testSeqLen)); err == nil {
		t.Fatal("expected error when the frame does not exceed seq_len")
	}

	missing := newTestService(t, store, Config{PlainModels: []string{"ghost"}})
	if _, err := missing.Run(context.Background(), evalFrame(t, 12)); err == nil {
		t.Fatal("expected error for an unknown model name")
	}
}
