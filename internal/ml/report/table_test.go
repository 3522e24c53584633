package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"yield-compass/internal/domain"
)

func day(i int) time.Time {
	return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func modelRows(name string, start, n int, pred int, up float64, actuals []int) domain.ModelResult {
	r := domain.ModelResult{Name: name}
	for i := 0; i < n; i++ {
		actual := actuals[i]
		r.Rows = append(r.Rows, domain.ResultRow{
			Date:    day(start + i),
			Pred:    pred,
			Actual:  actual,
			Down:    1 - up,
			Up:      up,
			Outcome: domain.OutcomeOf(pred, actual),
		})
	}
	return r
}

func ensembleRows(start, n int, actuals []int) []domain.EnsembleRow {
	out := make([]domain.EnsembleRow, n)
	for i := 0; i < n; i++ {
		out[i] = domain.EnsembleRow{
			Date:        day(start + i),
			HardPred:    1,
			SoftPred:    0,
			Actual:      actuals[i],
			HardOutcome: domain.OutcomeOf(1, actuals[i]),
			SoftOutcome: domain.OutcomeOf(0, actuals[i]),
		}
	}
	return out
}

func TestAssembleColumnLayout(t *testing.T) {
	actuals := []int{1, 0, 1}
	ensemble := ensembleRows(2, 3, actuals)
	// The plain model scored two warmup dates the ensemble dropped.
	plain := modelRows("lr", 0, 5, 1, 0.8, []int{0, 0, 1, 0, 1})
	seq := modelRows("seq", 2, 3, 0, 0.3, actuals)

	table, err := Assemble(ensemble, []domain.ModelResult{plain}, []domain.ModelResult{seq})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	wantCols := []string{
		"hard", "soft", "hard_pred", "soft_pred", "actual",
		"lr", "lr_pred", "lr_actual", "lr_down", "lr_up",
		"seq", "seq_pred", "seq_actual", "seq_down", "seq_up",
	}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %d", len(wantCols), len(table.Columns))
	}
	for i, name := range wantCols {
		if table.Columns[i].Name != name {
			t.Fatalf("column %d is %q, want %q", i, table.Columns[i].Name, name)
		}
	}

	// Three dated rows plus the average record.
	if table.DataRowCount() != 3 || len(table.Rows) != 4 {
		t.Fatalf("expected 3 data rows + average, got %d/%d", table.DataRowCount(), len(table.Rows))
	}
	if table.Index[len(table.Index)-1] != AverageIndex {
		t.Fatalf("last index is %q, want %q", table.Index[len(table.Index)-1], AverageIndex)
	}

	// The plain model block starts at the restricted domain, not its own.
	if got := table.Rows[0][7].Value; got != 1 {
		t.Fatalf("lr_actual for first ensemble date is %v, want 1", got)
	}
}

func TestAssembleAverageRow(t *testing.T) {
	actuals := []int{1, 0}
	ensemble := ensembleRows(0, 2, actuals)
	plain := modelRows("lr", 0, 2, 1, 0.8, actuals)

	table, err := Assemble(ensemble, []domain.ModelResult{plain}, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	avg := table.Rows[len(table.Rows)-1]

	// Flag columns are empty in the average record.
	if avg[0].Numeric || avg[0].Text != "" || avg[5].Text != "" {
		t.Fatalf("flag cells of average row must be empty text")
	}
	// actual averages to 0.5, lr_up stays 0.8.
	if math.Abs(avg[4].Value-0.5) > 1e-12 {
		t.Fatalf("average actual %v, want 0.5", avg[4].Value)
	}
	if math.Abs(avg[9].Value-0.8) > 1e-12 {
		t.Fatalf("average lr_up %v, want 0.8", avg[9].Value)
	}
}

func TestAssembleRejectsDomainMismatch(t *testing.T) {
	actuals := []int{1, 0, 1}
	ensemble := ensembleRows(2, 3, actuals)

	// A plain model missing one ensemble date cannot be aligned.
	shortPlain := modelRows("lr", 2, 2, 1, 0.8, actuals[:2])
	if _, err := Assemble(ensemble, []domain.ModelResult{shortPlain}, nil); err == nil {
		t.Fatal("expected error for plain model missing an ensemble date")
	}

	// Sequential results must already live exactly on the ensemble domain.
	wideSeq := modelRows("seq", 1, 4, 0, 0.3, []int{0, 1, 0, 1})
	if _, err := Assemble(ensemble, nil, []domain.ModelResult{wideSeq}); err == nil {
		t.Fatal("expected error for sequential model on a wider domain")
	}

	if _, err := Assemble(nil, nil, nil); err == nil {
		t.Fatal("expected error for empty ensemble")
	}
}

func TestWriteCSV(t *testing.T) {
	actuals := []int{1, 0}
	ensemble := ensembleRows(0, 2, actuals)
	plain := modelRows("lr", 0, 2, 1, 0.8, actuals)

	table, err := Assemble(ensemble, []domain.ModelResult{plain}, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 2 dates + average, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,hard,soft,hard_pred,soft_pred,actual,lr,") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-07-01,") {
		t.Fatalf("unexpected first data line: %s", lines[1])
	}
	if !strings.HasPrefix(lines[3], AverageIndex+",") {
		t.Fatalf("expected average record last, got: %s", lines[3])
	}
	if strings.Contains(lines[1], "0.8000000") {
		t.Fatalf("probabilities must use minimal formatting: %s", lines[1])
	}
}
