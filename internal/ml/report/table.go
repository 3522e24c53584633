// Package report aligns per-model result tables and the ensemble output into
// one dated table with a fixed column ordering, and renders it as CSV. The
// table shape is the contract downstream tooling and the tests pin down.
package report

import (
	"fmt"
	"time"

	"yield-compass/internal/domain"
)

const AverageIndex = "average"

// Column describes one report column. Only numeric columns participate in
// the synthetic average row.
type Column struct {
	Name    string
	Numeric bool
}

// Cell is either a numeric value or a text flag.
type Cell struct {
	Text    string
	Value   float64
	Numeric bool
}

// Table is the assembled report: a date index plus cells in fixed column
// order. Ensemble correctness flags and predictions come first, then actual,
// then one five-column block per model in caller order.
type Table struct {
	Columns []Column
	Index   []string
	Rows    [][]Cell
}

// Assemble merges the ensemble rows with every model's results. Plain-model
// results are restricted to the ensemble's date domain (the dates left after
// dropping the first seq_len, which sequential models cannot score); the
// sequential results must already live on exactly that domain.
func Assemble(ensemble []domain.EnsembleRow, plain, sequential []domain.ModelResult) (*Table, error) {
	if len(ensemble) == 0 {
		return nil, fmt.Errorf("no ensemble rows to assemble")
	}
	dates := make([]time.Time, len(ensemble))
	for i, row := range ensemble {
		dates[i] = row.Date
	}

	aligned := make([]domain.ModelResult, 0, len(plain)+len(sequential))
	for _, r := range plain {
		restricted := r.Restrict(dates)
		if err := checkDomain(restricted, dates); err != nil {
			return nil, err
		}
		aligned = append(aligned, restricted)
	}
	for _, r := range sequential {
		if err := checkDomain(r, dates); err != nil {
			return nil, err
		}
		aligned = append(aligned, r)
	}

	t := &Table{
		Columns: []Column{
			{Name: "hard"},
			{Name: "soft"},
			{Name: "hard_pred", Numeric: true},
			{Name: "soft_pred", Numeric: true},
			{Name: "actual", Numeric: true},
		},
	}
	for _, r := range aligned {
		t.Columns = append(t.Columns,
			Column{Name: r.Name},
			Column{Name: r.Name + "_pred", Numeric: true},
			Column{Name: r.Name + "_actual", Numeric: true},
			Column{Name: r.Name + "_down", Numeric: true},
			Column{Name: r.Name + "_up", Numeric: true},
		)
	}

	for i, ens := range ensemble {
		cells := make([]Cell, 0, len(t.Columns))
		cells = append(cells,
			textCell(string(ens.HardOutcome)),
			textCell(string(ens.SoftOutcome)),
			numCell(float64(ens.HardPred)),
			numCell(float64(ens.SoftPred)),
			numCell(float64(ens.Actual)),
		)
		for _, r := range aligned {
			row := r.Rows[i]
			cells = append(cells,
				textCell(string(row.Outcome)),
				numCell(float64(row.Pred)),
				numCell(float64(row.Actual)),
				numCell(row.Down),
				numCell(row.Up),
			)
		}
		t.Index = append(t.Index, ens.Date.UTC().Format("2006-01-02"))
		t.Rows = append(t.Rows, cells)
	}

	t.appendAverageRow()
	return t, nil
}

// appendAverageRow adds the final synthetic record: the column-wise mean of
// every numeric column. Flag columns stay empty.
func (t *Table) appendAverageRow() {
	cells := make([]Cell, len(t.Columns))
	for j, col := range t.Columns {
		if !col.Numeric {
			cells[j] = textCell("")
			continue
		}
		sum := 0.0
		for i := range t.Rows {
			sum += t.Rows[i][j].Value
		}
		cells[j] = numCell(sum / float64(len(t.Rows)))
	}
	t.Index = append(t.Index, AverageIndex)
	t.Rows = append(t.Rows, cells)
}

// DataRowCount is the number of dated rows, excluding the average record.
func (t *Table) DataRowCount() int {
	return len(t.Rows) - 1
}

func checkDomain(r domain.ModelResult, dates []time.Time) error {
	if len(r.Rows) != len(dates) {
		return fmt.Errorf("model %q scored %d of %d ensemble dates", r.Name, len(r.Rows), len(dates))
	}
	for i := range dates {
		if !r.Rows[i].Date.UTC().Equal(dates[i].UTC()) {
			return fmt.Errorf("model %q row %d is %s, ensemble has %s",
				r.Name, i,
				r.Rows[i].Date.UTC().Format("2006-01-02"),
				dates[i].UTC().Format("2006-01-02"))
		}
	}
	return nil
}

func textCell(s string) Cell { return Cell{Text: s} }

func numCell(v float64) Cell { return Cell{Value: v, Numeric: true} }
