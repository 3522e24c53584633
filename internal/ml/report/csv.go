package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV renders the table as a flat delimited file: one header row, one
// row per date, the average record last.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "date")
	for _, col := range t.Columns {
		header = append(header, col.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, cells := range t.Rows {
		rec := make([]string, 0, len(cells)+1)
		rec = append(rec, t.Index[i])
		for _, c := range cells {
			if c.Numeric {
				rec = append(rec, strconv.FormatFloat(c.Value, 'f', -1, 64))
			} else {
				rec = append(rec, c.Text)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
