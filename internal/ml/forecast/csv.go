package forecast

import (
	"encoding/csv"
	"io"
	"strconv"

	"yield-compass/internal/domain"
)

// WriteCSV renders forecasts as a flat delimited file for downstream use.
func WriteCSV(w io.Writer, forecasts []domain.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "model", "pred", "down_prob", "up_prob", "statement"}); err != nil {
		return err
	}
	for _, f := range forecasts {
		rec := []string{
			f.Date.UTC().Format("2006-01-02"),
			f.Model,
			strconv.Itoa(f.Pred),
			strconv.FormatFloat(f.Down, 'f', -1, 64),
			strconv.FormatFloat(f.Up, 'f', -1, 64),
			f.Statement,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
