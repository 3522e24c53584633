package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ReadCSV parses a flat observation file into a frame. The first header
// column must be "date"; every other column is read as float64, with empty
// cells becoming NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	header := records[0]
	if len(header) < 2 || header[0] != "date" {
		return nil, fmt.Errorf("csv must start with a date column, got %q", header[0])
	}

	rows := records[1:]
	dates := make([]time.Time, len(rows))
	cols := make([][]float64, len(header)-1)
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}
	for i, rec := range rows {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+2, len(rec), len(header))
		}
		d, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, rec[0], err)
		}
		dates[i] = d.UTC()
		for j := 1; j < len(rec); j++ {
			if rec[j] == "" {
				cols[j-1][i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+2, header[j], err)
			}
			cols[j-1][i] = v
		}
	}

	frame, err := New(dates)
	if err != nil {
		return nil, err
	}
	for j := 1; j < len(header); j++ {
		if err := frame.AddColumn(header[j], cols[j-1]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
