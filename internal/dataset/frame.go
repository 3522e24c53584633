// Package dataset holds the date-keyed column table the evaluator scores
// models against. Frames are built once by a collaborator and treated as
// read-only afterwards; stages that need modified columns work on copies.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// Frame is a table of float64 columns keyed by an ascending, unique date
// index. Missing values are represented as NaN.
type Frame struct {
	dates []time.Time
	order []string
	cols  map[string][]float64
}

// New creates a frame over the given date index. Dates must be strictly
// ascending so sequence windows are well defined.
func New(dates []time.Time) (*Frame, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, fmt.Errorf("frame dates must be strictly ascending: %s >= %s",
				dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = d.UTC()
	}
	return &Frame{dates: out, cols: make(map[string][]float64)}, nil
}

// AddColumn attaches a named column. The column length must match the index.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.dates) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.dates))
	}
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	f.cols[name] = append([]float64(nil), values...)
	f.order = append(f.order, name)
	return nil
}

// Column returns the named column, or false when absent.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.cols[name]
	return col, ok
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.order...)
}

// Dates returns the date index.
func (f *Frame) Dates() []time.Time {
	return append([]time.Time(nil), f.dates...)
}

// Len returns the row count.
func (f *Frame) Len() int { return len(f.dates) }

// Date returns the date at row i.
func (f *Frame) Date(i int) time.Time { return f.dates[i] }

// IndexOf locates a date in the index.
func (f *Frame) IndexOf(date time.Time) (int, bool) {
	target := date.UTC()
	for i, d := range f.dates {
		if d.Equal(target) {
			return i, true
		}
	}
	return 0, false
}

// Row assembles the feature vector for row i in the given column order.
func (f *Frame) Row(i int, features []string) ([]float64, error) {
	if i < 0 || i >= len(f.dates) {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, len(f.dates))
	}
	out := make([]float64, len(features))
	for j, name := range features {
		col, ok := f.cols[name]
		if !ok {
			return nil, fmt.Errorf("frame has no column %q", name)
		}
		out[j] = col[i]
	}
	return out, nil
}

// Copy returns a deep copy the caller may mutate.
func (f *Frame) Copy() *Frame {
	out := &Frame{
		dates: append([]time.Time(nil), f.dates...),
		order: append([]string(nil), f.order...),
		cols:  make(map[string][]float64, len(f.cols)),
	}
	for name, col := range f.cols {
		out.cols[name] = append([]float64(nil), col...)
	}
	return out
}

// SetColumn replaces the values of an existing column in place. Intended for
// use on private copies only.
func (f *Frame) SetColumn(name string, values []float64) error {
	if _, ok := f.cols[name]; !ok {
		return fmt.Errorf("frame has no column %q", name)
	}
	if len(values) != len(f.dates) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.dates))
	}
	f.cols[name] = append([]float64(nil), values...)
	return nil
}

// DropNaN returns a new frame without the rows that contain NaN in any of
// the given columns. Passing no columns checks every column.
func (f *Frame) DropNaN(columns ...string) (*Frame, error) {
	if len(columns) == 0 {
		columns = f.order
	}
	keep := make([]int, 0, len(f.dates))
	for i := range f.dates {
		ok := true
		for _, name := range columns {
			col, exists := f.cols[name]
			if !exists {
				return nil, fmt.Errorf("frame has no column %q", name)
			}
			if math.IsNaN(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	dates := make([]time.Time, len(keep))
	for j, i := range keep {
		dates[j] = f.dates[i]
	}
	out, err := New(dates)
	if err != nil {
		return nil, err
	}
	for _, name := range f.order {
		col := f.cols[name]
		vals := make([]float64, len(keep))
		for j, i := range keep {
			vals[j] = col[i]
		}
		if err := out.AddColumn(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// IntLabel reads the label column at row i as a 0/1 class.
func (f *Frame) IntLabel(name string, i int) (int, error) {
	col, ok := f.cols[name]
	if !ok {
		return 0, fmt.Errorf("frame has no label column %q", name)
	}
	v := col[i]
	if math.IsNaN(v) {
		return 0, fmt.Errorf("label column %q has no value at %s", name, f.dates[i].Format("2006-01-02"))
	}
	if v >= 0.5 {
		return 1, nil
	}
	return 0, nil
}
