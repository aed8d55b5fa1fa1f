// Package dataset holds the wide table shared by the extractor and the
// dashboard: one row per date and one column per (index, metric) pair.
package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/columns"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/mathutil"
)

// Column is a named data column. Missing observations are NaN.
type Column struct {
	Name   string
	Values []float64
}

// Table is a date-keyed wide table. Every column has one value per date.
type Table struct {
	Dates   []time.Time
	Columns []Column
}

// Point is one observation of a single column.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is a single column projected against the table dates.
type Series struct {
	Column string
	Points []Point
}

// New returns an empty table over the given dates.
func New(dates []time.Time) *Table {
	return &Table{Dates: append([]time.Time(nil), dates...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Dates)
}

// AddColumn appends a column; values must line up with the table dates.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.Dates) {
		return fmt.Errorf("column %q has %d values for %d dates", name, len(values), len(t.Dates))
	}
	t.Columns = append(t.Columns, Column{Name: name, Values: values})
	return nil
}

// ColumnNames returns the data column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column looks a column up by exact name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Series projects a column into date/value points.
func (t *Table) Series(name string) (Series, bool) {
	c, ok := t.Column(name)
	if !ok {
		return Series{}, false
	}
	points := make([]Point, len(t.Dates))
	for i, d := range t.Dates {
		points[i] = Point{Date: d, Value: c.Values[i]}
	}
	return Series{Column: name, Points: points}, true
}

// Infer returns the indices and metric types present in the table columns.
func (t *Table) Infer() (indices []string, tipos []string) {
	return columns.Infer(t.ColumnNames())
}

// DateRange returns the first and last dates, or zero times for an empty table.
func (t *Table) DateRange() (time.Time, time.Time) {
	if len(t.Dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.Dates[0], t.Dates[len(t.Dates)-1]
}

// Filter returns the rows whose date lies in [start, end]. Zero bounds are open.
func (t *Table) Filter(start, end time.Time) *Table {
	keep := make([]int, 0, len(t.Dates))
	for i, d := range t.Dates {
		if datetime.WithinRange(d, start, end) {
			keep = append(keep, i)
		}
	}

	out := &Table{Dates: make([]time.Time, len(keep))}
	for j, i := range keep {
		out.Dates[j] = t.Dates[i]
	}
	for _, c := range t.Columns {
		values := make([]float64, len(keep))
		for j, i := range keep {
			values[j] = c.Values[i]
		}
		out.Columns = append(out.Columns, Column{Name: c.Name, Values: values})
	}
	return out
}

// sortByDate orders rows ascending by date, keeping the input order of ties.
func (t *Table) sortByDate() {
	order := make([]int, len(t.Dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.Dates[order[a]].Before(t.Dates[order[b]])
	})

	dates := make([]time.Time, len(order))
	for j, i := range order {
		dates[j] = t.Dates[i]
	}
	t.Dates = dates
	for k := range t.Columns {
		values := make([]float64, len(order))
		for j, i := range order {
			values[j] = t.Columns[k].Values[i]
		}
		t.Columns[k].Values = values
	}
}

// Summary holds the quick metrics shown above a selected series.
type Summary struct {
	Observations int
	First        time.Time
	Last         time.Time
	LastValue    float64
	HasValue     bool
}

// Summarize counts the non-missing observations of s, its date span and its
// most recent non-missing value.
func Summarize(s Series) Summary {
	summary := Summary{LastValue: mathutil.Missing()}
	for _, p := range s.Points {
		if summary.First.IsZero() || p.Date.Before(summary.First) {
			summary.First = p.Date
		}
		if p.Date.After(summary.Last) {
			summary.Last = p.Date
		}
		if mathutil.IsMissing(p.Value) {
			continue
		}
		summary.Observations++
		summary.LastValue = p.Value
		summary.HasValue = true
	}
	return summary
}
