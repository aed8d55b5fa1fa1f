// Package output provides utilities for displaying the extracted dataset.
package output

import (
	"fmt"
	"io"

	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/format"
)

// PrettyFormat writes a human-readable summary of every column of table.
func PrettyFormat(w io.Writer, table *dataset.Table) error {
	first, last := table.DateRange()
	if _, err := fmt.Fprintf(w, "--- Dataset: %s rows from %s to %s ---\n",
		format.Count(table.Len()), datetime.Format(first), datetime.Format(last)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Column | Observations | First | Last | Last value\n")
	fmt.Fprintf(w, "______ | ____________ | _____ | ____ | __________\n")

	for _, name := range table.ColumnNames() {
		series, _ := table.Series(name)
		summary := dataset.Summarize(series)
		value := "-"
		if summary.HasValue {
			value = format.Number(summary.LastValue, 6)
		}
		if _, err := fmt.Fprintf(w, "%s | %s | %s | %s | %s\n",
			name,
			format.Count(summary.Observations),
			datetime.Format(summary.First),
			datetime.Format(summary.Last),
			value,
		); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat writes table in the dataset file format.
func CsvFormat(w io.Writer, table *dataset.Table) error {
	return table.WriteCSV(w)
}
