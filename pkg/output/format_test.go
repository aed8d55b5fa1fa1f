package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/mathutil"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := dataset.New([]time.Time{
		datetime.MonthStart(1994, time.January),
		datetime.MonthStart(1994, time.February),
	})
	if err := table.AddColumn("IPCA Fator", []float64{1.4131, 1.4027}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if err := table.AddColumn("SELIC Fator", []float64{1.42, mathutil.Missing()}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	return table
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleTable(t)); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	out := buf.String()

	expected := []string{
		"--- Dataset: 2 rows from 1994-01-01 to 1994-02-01 ---",
		"Column | Observations | First | Last | Last value",
		"IPCA Fator | 2 | 1994-01-01 | 1994-02-01 | 1,402700",
		"SELIC Fator | 1 | 1994-01-01 | 1994-02-01 | 1,420000",
	}
	for _, line := range expected {
		if !strings.Contains(out, line) {
			t.Errorf("PrettyFormat() output missing %q\n%s", line, out)
		}
	}
}

func TestPrettyFormatEmptyColumn(t *testing.T) {
	table := dataset.New([]time.Time{datetime.MonthStart(1994, time.January)})
	if err := table.AddColumn("IGPM Fator", []float64{mathutil.Missing()}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, table); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if !strings.Contains(buf.String(), "IGPM Fator | 0 | 1994-01-01 | 1994-01-01 | -") {
		t.Errorf("PrettyFormat() did not mark the empty column:\n%s", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleTable(t)); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	expected := "DATE;IPCA Fator;SELIC Fator\n" +
		"1994-01-01;1,4131;1,42\n" +
		"1994-02-01;1,4027;\n"
	if buf.String() != expected {
		t.Errorf("CsvFormat() = %q, expected %q", buf.String(), expected)
	}
}
