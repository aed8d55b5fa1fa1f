package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/format"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingDateColumn is returned when the header has no DATE column.
var ErrMissingDateColumn = errors.New("Coluna 'DATE' não encontrada.")

// ErrEmptyDataset is returned for input without a header row.
var ErrEmptyDataset = errors.New("dataset is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the dataset file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return table, nil
}

// ReadCSV parses a ';'-separated, comma-decimal dataset. Rows whose DATE does
// not parse are dropped, the rest are sorted ascending, and every other column
// is coerced to a number with unparseable cells becoming missing.
func ReadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = constants.CSVSeparator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dateIdx := -1
	for i, name := range header {
		header[i] = norm.NFC.String(strings.TrimSpace(name))
		if header[i] == constants.DateColumn && dateIdx < 0 {
			dateIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, ErrMissingDateColumn
	}

	var dates []time.Time
	values := make([][]float64, len(header))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if dateIdx >= len(record) {
			continue
		}
		date, ok := datetime.ParseDate(record[dateIdx])
		if !ok {
			continue
		}
		dates = append(dates, date)
		for i := range header {
			if i == dateIdx {
				continue
			}
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			v, _ := format.ParseDecimal(cell)
			values[i] = append(values[i], v)
		}
	}

	table := New(dates)
	for i, name := range header {
		if i == dateIdx {
			continue
		}
		column := values[i]
		if column == nil {
			column = []float64{}
		}
		if err := table.AddColumn(name, column); err != nil {
			return nil, err
		}
	}
	table.sortByDate()
	return table, nil
}

// WriteCSV serializes the table: DATE first, ';' separator, decimal comma and
// empty cells for missing values.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = constants.CSVSeparator

	header := append([]string{constants.DateColumn}, t.ColumnNames()...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i, d := range t.Dates {
		record[0] = datetime.Format(d)
		for j, c := range t.Columns {
			record[j+1] = format.DecimalComma(c.Values[i])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Save writes the table to path, replacing any existing file.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file(%s): %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
