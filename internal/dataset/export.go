package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/ipeadata-tools/inflation-indices/pkg/columns"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/format"
	"github.com/ipeadata-tools/inflation-indices/pkg/mathutil"
	"github.com/xuri/excelize/v2"
)

// LongSheetName is the worksheet holding the long-format export.
const LongSheetName = "indices"

// Decimal renders as a comma-decimal CSV cell, empty when missing.
type Decimal float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (d Decimal) MarshalCSV() (string, error) {
	return format.DecimalComma(float64(d)), nil
}

// SeriesRow is one line of the single-series export.
type SeriesRow struct {
	Date  string  `csv:"DATE"`
	Valor Decimal `csv:"valor"`
}

// LongRow is one (date, index, metric, value) tuple of the long-format export.
type LongRow struct {
	Date   string  `csv:"DATE"`
	Indice string  `csv:"indice"`
	Tipo   string  `csv:"tipo"`
	Valor  Decimal `csv:"valor"`
}

// SeriesRows converts a series into export rows.
func SeriesRows(s Series) []SeriesRow {
	rows := make([]SeriesRow, 0, len(s.Points))
	for _, p := range s.Points {
		rows = append(rows, SeriesRow{Date: datetime.Format(p.Date), Valor: Decimal(p.Value)})
	}
	return rows
}

// ToLong reshapes the selected indices and metric types into long format.
// Pairs without a matching column are skipped.
func ToLong(t *Table, indices, tipos []string) []LongRow {
	rows := make([]LongRow, 0)
	for _, indice := range indices {
		for _, tipo := range tipos {
			name, err := columns.Name(indice, tipo)
			if err != nil {
				continue
			}
			c, ok := t.Column(name)
			if !ok {
				continue
			}
			for i, d := range t.Dates {
				rows = append(rows, LongRow{
					Date:   datetime.Format(d),
					Indice: indice,
					Tipo:   tipo,
					Valor:  Decimal(c.Values[i]),
				})
			}
		}
	}
	return rows
}

// WriteSeriesCSV writes the single-series export.
func WriteSeriesCSV(w io.Writer, rows []SeriesRow) error {
	return marshalCSV(w, &rows)
}

// WriteLongCSV writes the long-format export.
func WriteLongCSV(w io.Writer, rows []LongRow) error {
	return marshalCSV(w, &rows)
}

func marshalCSV(w io.Writer, in interface{}) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = constants.CSVSeparator

	if err := gocsv.MarshalCSV(in, csvWriter); err != nil {
		return fmt.Errorf("failed to marshal CSV: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteLongXLSX writes the long-format export as a single-sheet workbook.
// Values are numeric cells; missing values are left blank.
func WriteLongXLSX(w io.Writer, rows []LongRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LongSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{constants.DateColumn, "indice", "tipo", "valor"}
	if err := f.SetSheetRow(LongSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var value interface{}
		if !mathutil.IsMissing(float64(row.Valor)) {
			value = float64(row.Valor)
		}
		record := []interface{}{row.Date, row.Indice, row.Tipo, value}
		if err := f.SetSheetRow(LongSheetName, cell, &record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SeriesFileName names the single-series download, e.g.
// "IPCA_Fator_Acumulado_1994-01-01_2024-12-01.csv".
func SeriesFileName(indice, tipo, start, end string) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv", indice, strings.ReplaceAll(tipo, " ", "_"), start, end)
}

// LongFileName names the long-format download with the given extension.
func LongFileName(start, end, ext string) string {
	return fmt.Sprintf("indices_formato_longo_%s_%s.%s", start, end, ext)
}
