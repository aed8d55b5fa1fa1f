// Package format renders and parses numbers using the Brazilian conventions of
// the dataset file and the dashboard.
package format

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// DecimalComma returns the shortest representation of value with a comma as the
// decimal separator and no grouping (e.g. "0,52", "1,0052", "3,0"). Missing
// values (NaN) render as the empty string.
func DecimalComma(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return strings.Replace(text, ".", ",", 1)
}

// ParseDecimal parses a cell written with either decimal separator. The second
// result is false for empty or unparseable input.
func ParseDecimal(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return math.NaN(), false
	}
	normalized := strings.Replace(trimmed, ",", ".", 1)
	parsed, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(parsed) {
		return math.NaN(), false
	}
	return parsed, true
}

// Number formats value for display with pt-BR grouping and the given number of
// decimals (e.g. "1.234,500000").
func Number(value float64, decimals int) string {
	if math.IsNaN(value) {
		return "nan"
	}
	return printer.Sprintf("%.*f", decimals, value)
}

// Count formats an integer for display with pt-BR grouping (e.g. "1.234").
func Count(n int) string {
	return printer.Sprintf("%d", n)
}
