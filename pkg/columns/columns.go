// Package columns implements the column naming convention shared by the
// extractor and the dashboard: every data column is "<index> <suffix>", where
// the suffix names one of four derived metrics.
package columns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"golang.org/x/text/unicode/norm"
)

// Display labels of the derived metrics, in canonical order.
const (
	TipoVariacao           = "Variação (%)"
	TipoFator              = "Fator"
	TipoFatorAcumulado     = "Fator Acumulado"
	TipoFatorCorrecaoLegal = "Fator Correção Legal"
)

// SuffixVariacao is the column spelling of TipoVariacao.
const SuffixVariacao = "Variacao (%)"

// Tipos lists the display labels in canonical priority order.
var Tipos = []string{TipoVariacao, TipoFator, TipoFatorAcumulado, TipoFatorCorrecaoLegal}

var tipoToSuffix = map[string]string{
	TipoVariacao:           SuffixVariacao,
	TipoFator:              TipoFator,
	TipoFatorAcumulado:     TipoFatorAcumulado,
	TipoFatorCorrecaoLegal: TipoFatorCorrecaoLegal,
}

var suffixToTipo = map[string]string{
	SuffixVariacao:         TipoVariacao,
	TipoFator:              TipoFator,
	TipoFatorAcumulado:     TipoFatorAcumulado,
	TipoFatorCorrecaoLegal: TipoFatorCorrecaoLegal,
}

// Longer suffixes come first so "Fator" never shadows "Fator Acumulado".
var pattern = regexp.MustCompile(`^(?P<idx>.+?)\s+(?P<tipo>Variacao \(%\)|Fator Correção Legal|Fator Acumulado|Fator)$`)

// Name rebuilds the column name for an index and a metric display label.
func Name(indice, tipo string) (string, error) {
	suffix, ok := tipoToSuffix[tipo]
	if !ok {
		return "", fmt.Errorf("unknown metric type %q", tipo)
	}
	return indice + " " + suffix, nil
}

// Parse splits a column name into its index and metric display label. Columns
// outside the convention, including DATE, report ok == false.
func Parse(column string) (indice, tipo string, ok bool) {
	normalized := norm.NFC.String(strings.TrimSpace(column))
	if normalized == constants.DateColumn {
		return "", "", false
	}
	m := pattern.FindStringSubmatch(normalized)
	if m == nil {
		return "", "", false
	}
	indice = strings.TrimSpace(m[pattern.SubexpIndex("idx")])
	if indice == "" {
		return "", "", false
	}
	return indice, suffixToTipo[m[pattern.SubexpIndex("tipo")]], true
}

// Infer collects the distinct indices and metric types present in columns.
// Indices are sorted alphabetically and types by canonical priority.
func Infer(cols []string) (indices []string, tipos []string) {
	indexSet := make(map[string]struct{})
	tipoSet := make(map[string]struct{})

	for _, c := range cols {
		indice, tipo, ok := Parse(c)
		if !ok {
			continue
		}
		indexSet[indice] = struct{}{}
		tipoSet[tipo] = struct{}{}
	}

	indices = make([]string, 0, len(indexSet))
	for indice := range indexSet {
		indices = append(indices, indice)
	}
	sort.Strings(indices)

	tipos = make([]string, 0, len(tipoSet))
	for tipo := range tipoSet {
		tipos = append(tipos, tipo)
	}
	SortTipos(tipos)

	return indices, tipos
}

// SortTipos orders metric labels by canonical priority; unrecognized labels
// go last, alphabetically among themselves.
func SortTipos(tipos []string) {
	sort.SliceStable(tipos, func(i, j int) bool {
		pi, pj := priority(tipos[i]), priority(tipos[j])
		if pi != pj {
			return pi < pj
		}
		return tipos[i] < tipos[j]
	})
}

func priority(tipo string) int {
	for i, known := range Tipos {
		if known == tipo {
			return i
		}
	}
	return len(Tipos)
}
