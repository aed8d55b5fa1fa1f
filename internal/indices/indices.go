// Package indices defines the named inflation series and derives the monthly
// variation, factor, cumulative factor and legal correction factor columns
// from their raw observations.
package indices

import (
	"fmt"
	"sort"
	"time"

	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
	"github.com/ipeadata-tools/inflation-indices/pkg/columns"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/mathutil"
)

// Kind describes what the raw values of a series measure.
type Kind string

const (
	// KindVariation series publish the monthly percentage change.
	KindVariation Kind = "variation"
	// KindLevel series publish an index number.
	KindLevel Kind = "level"
)

// Series maps a display code to its upstream source identifier.
type Series struct {
	Code     string `mapstructure:"code" validate:"required"`
	SourceID string `mapstructure:"sourceId" validate:"required"`
	Kind     Kind   `mapstructure:"kind" validate:"omitempty,oneof=variation level"`
}

// Point is a raw observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Derived holds the four derived columns of one series over its dates.
type Derived struct {
	Code               string
	Dates              []time.Time
	Variacao           []float64
	Fator              []float64
	FatorAcumulado     []float64
	FatorCorrecaoLegal []float64
}

// DefaultSeries returns the six indices published by the extractor.
func DefaultSeries() []Series {
	return []Series{
		{Code: "IPCA", SourceID: "PRECOS12_IPCAG12", Kind: KindVariation},
		{Code: "IPCA-15", SourceID: "PRECOS12_IPCA15G12", Kind: KindVariation},
		{Code: "IPC-Fipe", SourceID: "FIPE12_FIPE0001", Kind: KindVariation},
		{Code: "INPC", SourceID: "PRECOS12_INPCBR12", Kind: KindVariation},
		{Code: "IGPM", SourceID: "IGP12_IGPMG12", Kind: KindVariation},
		{Code: "SELIC", SourceID: "BM12_TJOVER12", Kind: KindVariation},
	}
}

// FetchStart is the first month requested upstream for startYear.
func FetchStart(startYear int) time.Time {
	return datetime.MonthStart(startYear, time.January)
}

// PublishStart is the first month written to the dataset: the series begins
// the year after startYear.
func PublishStart(startYear int) time.Time {
	return datetime.MonthStart(startYear+1, time.January)
}

// Derive computes the derived columns of s from its raw points. Points before
// January of startYear+1 only seed level-based variations and are not
// published. Cumulative products start at the first published month and skip
// over missing months.
func Derive(s Series, points []Point, startYear int) (Derived, error) {
	kind := s.Kind
	if kind == "" {
		kind = KindVariation
	}
	if kind != KindVariation && kind != KindLevel {
		return Derived{}, fmt.Errorf("series %s: unknown kind %q", s.Code, kind)
	}

	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	publish := PublishStart(startYear)
	out := Derived{Code: s.Code}
	accumulated, legal := 1.0, 1.0
	previous := mathutil.Missing()

	for _, p := range sorted {
		rate := p.Value
		if kind == KindLevel {
			rate = mathutil.RateFromLevels(previous, p.Value)
			previous = p.Value
		}
		if p.Date.Before(publish) {
			continue
		}

		factor := mathutil.FactorFromRate(rate)
		accumulatedCell, legalCell := mathutil.Missing(), mathutil.Missing()
		if !mathutil.IsMissing(factor) {
			accumulated *= factor
			legal *= mathutil.Max(factor, 1)
			accumulatedCell, legalCell = accumulated, legal
		}

		out.Dates = append(out.Dates, p.Date)
		out.Variacao = append(out.Variacao, rate)
		out.Fator = append(out.Fator, factor)
		out.FatorAcumulado = append(out.FatorAcumulado, accumulatedCell)
		out.FatorCorrecaoLegal = append(out.FatorCorrecaoLegal, legalCell)
	}

	return out, nil
}

// columnsOf lists the derived columns of d in canonical metric order.
func (d Derived) columnsOf() []dataset.Column {
	values := map[string][]float64{
		columns.TipoVariacao:           d.Variacao,
		columns.TipoFator:              d.Fator,
		columns.TipoFatorAcumulado:     d.FatorAcumulado,
		columns.TipoFatorCorrecaoLegal: d.FatorCorrecaoLegal,
	}
	out := make([]dataset.Column, 0, len(columns.Tipos))
	for _, tipo := range columns.Tipos {
		name, _ := columns.Name(d.Code, tipo)
		out = append(out, dataset.Column{Name: name, Values: values[tipo]})
	}
	return out
}

// Merge outer-joins the derived series on date. Dates are sorted ascending and
// a date missing from a series leaves that series' cells empty; rows that are
// empty everywhere are kept.
func Merge(derived []Derived) (*dataset.Table, error) {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, d := range derived {
		for _, date := range d.Dates {
			if _, ok := seen[date]; ok {
				continue
			}
			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	position := make(map[time.Time]int, len(dates))
	for i, date := range dates {
		position[date] = i
	}

	table := dataset.New(dates)
	for _, d := range derived {
		for _, c := range d.columnsOf() {
			values := make([]float64, len(dates))
			for i := range values {
				values[i] = mathutil.Missing()
			}
			for i, date := range d.Dates {
				values[position[date]] = c.Values[i]
			}
			if err := table.AddColumn(c.Name, values); err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}
