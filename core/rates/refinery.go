package rates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/fleeteffects/core/table"
)

// Refinery returns upstream g/gallon rates for a calendar year and fuel.
type Refinery interface {
	Rates(year int, fuelID string, names []string) ([]float64, error)
}

var RefineryTemplate = table.Template{
	Name:    "emission_rates_refinery",
	Version: "0.1",
	Columns: []string{"rate_name", "independent_variable", "last_year", "slope_rate", "intercept_rate", "equation_rate"},
}

var RefineryFactorsTemplate = table.Template{
	Name:    "emission_factors_refinery",
	Version: "0.2",
	Columns: []string{"calendar_year", "in_use_fuel_id"},
}

// RefineryEquations evaluates calendar-year equations capped at each row's
// last_year. The same rate applies to every liquid fuel.
type RefineryEquations struct {
	rates map[string]*Rate
}

// RefineryEquationsFromTable compiles a refinery rate table.
func RefineryEquationsFromTable(t *table.Table) (*RefineryEquations, error) {
	out := &RefineryEquations{rates: map[string]*Rate{}}
	err := t.Each(func(r *table.Row) error {
		rate, err := NewRate(r.String("rate_name"), r.String("independent_variable"), r.String("equation_rate"),
			r.Float("slope_rate"), r.Float("intercept_rate"))
		if err != nil {
			return err
		}
		rate.LastYear = r.Int("last_year")
		out.rates[rate.Name] = rate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NewRefineryEquations wraps precompiled rates.
func NewRefineryEquations(rates ...*Rate) *RefineryEquations {
	out := &RefineryEquations{rates: map[string]*Rate{}}
	for _, r := range rates {
		out.rates[r.Name] = r
	}
	return out
}

func (e *RefineryEquations) Rates(year int, _ string, names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		r, ok := e.rates[n]
		if !ok {
			return nil, fmt.Errorf("%w: refinery %s", ErrMissingRate, n)
		}
		out[i] = r.EvalYear(year)
	}
	return out, nil
}

// RefineryFactors is the tabulated alternative keyed by (calendar_year, fuel).
// Years between rows use the latest earlier row; years outside are clamped.
type RefineryFactors struct {
	years  map[string][]int
	values map[string]map[int]map[string]float64
}

// RefineryFactorsFromTable reads every *_grams_per_gallon column.
func RefineryFactorsFromTable(t *table.Table) (*RefineryFactors, error) {
	var cols []string
	for _, c := range t.Columns() {
		if strings.HasSuffix(c, "_grams_per_gallon") {
			cols = append(cols, c)
		}
	}
	out := &RefineryFactors{years: map[string][]int{}, values: map[string]map[int]map[string]float64{}}
	err := t.Each(func(r *table.Row) error {
		fuel := r.String("in_use_fuel_id")
		year := r.Int("calendar_year")
		if out.values[fuel] == nil {
			out.values[fuel] = map[int]map[string]float64{}
		}
		row := map[string]float64{}
		for _, c := range cols {
			row[c] = r.Float(c)
		}
		if _, dup := out.values[fuel][year]; !dup {
			out.years[fuel] = append(out.years[fuel], year)
		}
		out.values[fuel][year] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	for f := range out.years {
		sort.Ints(out.years[f])
	}
	return out, nil
}

func (f *RefineryFactors) Rates(year int, fuelID string, names []string) ([]float64, error) {
	years := f.years[fuelID]
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: refinery factors for %s", ErrMissingRate, fuelID)
	}
	i := sort.SearchInts(years, year+1)
	y := years[0]
	if i > 0 {
		y = years[i-1]
	}
	row := f.values[fuelID][y]
	out := make([]float64, len(names))
	for k, n := range names {
		v, ok := row[n]
		if !ok {
			return nil, fmt.Errorf("%w: refinery factor %s", ErrMissingRate, n)
		}
		out[k] = v
	}
	return out, nil
}
