// Package deflators normalizes monetary inputs to a single analysis dollar
// basis. Two series are used by a batch: implicit price deflators for most
// cost factors and CPI deflators for criteria-pollutant cost factors.
package deflators

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/fleeteffects/core/table"
)

// ErrMissingDeflator is returned for years before the first tabulated year.
var ErrMissingDeflator = errors.New("missing deflator")

var (
	ImplicitPriceTemplate = table.Template{
		Name:    "context_implicit_price_deflators",
		Version: "0.22",
		Columns: []string{"calendar_year", "price_deflator"},
	}
	CPITemplate = table.Template{
		Name:    "context_cpi_price_deflators",
		Version: "0.22",
		Columns: []string{"calendar_year", "price_deflator"},
	}
)

// Deflators is a calendar-year keyed price index.
type Deflators struct {
	name   string
	years  []int
	values map[int]decimal.Decimal

	mu    sync.Mutex
	cache map[int]decimal.Decimal
}

// New builds a series from year/value pairs.
func New(name string, values map[int]float64) (*Deflators, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: no deflator rows", name)
	}
	d := &Deflators{name: name, values: make(map[int]decimal.Decimal, len(values)), cache: map[int]decimal.Decimal{}}
	for y, v := range values {
		if v <= 0 {
			return nil, fmt.Errorf("%s: deflator for %d must be positive, got %g", name, y, v)
		}
		d.years = append(d.years, y)
		d.values[y] = decimal.NewFromFloat(v)
	}
	sort.Ints(d.years)
	return d, nil
}

// FromTable reads a deflator table.
func FromTable(t *table.Table) (*Deflators, error) {
	values := map[int]float64{}
	err := t.Each(func(r *table.Row) error {
		values[r.Int("calendar_year")] = r.Float("price_deflator")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(t.Template.Name, values)
}

// Name identifies the series in messages.
func (d *Deflators) Name() string { return d.name }

func (d *Deflators) lookup(year int) (decimal.Decimal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.cache[year]; ok {
		return v, nil
	}
	i := sort.Search(len(d.years), func(i int) bool { return d.years[i] > year })
	if i == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s has no value at or before %d (first year %d)", ErrMissingDeflator, d.name, year, d.years[0])
	}
	v := d.values[d.years[i-1]]
	d.cache[year] = v
	return v, nil
}

// PriceDeflator returns the deflator of the latest tabulated year not after
// year.
func (d *Deflators) PriceDeflator(year int) (float64, error) {
	v, err := d.lookup(year)
	if err != nil {
		return 0, err
	}
	return v.InexactFloat64(), nil
}

// Factor returns deflator(analysisBasis) / deflator(basisIn).
func (d *Deflators) Factor(analysisBasis, basisIn int) (float64, error) {
	num, err := d.lookup(analysisBasis)
	if err != nil {
		return 0, err
	}
	den, err := d.lookup(basisIn)
	if err != nil {
		return 0, err
	}
	return num.DivRound(den, 16).InexactFloat64(), nil
}

// Adjust rescales values from *dollarBasis to analysisBasis and rewrites the
// basis. A zero basis marks dimensionless or already-adjusted values and is
// left untouched, which also makes a second call a no-op.
func (d *Deflators) Adjust(dollarBasis *int, analysisBasis int, values ...*float64) error {
	if *dollarBasis <= 0 || *dollarBasis == analysisBasis {
		if *dollarBasis > 0 {
			*dollarBasis = analysisBasis
		}
		return nil
	}
	f, err := d.Factor(analysisBasis, *dollarBasis)
	if err != nil {
		return err
	}
	for _, v := range values {
		*v *= f
	}
	*dollarBasis = analysisBasis
	return nil
}

// Row is a generic monetary row keyed by column name.
type Row struct {
	DollarBasis int
	Values      map[string]float64
}

// AdjustRows applies Adjust to the named columns of every row.
func (d *Deflators) AdjustRows(rows []Row, analysisBasis int, columns ...string) error {
	for i := range rows {
		r := &rows[i]
		if r.DollarBasis <= 0 {
			continue
		}
		f := 1.0
		if r.DollarBasis != analysisBasis {
			var err error
			if f, err = d.Factor(analysisBasis, r.DollarBasis); err != nil {
				return err
			}
		}
		for _, c := range columns {
			if v, ok := r.Values[c]; ok {
				r.Values[c] = v * f
			}
		}
		r.DollarBasis = analysisBasis
	}
	return nil
}
