package fuels

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/table"
)

var PricesTemplate = table.Template{
	Name:    "context_fuel_prices",
	Version: "0.2",
	Columns: []string{"context_id", "dollar_basis", "case_id", "fuel_id", "calendar_year", "retail_dollars_per_unit", "pretax_dollars_per_unit"},
}

// Price is the retail and pretax cost of one unit of fuel.
type Price struct {
	Retail float64
	Pretax float64
}

// Tax is retail minus pretax.
func (p Price) Tax() float64 { return p.Retail - p.Pretax }

type priceKey struct {
	fuel string
	year int
}

// Prices are the context fuel prices of one (context, case), in analysis
// dollars.
type Prices struct {
	years  map[string][]int
	values map[priceKey]Price
	cache  *lru.Cache[priceKey, Price]
}

// NewPrices indexes a (fuel, year) → price map.
func NewPrices(values map[string]map[int]Price) (*Prices, error) {
	c, err := lru.New[priceKey, Price](4096)
	if err != nil {
		return nil, err
	}
	p := &Prices{years: map[string][]int{}, values: map[priceKey]Price{}, cache: c}
	for fuel, byYear := range values {
		for y, v := range byYear {
			p.years[fuel] = append(p.years[fuel], y)
			p.values[priceKey{fuel, y}] = v
		}
		sort.Ints(p.years[fuel])
	}
	return p, nil
}

// PricesFromTable reads rows for contextID/caseID and rescales them to
// analysisBasis.
func PricesFromTable(t *table.Table, contextID, caseID string, defl *deflators.Deflators, analysisBasis int) (*Prices, error) {
	values := map[string]map[int]Price{}
	err := t.Each(func(r *table.Row) error {
		if r.String("context_id") != contextID || r.String("case_id") != caseID {
			return nil
		}
		basis := r.Int("dollar_basis")
		p := Price{Retail: r.Float("retail_dollars_per_unit"), Pretax: r.Float("pretax_dollars_per_unit")}
		if err := defl.Adjust(&basis, analysisBasis, &p.Retail, &p.Pretax); err != nil {
			return err
		}
		fuel := r.String("fuel_id")
		if values[fuel] == nil {
			values[fuel] = map[int]Price{}
		}
		values[fuel][r.Int("calendar_year")] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: no rows for context %q case %q", PricesTemplate.Name, contextID, caseID)
	}
	return NewPrices(values)
}

// Get returns the price for fuel in year, clamping year to the tabulated
// range.
func (p *Prices) Get(fuelID string, year int) (Price, error) {
	k := priceKey{fuelID, year}
	if v, ok := p.cache.Get(k); ok {
		return v, nil
	}
	years := p.years[fuelID]
	if len(years) == 0 {
		return Price{}, fmt.Errorf("%w: %q in %s", ErrUnknownFuel, fuelID, PricesTemplate.Name)
	}
	y := year
	if y < years[0] {
		y = years[0]
	}
	if y > years[len(years)-1] {
		y = years[len(years)-1]
	}
	v, ok := p.values[priceKey{fuelID, y}]
	if !ok {
		i := sort.SearchInts(years, y)
		v = p.values[priceKey{fuelID, years[i-1]}]
	}
	p.cache.Add(k, v)
	return v, nil
}
