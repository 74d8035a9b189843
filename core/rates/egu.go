package rates

import (
	"fmt"
	"sync"

	"github.com/kilianp07/fleeteffects/core/table"
)

// EGU cases.
const (
	CaseLowBound = "low_bound"
	CaseHighBEV  = "high_bev"
)

// EGU demand metric rate names.
const (
	KWhDemandMetric      = "kwh_demand_metric"
	KWhConsumptionMetric = "kwh_consumption_metric"
)

var EGUTemplate = table.Template{
	Name:    "emission_rates_egu",
	Version: "0.3",
	Columns: []string{"case", "rate_name", "independent_variable", "last_year", "slope_rate", "intercept_rate", "equation_rate"},
}

// EGU holds the low-bound and high-BEV power sector curves.
type EGU struct {
	low  map[string]*Rate
	high map[string]*Rate
}

// NewEGU checks that both cases carry the demand metrics.
func NewEGU(low, high map[string]*Rate) (*EGU, error) {
	for _, c := range []struct {
		name  string
		rates map[string]*Rate
	}{{CaseLowBound, low}, {CaseHighBEV, high}} {
		if _, ok := c.rates[KWhDemandMetric]; !ok {
			return nil, fmt.Errorf("%w: egu %s %s", ErrMissingRate, c.name, KWhDemandMetric)
		}
	}
	if _, ok := low[KWhConsumptionMetric]; !ok {
		return nil, fmt.Errorf("%w: egu %s %s", ErrMissingRate, CaseLowBound, KWhConsumptionMetric)
	}
	return &EGU{low: low, high: high}, nil
}

// EGUFromTable compiles every row of an EGU table.
func EGUFromTable(t *table.Table) (*EGU, error) {
	low, high := map[string]*Rate{}, map[string]*Rate{}
	err := t.Each(func(r *table.Row) error {
		rate, err := NewRate(r.String("rate_name"), r.String("independent_variable"), r.String("equation_rate"),
			r.Float("slope_rate"), r.Float("intercept_rate"))
		if err != nil {
			return err
		}
		rate.LastYear = r.Int("last_year")
		if rate.Variable != VarCalendarYear {
			return fmt.Errorf("egu rate %s: independent variable must be %s", rate.Name, VarCalendarYear)
		}
		switch c := r.String("case"); c {
		case CaseLowBound:
			low[rate.Name] = rate
		case CaseHighBEV:
			high[rate.Name] = rate
		default:
			return fmt.Errorf("egu rate %s: unknown case %q", rate.Name, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewEGU(low, high)
}

// Session returns a lookup with its own prior-year cache. Each session owns
// one so caches never leak across policies.
func (e *EGU) Session() *EGUSession {
	return &EGUSession{egu: e, cache: map[int]map[string]float64{}}
}

// EGUSession interpolates power sector rates against a session's demand.
type EGUSession struct {
	egu   *EGU
	mu    sync.Mutex
	cache map[int]map[string]float64
}

// Rates returns the interpolated g/kWh for names in calendar year, given the
// session's total kWh consumption. Results are cached per year on first
// request. Non-positive interpolations fall back to the prior year's cached
// rate, or zero.
func (s *EGUSession) Rates(year int, kwhSession float64, names []string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	yc, ok := s.cache[year]
	if !ok {
		yc = map[string]float64{}
		s.cache[year] = yc
	}
	out := make([]float64, len(names))
	var demandLow, consumptionLow, demandHigh float64
	haveDemand := false
	for i, name := range names {
		if v, ok := yc[name]; ok {
			out[i] = v
			continue
		}
		lo, ok := s.egu.low[name]
		if !ok {
			return nil, fmt.Errorf("%w: egu %s %s", ErrMissingRate, CaseLowBound, name)
		}
		hi, ok := s.egu.high[name]
		if !ok {
			return nil, fmt.Errorf("%w: egu %s %s", ErrMissingRate, CaseHighBEV, name)
		}
		if !haveDemand {
			demandLow = s.egu.low[KWhDemandMetric].EvalYear(year)
			consumptionLow = s.egu.low[KWhConsumptionMetric].EvalYear(year)
			demandHigh = s.egu.high[KWhDemandMetric].EvalYear(year)
			haveDemand = true
		}
		national := kwhSession + (demandLow - consumptionLow)
		v := Interpolate(lo.EvalYear(year), hi.EvalYear(year), demandLow, demandHigh, national)
		if !(v > 0) {
			v = s.cache[year-1][name]
		}
		yc[name] = v
		out[i] = v
	}
	return out, nil
}

// Interpolate places x on the [demandLow, demandHigh] axis between the low
// and high rates. Equal demands return the low rate.
func Interpolate(low, high, demandLow, demandHigh, x float64) float64 {
	if demandLow == demandHigh {
		return low
	}
	return low - (demandLow-x)*(low-high)/(demandLow-demandHigh)
}
