package rates

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kilianp07/fleeteffects/core/table"
)

var VehiclesTemplate = table.Template{
	Name:    "emission_rates_vehicles",
	Version: "0.2",
	Columns: []string{"start_year", "sourcetype_name", "reg_class_id", "in_use_fuel_id", "rate_name", "independent_variable", "slope_rate", "intercept_rate", "equation_rate"},
}

type vehicleKey struct {
	SourceType string
	RegClass   string
	Fuel       string
	Name       string
}

type cohort struct {
	startYear int
	rate      *Rate
}

type selectionKey struct {
	vehicleKey
	ModelYear int
}

// Vehicles holds per-cohort vehicle emission rates.
type Vehicles struct {
	rows  map[vehicleKey][]cohort
	cache *lru.Cache[selectionKey, *Rate]
}

// VehicleQuery identifies the vehicle being rated.
type VehicleQuery struct {
	SourceType string
	RegClass   string
	Fuel       string
	ModelYear  int
	Age        int
	Odometer   float64
}

// NewVehicles allocates an empty table with a selection cache of cacheSize
// entries.
func NewVehicles(cacheSize int) (*Vehicles, error) {
	if cacheSize <= 0 {
		cacheSize = 8192
	}
	c, err := lru.New[selectionKey, *Rate](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Vehicles{rows: map[vehicleKey][]cohort{}, cache: c}, nil
}

// Add inserts a rate for the cohort starting at startYear.
func (v *Vehicles) Add(startYear int, sourceType, regClass, fuel string, r *Rate) {
	k := vehicleKey{SourceType: sourceType, RegClass: regClass, Fuel: fuel, Name: r.Name}
	rows := append(v.rows[k], cohort{startYear: startYear, rate: r})
	sort.Slice(rows, func(i, j int) bool { return rows[i].startYear < rows[j].startYear })
	v.rows[k] = rows
	v.cache.Purge()
}

// VehiclesFromTable compiles every row of a vehicle rate table.
func VehiclesFromTable(t *table.Table) (*Vehicles, error) {
	v, err := NewVehicles(0)
	if err != nil {
		return nil, err
	}
	err = t.Each(func(r *table.Row) error {
		rate, err := NewRate(r.String("rate_name"), r.String("independent_variable"), r.String("equation_rate"),
			r.Float("slope_rate"), r.Float("intercept_rate"))
		if err != nil {
			return err
		}
		if rate.Variable == VarCalendarYear {
			return fmt.Errorf("vehicle rate %s: independent variable must be %s or %s", rate.Name, VarAge, VarOdometer)
		}
		v.Add(r.Int("start_year"), r.String("sourcetype_name"), r.String("reg_class_id"), r.String("in_use_fuel_id"), rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Select picks the row for a model year: the latest start_year not after it,
// else the earliest start_year.
func (v *Vehicles) Select(modelYear int, sourceType, regClass, fuel, name string) (*Rate, error) {
	k := selectionKey{vehicleKey: vehicleKey{SourceType: sourceType, RegClass: regClass, Fuel: fuel, Name: name}, ModelYear: modelYear}
	if r, ok := v.cache.Get(k); ok {
		return r, nil
	}
	rows := v.rows[k.vehicleKey]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s/%s/%s %s", ErrMissingRate, sourceType, regClass, fuel, name)
	}
	i := sort.Search(len(rows), func(i int) bool { return rows[i].startYear > modelYear })
	r := rows[0].rate
	if i > 0 {
		r = rows[i-1].rate
	}
	v.cache.Add(k, r)
	return r, nil
}

// Rates evaluates specs for q in order.
func (v *Vehicles) Rates(q VehicleQuery, specs []VehicleRateSpec) ([]float64, error) {
	out := make([]float64, len(specs))
	for i, s := range specs {
		r, err := v.Select(q.ModelYear, q.SourceType, q.RegClass, q.Fuel, s.Name)
		if err != nil {
			return nil, err
		}
		x := float64(q.Age)
		if r.Variable == VarOdometer {
			x = q.Odometer
		}
		out[i] = r.Eval(x)
	}
	return out, nil
}
