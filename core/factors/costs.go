package factors

import (
	"fmt"
	"strings"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/table"
)

var (
	CongestionNoiseTemplate = table.Template{
		Name:    "cost_factors_congestion_noise",
		Version: "0.1",
		Columns: []string{"reg_class_id", "dollar_basis", "congestion_cost_dollars_per_mile", "noise_cost_dollars_per_mile"},
	}
	EnergySecurityTemplate = table.Template{
		Name:    "cost_factors_energysecurity",
		Version: "0.3",
		Columns: []string{"calendar_year", "dollar_basis", "dollars_per_bbl", "oil_import_reduction_as_percent_of_total_oil_demand_reduction"},
	}
	SCCTemplate = table.Template{
		Name:    "cost_factors_scc",
		Version: "0.2",
		Columns: []string{"calendar_year", "dollar_basis"},
	}
	CriteriaTemplate = table.Template{
		Name:    "cost_factors_criteria",
		Version: "0.4",
		Columns: []string{"calendar_year", "source_id", "dollar_basis"},
	}
	PowertrainCostTemplate = table.Template{
		Name:    "powertrain_cost",
		Version: "0.1",
		Columns: []string{"powertrain_type", "item", "value", "dollar_basis"},
	}
)

// CongestionNoise is the external cost per mile of a regulatory class.
type CongestionNoise struct {
	CongestionPerMile float64
	NoisePerMile      float64
}

// CongestionNoiseFromTable reads the table in analysis dollars.
func CongestionNoiseFromTable(t *table.Table, d *deflators.Deflators, basis int) (map[string]CongestionNoise, error) {
	out := map[string]CongestionNoise{}
	err := t.Each(func(r *table.Row) error {
		db := r.Int("dollar_basis")
		c := CongestionNoise{CongestionPerMile: r.Float("congestion_cost_dollars_per_mile"), NoisePerMile: r.Float("noise_cost_dollars_per_mile")}
		if err := d.Adjust(&db, basis, &c.CongestionPerMile, &c.NoisePerMile); err != nil {
			return err
		}
		out[r.String("reg_class_id")] = c
		return nil
	})
	return out, err
}

// EnergySecurity is the oil import externality of a calendar year.
type EnergySecurity struct {
	DollarsPerBbl float64
	ImportShare   float64
}

// EnergySecurityFactors is keyed by calendar year.
type EnergySecurityFactors struct{ s *yearSeries[EnergySecurity] }

// EnergySecurityFromTable reads the table in analysis dollars.
func EnergySecurityFromTable(t *table.Table, d *deflators.Deflators, basis int) (*EnergySecurityFactors, error) {
	s := newYearSeries[EnergySecurity]()
	err := t.Each(func(r *table.Row) error {
		db := r.Int("dollar_basis")
		e := EnergySecurity{
			DollarsPerBbl: r.Float("dollars_per_bbl"),
			ImportShare:   r.Float("oil_import_reduction_as_percent_of_total_oil_demand_reduction"),
		}
		if err := d.Adjust(&db, basis, &e.DollarsPerBbl); err != nil {
			return err
		}
		s.set(r.Int("calendar_year"), e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &EnergySecurityFactors{s: s}, nil
}

// NewEnergySecurityFactors builds factors from a year map.
func NewEnergySecurityFactors(values map[int]EnergySecurity) *EnergySecurityFactors {
	s := newYearSeries[EnergySecurity]()
	for y, v := range values {
		s.set(y, v)
	}
	return &EnergySecurityFactors{s: s}
}

// At returns the factors in effect for year.
func (e *EnergySecurityFactors) At(year int) EnergySecurity {
	v, _ := e.s.at(year)
	return v
}

// monetary is a year (and optional source) keyed set of value columns.
type monetary struct {
	bySource map[string]*yearSeries[map[string]float64]
	columns  []string
}

func readMonetary(t *table.Table, sourceCol, suffix string, d *deflators.Deflators, basis int) (*monetary, error) {
	m := &monetary{bySource: map[string]*yearSeries[map[string]float64]{}}
	for _, c := range t.Columns() {
		if strings.HasSuffix(c, suffix) {
			m.columns = append(m.columns, c)
		}
	}
	err := t.Each(func(r *table.Row) error {
		db := r.Int("dollar_basis")
		raw := make([]float64, len(m.columns))
		ptrs := make([]*float64, len(m.columns))
		for i, c := range m.columns {
			raw[i] = r.Float(c)
			ptrs[i] = &raw[i]
		}
		if err := d.Adjust(&db, basis, ptrs...); err != nil {
			return err
		}
		vals := make(map[string]float64, len(m.columns))
		for i, c := range m.columns {
			vals[c] = raw[i]
		}
		src := ""
		if sourceCol != "" {
			src = r.String(sourceCol)
		}
		if m.bySource[src] == nil {
			m.bySource[src] = newYearSeries[map[string]float64]()
		}
		m.bySource[src].set(r.Int("calendar_year"), vals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *monetary) value(year int, source, column string) (float64, bool) {
	s, ok := m.bySource[source]
	if !ok {
		return 0, false
	}
	row, ok := s.at(year)
	if !ok {
		return 0, false
	}
	v, ok := row[column]
	return v, ok
}

// SCC holds social cost of GHG values in $/metric ton.
type SCC struct{ m *monetary }

// SCCColumn names a social cost of GHG column, e.g. co2_global_3.0_USD_per_metricton.
func SCCColumn(gas, scope, variant string) string {
	return gas + "_" + scope + "_" + variant + "_USD_per_metricton"
}

// SCCFromTable reads the table in analysis dollars.
func SCCFromTable(t *table.Table, d *deflators.Deflators, basis int) (*SCC, error) {
	m, err := readMonetary(t, "", "_USD_per_metricton", d, basis)
	if err != nil {
		return nil, err
	}
	return &SCC{m: m}, nil
}

// Value returns $/metric ton for gas/scope/variant in year.
func (s *SCC) Value(year int, gas, scope, variant string) (float64, error) {
	col := SCCColumn(gas, scope, variant)
	v, ok := s.m.value(year, "", col)
	if !ok {
		return 0, fmt.Errorf("%s: no column %s", SCCTemplate.Name, col)
	}
	return v, nil
}

// Has reports whether the table carries a column.
func (s *SCC) Has(gas, scope, variant string) bool {
	col := SCCColumn(gas, scope, variant)
	for _, c := range s.m.columns {
		if c == col {
			return true
		}
	}
	return false
}

// Criteria holds criteria pollutant $/US ton by source id.
type Criteria struct{ m *monetary }

// CriteriaColumn names a criteria cost column, e.g. pm25_Wu_3.0_USD_per_uston.
func CriteriaColumn(pollutant, study, rate string) string {
	return pollutant + "_" + study + "_" + rate + "_USD_per_uston"
}

// CriteriaFromTable reads the table in analysis dollars using the CPI series.
func CriteriaFromTable(t *table.Table, cpi *deflators.Deflators, basis int) (*Criteria, error) {
	m, err := readMonetary(t, "source_id", "_USD_per_uston", cpi, basis)
	if err != nil {
		return nil, err
	}
	return &Criteria{m: m}, nil
}

// Value returns $/US ton. ok is false when the source id or column is absent.
func (c *Criteria) Value(year int, sourceID, pollutant, study, rate string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.m.value(year, sourceID, CriteriaColumn(pollutant, study, rate))
}

// Empty reports whether no criteria values were supplied.
func (c *Criteria) Empty() bool { return c == nil || len(c.m.columns) == 0 }

// PowertrainCosts holds per-powertrain battery schedules in $/kWh.
type PowertrainCosts struct {
	BatteryCostPerKWh map[string]YearSchedule
	BatteryOffset     map[string]YearSchedule
}

// PowertrainCostsFromTable parses the dict-literal values once and rescales
// them to analysis dollars.
func PowertrainCostsFromTable(t *table.Table, d *deflators.Deflators, basis int) (*PowertrainCosts, error) {
	out := &PowertrainCosts{BatteryCostPerKWh: map[string]YearSchedule{}, BatteryOffset: map[string]YearSchedule{}}
	err := t.Each(func(r *table.Row) error {
		sched, err := ParseYearSchedule(r.String("value"))
		if err != nil {
			return err
		}
		db := r.Int("dollar_basis")
		if db > 0 {
			f, err := d.Factor(basis, db)
			if err != nil {
				return err
			}
			sched = sched.Scale(f)
		}
		pt := r.String("powertrain_type")
		switch item := r.String("item"); item {
		case "battery_cost_per_kwh":
			out.BatteryCostPerKWh[pt] = sched
		case "battery_offset":
			out.BatteryOffset[pt] = sched
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatteryCost returns $/kWh for a powertrain in model year.
func (p *PowertrainCosts) BatteryCost(powertrain string, modelYear int) float64 {
	if p == nil {
		return 0
	}
	return p.BatteryCostPerKWh[powertrain].At(modelYear)
}

// BatteryCredit returns the $/kWh offset for a powertrain in model year.
func (p *PowertrainCosts) BatteryCredit(powertrain string, modelYear int) float64 {
	if p == nil {
		return 0
	}
	return p.BatteryOffset[powertrain].At(modelYear)
}
