package benefits

import (
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/logger"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/summary"
)

// Calculator prices physical deltas.
type Calculator struct {
	SCC            *factors.SCC
	Criteria       *factors.Criteria
	EnergySecurity *factors.EnergySecurityFactors
	Matrix         Matrix
	Log            logger.Logger

	warned map[string]bool
}

func (c *Calculator) log() logger.Logger {
	if c.Log == nil {
		return logger.NopLogger{}
	}
	return c.Log
}

func (c *Calculator) warnOnce(key, format string, args ...any) {
	if c.warned == nil {
		c.warned = map[string]bool{}
	}
	if !c.warned[key] {
		c.warned[key] = true
		c.log().Warnf(format, args...)
	}
}

// HasCriteria reports whether criteria values can be monetized.
func (c *Calculator) HasCriteria() bool {
	return !c.Criteria.Empty() && len(c.Matrix.CriteriaRates) > 0 && len(c.Matrix.CriteriaStudies) > 0
}

// GHGVariants returns the configured variants the SC-GHG table carries for
// every gas in both scopes.
func (c *Calculator) GHGVariants() []string {
	var out []string
	for _, v := range c.Matrix.GHGVariants {
		ok := c.SCC != nil
		for _, gas := range GHGs {
			for _, scope := range Scopes {
				if ok && !c.SCC.Has(gas, scope, v) {
					ok = false
				}
			}
		}
		if !ok {
			c.warnOnce("scc:"+v, "social cost of GHG table has no %s columns, variant skipped", v)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Schema lists the benefit attributes with their embedded rates.
func (c *Calculator) Schema() Schema {
	var s Schema
	if c.HasCriteria() {
		for _, rate := range c.Matrix.CriteriaRates {
			r, _ := CriteriaRate(rate)
			for _, study := range c.Matrix.CriteriaStudies {
				for _, p := range CriteriaPollutants {
					for _, src := range Sources {
						s = append(s, Attribute{CriteriaColumn(p, src, study, rate), r})
					}
				}
				s = append(s, Attribute{CriteriaTotalColumn(study, rate), r})
			}
		}
	}
	for _, v := range c.GHGVariants() {
		r, _ := GHGRate(v)
		for _, scope := range Scopes {
			for _, gas := range GHGs {
				s = append(s, Attribute{GHGColumn(gas, scope, v), r})
			}
			s = append(s, Attribute{GHGTotalColumn(scope, v), r})
		}
	}
	s = append(s, Attribute{Name: ColEnergySecurity}, Attribute{Name: ColDriveValue})
	return s
}

// Benefits monetizes one action session. physicalDelta and costDelta are
// action minus no-action annual frames; a reduction in emissions yields a
// positive benefit.
func (c *Calculator) Benefits(physicalDelta, costDelta *summary.Frame) (*summary.Frame, Schema) {
	schema := c.Schema()
	out := summary.NewFrame(schema.Names())
	variants := c.GHGVariants()
	for _, d := range physicalDelta.Rows() {
		r := out.Row(d.Key)
		year := d.CalendarYear
		if c.HasCriteria() {
			c.criteria(r, d, year)
		}
		for _, v := range variants {
			for _, scope := range Scopes {
				total := 0.0
				for _, gas := range GHGs {
					usd, err := c.SCC.Value(year, gas, scope, v)
					if err != nil {
						c.warnOnce("scc:"+gas+scope+v, "%v", err)
						continue
					}
					b := -d.Values["total_"+gas+"_"+effects.Unit(gas)] * usd
					r.Values[GHGColumn(gas, scope, v)] = b
					total += b
				}
				r.Values[GHGTotalColumn(scope, v)] = total
			}
		}
		if c.EnergySecurity != nil {
			es := c.EnergySecurity.At(year)
			r.Values[ColEnergySecurity] = -d.Values["barrels_of_imported_oil"] * es.DollarsPerBbl
		}
	}
	if costDelta != nil {
		for _, d := range costDelta.Rows() {
			out.Row(d.Key).Values[ColDriveValue] = d.Values[effects.ColDriveValue]
		}
	}
	return out, schema
}

func (c *Calculator) criteria(r *summary.Row, d *summary.Row, year int) {
	vehicleSource := SourceID(d.RegClassID, d.InUseFuelID)
	for _, rate := range c.Matrix.CriteriaRates {
		for _, study := range c.Matrix.CriteriaStudies {
			total := 0.0
			for _, p := range CriteriaPollutants {
				for _, src := range Sources {
					id := src
					if src == "vehicle" {
						id = vehicleSource
					}
					usd, ok := c.Criteria.Value(year, id, p, study, rate)
					if !ok {
						c.warnOnce("criteria:"+id, "no criteria cost factors for source %q, monetized at zero", id)
						continue
					}
					b := -d.Values[src+"_"+p+"_"+effects.Unit(p)] * usd
					r.Values[CriteriaColumn(p, src, study, rate)] = b
					total += b
				}
			}
			r.Values[CriteriaTotalColumn(study, rate)] = total
		}
	}
}

// SourceID builds the vehicle source id of the criteria cost table from a reg
// class and a fuel mapping. Dual-fuel vehicles use their liquid fuel.
func SourceID(regClass, fuelMapping string) string {
	shares, err := model.ParseFuelShares(fuelMapping)
	if err != nil || len(shares) == 0 {
		return regClass + " " + fuelMapping
	}
	fuel := ""
	best := -1.0
	for _, s := range shares {
		if model.IsElectric(s.FuelID) {
			continue
		}
		if s.Share > best {
			fuel, best = s.FuelID, s.Share
		}
	}
	if fuel == "" {
		fuel = model.FuelElectricity
	}
	return regClass + " " + fuel
}
