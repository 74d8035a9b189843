package effects

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/rates"
)

// VehiclePollutants are the tailpipe and non-exhaust species tallied per row.
var VehiclePollutants = []string{
	rates.VOC, rates.CO, rates.NOx, rates.PM25, rates.SOx, rates.CO2, rates.CH4, rates.N2O,
	rates.Acetaldehyde, rates.Acrolein, rates.Benzene, rates.Ethylbenzene, rates.Formaldehyde,
	rates.Naphthalene, rates.Butadiene13, rates.PAH15,
}

// FuelUse is the travel and consumption of one fuel of a row.
type FuelUse struct {
	FuelID  string
	VMT     float64
	Gallons float64
	KWh     float64
}

// Tally maps a pollutant to tons; US tons except for metric-ton pollutants.
type Tally map[string]float64

func (t Tally) add(p string, v float64) { t[p] += v }

// Unit returns the reporting unit suffix of a pollutant.
func Unit(pollutant string) string {
	if rates.MetricTonPollutants[pollutant] {
		return "metrictons"
	}
	return "ustons"
}

// PhysicalRow is the physical effect of one vehicle in one calendar year.
type PhysicalRow struct {
	Identity
	Vehicle *model.Vehicle

	FuelCPM        float64
	ContextFuelCPM float64

	OnroadDirectCO2eGramsPerMile float64
	OnroadDirectKWhPerMile       float64
	VMTLiquidFuel                float64
	VMTElectricity               float64
	FuelConsumptionGallons       float64
	FuelConsumptionKWh           float64
	FuelGenerationKWh            float64
	BatteryKWh                   float64
	BarrelsOfOil                 float64
	BarrelsOfImportedOil         float64
	SessionFatalities            float64
	CurbweightLbs                float64

	Fuels    []FuelUse
	Tailpipe Tally
	Refinery Tally
	EGU      Tally
}

func (r *PhysicalRow) Ident() *Identity { return &r.Identity }

// Fields renders pollutant tallies as <source>_<pollutant>_<unit> plus the
// totals.
func (r *PhysicalRow) Fields() []Field {
	f := append(r.travelFields(),
		Field{"onroad_direct_co2e_grams_per_mile", r.OnroadDirectCO2eGramsPerMile},
		Field{"onroad_direct_kwh_per_mile", r.OnroadDirectKWhPerMile},
		Field{"vmt_liquid_fuel", r.VMTLiquidFuel},
		Field{"vmt_electricity", r.VMTElectricity},
		Field{"fuel_consumption_gallons", r.FuelConsumptionGallons},
		Field{"fuel_consumption_kwh", r.FuelConsumptionKWh},
		Field{"fuel_generation_kwh", r.FuelGenerationKWh},
		Field{"battery_kwh", r.BatteryKWh},
		Field{"barrels_of_oil", r.BarrelsOfOil},
		Field{"barrels_of_imported_oil", r.BarrelsOfImportedOil},
		Field{"session_fatalities", r.SessionFatalities},
		Field{"curbweight_lbs", r.CurbweightLbs},
	)
	for _, p := range VehiclePollutants {
		f = append(f, Field{"vehicle_" + p + "_" + Unit(p), r.Tailpipe[p]})
	}
	for _, p := range rates.UpstreamPollutants {
		f = append(f, Field{"refinery_" + p + "_" + Unit(p), r.Refinery[p]})
	}
	for _, p := range rates.EGUPollutants {
		f = append(f, Field{"egu_" + p + "_" + Unit(p), r.EGU[p]})
	}
	for _, p := range rates.EGUPollutants {
		f = append(f, Field{"upstream_" + p + "_" + Unit(p), r.Refinery[p] + r.EGU[p]})
	}
	for _, p := range TotalPollutants {
		f = append(f, Field{"total_" + p + "_" + Unit(p), r.Total(p)})
	}
	return f
}

// TotalPollutants are reported as vehicle plus upstream totals.
var TotalPollutants = []string{rates.VOC, rates.CO, rates.NOx, rates.PM25, rates.SOx, rates.CO2, rates.CH4, rates.N2O}

// Total is vehicle + refinery + EGU tons of pollutant.
func (r *PhysicalRow) Total(p string) float64 {
	return r.Tailpipe[p] + r.Refinery[p] + r.EGU[p]
}

// SessionKWh sums analysis-fleet electricity consumption per calendar year.
// Legacy vehicles are excluded from the power sector demand.
func (c *Calculator) SessionKWh(rows []model.AnnualDatum) (map[int]float64, error) {
	out := map[int]float64{}
	for _, d := range rows {
		v, err := c.vehicle(d.VehicleID)
		if err != nil {
			return nil, err
		}
		if v.IsLegacy() {
			continue
		}
		share := v.InUseFuel.Share(model.FuelElectricity)
		if share == 0 {
			continue
		}
		out[d.CalendarYear] += d.VMT * share * v.OnroadDirectKWhPerMile
	}
	return out, nil
}

// Physical runs the two passes over rows: the session's kWh per year selects
// the power sector rates, then every row accumulates its inventories. Rows
// for vehicles without on-road intensity are omitted.
func (c *Calculator) Physical(rows []model.AnnualDatum, safety []SafetyRow) ([]PhysicalRow, error) {
	c.log().Infof("Calculating physical effects for %s", c.SessionName)
	fatalities := make(map[model.YearKey]float64, len(safety))
	for _, s := range safety {
		fatalities[model.YearKey{VehicleID: s.VehicleID, CalendarYear: s.CalendarYear}] = s.SessionFatalities
	}
	kwh, err := c.SessionKWh(rows)
	if err != nil {
		return nil, err
	}
	eguNames := make([]string, len(rates.EGUPollutants))
	for i, p := range rates.EGUPollutants {
		eguNames[i] = rates.EGURateName(p)
	}
	refineryNames := make([]string, len(rates.UpstreamPollutants))
	for i, p := range rates.UpstreamPollutants {
		refineryNames[i] = rates.RefineryRateName(p)
	}

	byYear := map[int][]model.AnnualDatum{}
	var years []int
	for _, d := range rows {
		if _, ok := byYear[d.CalendarYear]; !ok {
			years = append(years, d.CalendarYear)
		}
		byYear[d.CalendarYear] = append(byYear[d.CalendarYear], d)
	}
	sort.Ints(years)

	out := make([]PhysicalRow, 0, len(rows))
	for _, year := range years {
		elec, err := c.Inputs.Onroad.Get(model.FuelElectricity, year)
		if err != nil {
			return nil, err
		}
		generation := kwh[year] / elec.TransmissionEfficiency
		egu, err := c.EGU.Rates(year, generation, eguNames)
		if err != nil {
			return nil, err
		}
		c.log().Debugf("%s %d: session generation %.4g kWh", c.SessionName, year, generation)
		for _, d := range byYear[year] {
			v, err := c.vehicle(d.VehicleID)
			if err != nil {
				return nil, err
			}
			if !v.HasOnroadIntensity() {
				continue
			}
			r, err := c.physicalRow(v, d, egu, refineryNames)
			if err != nil {
				return nil, fmt.Errorf("vehicle %s year %d: %w", v.ID, year, err)
			}
			r.SessionFatalities = fatalities[d.Key()]
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Calculator) physicalRow(v *model.Vehicle, d model.AnnualDatum, egu []float64, refineryNames []string) (PhysicalRow, error) {
	g := c.Inputs.General
	r := PhysicalRow{
		Identity:                     NewIdentity(c.Policy, c.SessionName, v, d),
		Vehicle:                      v,
		FuelCPM:                      d.FuelCPM,
		ContextFuelCPM:               d.ContextFuelCPM,
		OnroadDirectCO2eGramsPerMile: v.OnroadDirectCO2eGramsPerMile,
		OnroadDirectKWhPerMile:       v.OnroadDirectKWhPerMile,
		CurbweightLbs:                v.CurbweightLbs,
		Tailpipe:                     Tally{},
		Refinery:                     Tally{},
		EGU:                          Tally{},
	}
	if d.Age == 0 {
		r.BatteryKWh = v.BatteryKWh * d.RegisteredCount
	}
	grams := Tally{}
	refinery := Tally{}
	eguGrams := Tally{}
	for _, fs := range v.InUseFuel {
		use := FuelUse{FuelID: fs.FuelID, VMT: d.VMT * fs.Share}
		props, err := c.Inputs.Onroad.Get(fs.FuelID, d.CalendarYear)
		if err != nil {
			return r, err
		}
		q := rates.VehicleQuery{
			SourceType: v.SourceType(), RegClass: v.RegClassID, Fuel: fs.FuelID,
			ModelYear: v.ModelYear, Age: d.Age, Odometer: d.Odometer,
		}
		specs := rates.RatesForFuel(fs.FuelID)
		vr, err := c.Inputs.VehicleRates.Rates(q, specs)
		if err != nil {
			return r, err
		}
		if model.IsElectric(fs.FuelID) {
			use.KWh = use.VMT * v.OnroadDirectKWhPerMile
			r.VMTElectricity += use.VMT
			r.FuelConsumptionKWh += use.KWh
			generation := use.KWh / props.TransmissionEfficiency
			r.FuelGenerationKWh += generation
			for i, p := range rates.EGUPollutants {
				eguGrams.add(p, egu[i]*generation)
			}
		} else {
			gpm := v.OnroadDirectCO2eGramsPerMile / (props.DirectCO2eGramsPerUnit / props.RefuelEfficiency)
			use.Gallons = use.VMT * gpm / props.TransmissionEfficiency
			r.VMTLiquidFuel += use.VMT
			r.FuelConsumptionGallons += use.Gallons
			grams.add(rates.CO2, use.VMT*v.OnroadDirectCO2eGramsPerMile)

			rr, err := c.Refinery.Rates(d.CalendarYear, fs.FuelID, refineryNames)
			if err != nil {
				return r, err
			}
			for i, p := range rates.UpstreamPollutants {
				refinery.add(p, rr[i]*use.Gallons*g.RefiningReduction)
			}

			pure, density := 1.0, g.DieselEnergyDensityRatio
			if fs.FuelID == model.FuelGasoline {
				pure, density = g.E0InRetailGasoline, g.E0EnergyDensityRatio
			}
			bbl := use.Gallons * pure * density / g.GalPerBbl
			r.BarrelsOfOil += bbl
			if c.Inputs.EnergySecurity != nil {
				r.BarrelsOfImportedOil += bbl * c.Inputs.EnergySecurity.At(d.CalendarYear).ImportShare
			}
		}
		for i, s := range specs {
			if s.PerGallon {
				grams.add(s.Pollutant, vr[i]*use.Gallons)
			} else {
				grams.add(s.Pollutant, vr[i]*use.VMT)
			}
		}
		r.Fuels = append(r.Fuels, use)
	}
	convert := func(dst, src Tally) {
		for p, grams := range src {
			if rates.MetricTonPollutants[p] {
				dst[p] = grams / g.GramsPerMetricTon
			} else {
				dst[p] = grams / g.GramsPerUSTon
			}
		}
	}
	convert(r.Tailpipe, grams)
	convert(r.Refinery, refinery)
	convert(r.EGU, eguGrams)
	return r, nil
}
