package vmt

import (
	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/model"
)

// Rebound applies the fuel cost elasticity of travel.
type Rebound struct {
	Prices  *fuels.Prices
	Onroad  *fuels.Onroad
	RateICE float64
	RateBEV float64
}

// GallonsPerMile converts an on-road CO2e intensity into fuel per mile.
func GallonsPerMile(co2GramsPerMile float64, props fuels.Properties) float64 {
	if props.DirectCO2eGramsPerUnit == 0 {
		return 0
	}
	return co2GramsPerMile / (props.DirectCO2eGramsPerUnit / props.RefuelEfficiency)
}

// CPM is the retail fuel cost per mile of v in calendar year.
func (r Rebound) CPM(v *model.Vehicle, year int) (float64, error) {
	cpm := 0.0
	for _, fs := range v.InUseFuel {
		price, err := r.Prices.Get(fs.FuelID, year)
		if err != nil {
			return 0, err
		}
		if model.IsElectric(fs.FuelID) {
			cpm += fs.Share * price.Retail * v.OnroadDirectKWhPerMile
			continue
		}
		props, err := r.Onroad.Get(fs.FuelID, year)
		if err != nil {
			return 0, err
		}
		cpm += fs.Share * price.Retail * GallonsPerMile(v.OnroadDirectCO2eGramsPerMile, props)
	}
	return cpm, nil
}

// CPMKey builds the snapshot key of a vehicle at an age.
func CPMKey(v *model.Vehicle, age int) model.CPMKey {
	return model.CPMKey{BaseYearVehicleID: v.BaseYearVehicleID, Powertrain: v.BaseYearPowertrainType, ModelYear: v.ModelYear, Age: age}
}

// Snapshot records the reference session's cost per mile. The first value
// stored for a key is kept.
func (r Rebound) Snapshot(reg fleet.Registry, rows []model.AnnualDatum) (model.CPMSnapshot, error) {
	snap := model.CPMSnapshot{}
	for _, d := range rows {
		v, ok := reg[d.VehicleID]
		if !ok || v.IsLegacy() {
			continue
		}
		k := CPMKey(v, d.Age)
		if _, seen := snap[k]; seen {
			continue
		}
		cpm, err := r.CPM(v, d.CalendarYear)
		if err != nil {
			return nil, err
		}
		snap[k] = cpm
	}
	return snap, nil
}

// Effect is rate * (cpm - contextCPM) / contextCPM, zero without a context
// value.
func (r Rebound) Effect(v *model.Vehicle, cpm float64, contextCPM float64, ok bool) float64 {
	if !ok || contextCPM == 0 {
		return 0
	}
	rate := r.RateICE
	if v.InUseFuel.IsPureElectric() {
		rate = r.RateBEV
	}
	return rate * (cpm - contextCPM) / contextCPM
}

// Apply returns calibrated analysis-fleet rows with the rebound added and
// odometers recomputed from the rebound-adjusted annual miles.
func (r Rebound) Apply(reg fleet.Registry, rows []model.AnnualDatum, snap model.CPMSnapshot) ([]model.AnnualDatum, error) {
	out := make([]model.AnnualDatum, len(rows))
	copy(out, rows)
	for i := range out {
		d := &out[i]
		v, ok := reg[d.VehicleID]
		if !ok || v.IsLegacy() || d.Age < 0 {
			continue
		}
		cpm, err := r.CPM(v, d.CalendarYear)
		if err != nil {
			return nil, err
		}
		ctxCPM, found := snap[CPMKey(v, d.Age)]
		effect := r.Effect(v, cpm, ctxCPM, found)
		d.FuelCPM = cpm
		d.ContextFuelCPM = ctxCPM
		if !found {
			d.ContextFuelCPM = cpm
		}
		d.VMTRebound = d.VMT * effect
		d.AnnualVMTRebound = d.AnnualVMT * effect
		d.VMT += d.VMTRebound
		d.AnnualVMT += d.AnnualVMTRebound
	}
	RecomputeOdometer(out)
	return out, nil
}
