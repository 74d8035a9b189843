package fleet

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/table"
)

var VehiclesTemplate = table.Template{
	Name:    "effects_vehicles",
	Version: "0.1",
	Columns: []string{
		"vehicle_id", "base_year_vehicle_id", "name", "model_year", "reg_class_id", "in_use_fuel_id",
		"market_class_id", "base_year_curbweight_lbs", "curbweight_lbs",
		"onroad_direct_co2e_grams_per_mile", "onroad_direct_kwh_per_mile",
	},
	Optional: []string{
		"manufacturer_id", "base_year_reg_class_id", "context_size_class", "base_year_powertrain_type", "body_style",
		"footprint_ft2", "workfactor", "battery_kwh", "range_miles", "new_vehicle_mfr_cost_dollars",
		"price_dollars", "price_modification_dollars", "dollar_basis",
	},
}

var AnnualDataTemplate = table.Template{
	Name:     "effects_vehicle_annual_data",
	Version:  "0.1",
	Columns:  []string{"vehicle_id", "calendar_year", "age", "registered_count", "annual_vmt", "odometer"},
	Optional: []string{"vmt"},
}

// Registry is a session's vehicles keyed by id.
type Registry map[model.VehicleID]*model.Vehicle

// VehiclesFromTable reads a compliance vehicles file. Rows of other regions
// are dropped; monetary columns are rescaled when a dollar_basis is present.
func VehiclesFromTable(t *table.Table, region string, d *deflators.Deflators, basis int) (Registry, error) {
	reg := Registry{}
	err := t.Each(func(r *table.Row) error {
		mc, ok := Deregionalize(r.String("market_class_id"), region)
		if !ok {
			return nil
		}
		id, err := model.ParseAnalysisID(r.Int("vehicle_id"))
		if err != nil {
			return err
		}
		fuel, err := model.ParseFuelShares(r.String("in_use_fuel_id"))
		if err != nil {
			return err
		}
		v := &model.Vehicle{
			ID:                           id,
			BaseYearVehicleID:            r.Int("base_year_vehicle_id"),
			ManufacturerID:               r.String("manufacturer_id"),
			Name:                         r.String("name"),
			ModelYear:                    r.Int("model_year"),
			BaseYearRegClassID:           r.String("base_year_reg_class_id"),
			RegClassID:                   r.String("reg_class_id"),
			ContextSizeClass:             r.String("context_size_class"),
			InUseFuel:                    fuel,
			MarketClassID:                mc,
			FuelingClass:                 fuel.FuelingClass(),
			BaseYearPowertrainType:       model.PowertrainType(r.String("base_year_powertrain_type")),
			BodyStyle:                    AliasBodyStyle(r.String("body_style")),
			FootprintFt2:                 r.Float("footprint_ft2"),
			Workfactor:                   r.Float("workfactor"),
			BaseYearCurbweightLbs:        r.Float("base_year_curbweight_lbs"),
			CurbweightLbs:                r.Float("curbweight_lbs"),
			OnroadDirectCO2eGramsPerMile: r.Float("onroad_direct_co2e_grams_per_mile"),
			OnroadDirectKWhPerMile:       r.Float("onroad_direct_kwh_per_mile"),
			BatteryKWh:                   r.Float("battery_kwh"),
			RangeMiles:                   r.Float("range_miles"),
			NewVehicleMfrCostDollars:     r.Float("new_vehicle_mfr_cost_dollars"),
			PriceDollars:                 r.Float("price_dollars"),
			PriceModificationDollars:     r.Float("price_modification_dollars"),
		}
		if v.BodyStyle == "" {
			v.BodyStyle = BodyStyleOf(mc)
		}
		if v.BaseYearRegClassID == "" {
			v.BaseYearRegClassID = v.RegClassID
		}
		if db := r.Int("dollar_basis"); db > 0 && d != nil {
			if err := d.Adjust(&db, basis, &v.NewVehicleMfrCostDollars, &v.PriceDollars, &v.PriceModificationDollars); err != nil {
				return err
			}
		}
		if _, dup := reg[id]; dup {
			return fmt.Errorf("duplicate vehicle_id %s", id)
		}
		reg[id] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// AnnualDataFromTable reads the compliance annual data, keeping rows of
// vehicles present in reg and calendar years inside [firstYear, lastYear].
func AnnualDataFromTable(t *table.Table, reg Registry, firstYear, lastYear int) ([]model.AnnualDatum, error) {
	var out []model.AnnualDatum
	err := t.Each(func(r *table.Row) error {
		id, err := model.ParseAnalysisID(r.Int("vehicle_id"))
		if err != nil {
			return err
		}
		if _, ok := reg[id]; !ok {
			return nil
		}
		d := model.AnnualDatum{
			VehicleID:       id,
			CalendarYear:    r.Int("calendar_year"),
			Age:             r.Int("age"),
			RegisteredCount: r.Float("registered_count"),
			AnnualVMT:       r.Float("annual_vmt"),
			Odometer:        r.Float("odometer"),
			VMT:             r.Float("vmt"),
		}
		if d.CalendarYear < firstYear || d.CalendarYear > lastYear {
			return nil
		}
		if !r.Has("vmt") {
			d.VMT = d.RegisteredCount * d.AnnualVMT
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
