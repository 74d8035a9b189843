// Package util builds input fixtures shared by the batch and service tests.
//
// WriteBatch lays out a complete three-year batch in a temporary folder and
// returns the path of its batch settings file.
package util

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/core/benefits"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/rates"
)

// Context projection selected by the fixture.
const (
	ContextName = "AEO2023"
	ContextCase = "Reference case"
)

type fixture struct {
	t   testing.TB
	dir string
}

func (f fixture) table(name, tmpl, version string, header []string, rows ...[]string) {
	f.t.Helper()
	out, err := os.Create(filepath.Join(f.dir, name))
	require.NoError(f.t, err)
	defer out.Close()
	w := csv.NewWriter(out)
	require.NoError(f.t, w.Write([]string{"input_template_name", tmpl, "input_template_version", version}))
	require.NoError(f.t, w.Write(header))
	require.NoError(f.t, w.WriteAll(rows))
}

func years(from, to int, fn func(y string) []string) [][]string {
	var out [][]string
	for y := from; y <= to; y++ {
		out = append(out, fn(strconv.Itoa(y)))
	}
	return out
}

// WriteBatch lays out a three year batch with one gasoline car. action_1
// repeats the no_action fleet and action_2 points at a vehicles file that
// does not exist.
func WriteBatch(t testing.TB) string {
	t.Helper()
	f := fixture{t: t, dir: t.TempDir()}

	defl := years(2020, 2025, func(y string) []string { return []string{y, "100"} })
	f.table("ipd.csv", "context_implicit_price_deflators", "0.22", []string{"calendar_year", "price_deflator"}, defl...)
	f.table("cpi.csv", "context_cpi_price_deflators", "0.22", []string{"calendar_year", "price_deflator"}, defl...)

	f.table("general.csv", factors.GeneralInputsTemplate.Name, "0.1", []string{"item", "value"},
		[]string{"gal_per_bbl", "42"},
		[]string{"e0_in_retail_gasoline", "0.9"},
		[]string{"e0_energy_density_ratio", "1"},
		[]string{"diesel_energy_density_ratio", "1"},
		[]string{"grams_per_us_ton", "907184.74"},
		[]string{"grams_per_metric_ton", "1000000"},
		[]string{"fuel_reduction_leading_to_reduced_domestic_refining", "0.5"},
		[]string{"years_in_consumer_view", "2"},
	)
	f.table("fuels.csv", "onroad-fuels", "0.1",
		[]string{"fuel_id", "start_year", "unit", "direct_co2e_grams_per_unit", "refuel_efficiency", "transmission_efficiency"},
		[]string{model.FuelGasoline, "2020", "gallon", "8887", "1", "1"},
		[]string{model.FuelElectricity, "2020", "kWh", "0", "0.9", "0.935"},
	)
	var prices [][]string
	for _, fuel := range []string{model.FuelGasoline, model.FuelElectricity} {
		prices = append(prices, years(2022, 2024, func(y string) []string {
			return []string{ContextName, "2020", ContextCase, fuel, y, "3.5", "3.0"}
		})...)
	}
	f.table("prices.csv", "context_fuel_prices", "0.2",
		[]string{"context_id", "dollar_basis", "case_id", "fuel_id", "calendar_year", "retail_dollars_per_unit", "pretax_dollars_per_unit"},
		prices...)
	f.table("stock.csv", "context_stock_vmt", "0.1", []string{"context_id", "case_id", "calendar_year", "stock", "vmt"},
		years(2022, 2024, func(y string) []string { return []string{ContextName, ContextCase, y, "1000", "12000000"} })...)

	f.table("legacy.csv", "legacy_fleet", "0.1", []string{
		"model_year", "age", "calendar_year", "reg_class_id", "body_style", "market_class_id", "in_use_fuel_id",
		"registered_count", "miles_per_gallon", "kwh_per_mile", "curbweight_lbs", "range_miles",
		"transaction_price_dollars", "dollar_basis",
	})
	f.table("rereg.csv", "consumer.reregistration_fixed_by_age", "0.2",
		[]string{"start_model_year", "market_class_id", "age", "reregistered_proportion"})
	f.table("vmt.csv", "consumer.annual_vmt_fixed_by_age", "0.2",
		[]string{"start_year", "market_class_id", "age", "annual_vmt"})

	f.table("fatality.csv", "fatality_rates", "0.1", []string{"model_year", "age", "average_fatalities_per_billion_miles"},
		[]string{"2020", "0", "10"})
	var safety [][]string
	for _, b := range []string{model.BodySedan, model.BodyCUVSUV, model.BodyPickup} {
		safety = append(safety, []string{b, "PC", "3201", "-1.2", "-0.5"})
	}
	f.table("safety.csv", "safety_values", "0.1",
		[]string{"body_style", "nhtsa_safety_class", "threshold_lbs", "change_per_100_lbs_below_threshold", "change_per_100_lbs_at_or_above_threshold"},
		safety...)

	var veh [][]string
	for _, s := range rates.GasolineRates {
		veh = append(veh, []string{"2020", "passenger car", "car", model.FuelGasoline, s.Name, rates.VarAge, "0", "0.01", ""})
	}
	for _, s := range rates.ElectricRates {
		veh = append(veh, []string{"2020", "passenger car", "car", model.FuelElectricity, s.Name, rates.VarAge, "0", "0.005", ""})
	}
	f.table("veh.csv", "emission_rates_vehicles", "0.2",
		[]string{"start_year", "sourcetype_name", "reg_class_id", "in_use_fuel_id", "rate_name", "independent_variable", "slope_rate", "intercept_rate", "equation_rate"},
		veh...)

	var ref [][]string
	for _, p := range rates.UpstreamPollutants {
		ref = append(ref, []string{rates.RefineryRateName(p), rates.VarCalendarYear, "2050", "0", "1.5", ""})
	}
	f.table("ref.csv", "emission_rates_refinery", "0.1",
		[]string{"rate_name", "independent_variable", "last_year", "slope_rate", "intercept_rate", "equation_rate"}, ref...)

	egu := [][]string{
		{rates.CaseLowBound, rates.KWhDemandMetric, rates.VarCalendarYear, "2050", "0", "4e12", ""},
		{rates.CaseLowBound, rates.KWhConsumptionMetric, rates.VarCalendarYear, "2050", "0", "3.9e12", ""},
		{rates.CaseHighBEV, rates.KWhDemandMetric, rates.VarCalendarYear, "2050", "0", "4.5e12", ""},
	}
	for _, p := range rates.EGUPollutants {
		egu = append(egu,
			[]string{rates.CaseLowBound, rates.EGURateName(p), rates.VarCalendarYear, "2050", "0", "0.2", ""},
			[]string{rates.CaseHighBEV, rates.EGURateName(p), rates.VarCalendarYear, "2050", "0", "0.1", ""},
		)
	}
	f.table("egu.csv", "emission_rates_egu", "0.3",
		[]string{"case", "rate_name", "independent_variable", "last_year", "slope_rate", "intercept_rate", "equation_rate"}, egu...)

	sccHeader := []string{"calendar_year", "dollar_basis"}
	sccRow := []string{"2022", "2020"}
	for _, gas := range benefits.GHGs {
		for _, scope := range benefits.Scopes {
			for _, v := range benefits.DefaultGHGVariants() {
				sccHeader = append(sccHeader, factors.SCCColumn(gas, scope, v))
				sccRow = append(sccRow, "100")
			}
		}
	}
	f.table("scc.csv", "cost_factors_scc", "0.2", sccHeader, sccRow)
	f.table("es.csv", "cost_factors_energysecurity", "0.3",
		[]string{"calendar_year", "dollar_basis", "dollars_per_bbl", "oil_import_reduction_as_percent_of_total_oil_demand_reduction"},
		[]string{"2022", "2020", "3.5", "0.9"})
	var cn [][]string
	for _, rc := range []string{model.RegClassCar, model.RegClassTruck, model.RegClassMediumDuty} {
		cn = append(cn, []string{rc, "2020", "0.06", "0.001"})
	}
	f.table("cn.csv", "cost_factors_congestion_noise", "0.1",
		[]string{"reg_class_id", "dollar_basis", "congestion_cost_dollars_per_mile", "noise_cost_dollars_per_mile"}, cn...)
	f.table("pt.csv", "powertrain_cost", "0.1", []string{"powertrain_type", "item", "value", "dollar_basis"},
		[]string{"BEV", "battery_cost_per_kwh", "{2020: 100}", "2020"},
		[]string{"BEV", "battery_offset", "{2020: 35}", "2020"})
	f.table("maint.csv", "maintenance_cost", "0.2",
		[]string{"item", "miles_per_event_ICE", "miles_per_event_HEV", "miles_per_event_PHEV", "miles_per_event_BEV", "dollars_per_event", "dollar_basis"},
		[]string{"oil", "7500", "7500", "9000", "0", "65", "2020"},
		[]string{"tires", "40000", "40000", "40000", "40000", "800", "2020"})
	repair := [][]string{}
	for _, it := range []struct {
		item, value string
	}{
		{"car_multiplier", "1"}, {"suv_multiplier", "0.91"}, {"truck_multiplier", "0.7"},
		{"ICE_multiplier", "1"}, {"HEV_multiplier", "0.91"}, {"PHEV_multiplier", "0.86"}, {"BEV_multiplier", "0.67"},
		{"a_value_0", "0.0004"}, {"a_value_1", "0.0005"}, {"a_value_2", "0.0006"}, {"a_value_3", "0.0007"}, {"a_value_4", "0.0008"},
		{"a_value_add", "0.0001"}, {"b", "0.1"},
	} {
		repair = append(repair, []string{it.item, it.value, "2020"})
	}
	f.table("repair.csv", "repair_cost", "0.1", []string{"item", "value", "dollar_basis"}, repair...)
	var refuel [][]string
	for _, typ := range []string{"car", "suv", "truck"} {
		for _, it := range []struct {
			item, value string
		}{
			{"miles_to_mid_trip_charge_a", "0"}, {"miles_to_mid_trip_charge_b", "0"}, {"miles_to_mid_trip_charge_c", "100"},
			{"share_of_miles_charged_mid_trip", "0.1"}, {"fixed_refuel_minutes", "3.5"},
			{"charge_rate_mph_range_200_or_less", "60"}, {"charge_rate_mph_range_over_200", "120"},
			{"tank_gallons", "15"}, {"share_of_tank_refilled", "0.6"}, {"refuel_rate_gallons_per_minute", "10"},
			{"share_scaler", "1"}, {"dollars_per_hour_travel_time", "20"},
		} {
			refuel = append(refuel, []string{typ, it.item, it.value, "2020"})
		}
	}
	f.table("refuel.csv", "refueling_cost", "0.2", []string{"type", "item", "value", "dollar_basis"}, refuel...)

	f.table("vehicles.csv", "effects_vehicles", "0.1",
		[]string{
			"vehicle_id", "base_year_vehicle_id", "name", "model_year", "reg_class_id", "in_use_fuel_id",
			"market_class_id", "base_year_curbweight_lbs", "curbweight_lbs",
			"onroad_direct_co2e_grams_per_mile", "onroad_direct_kwh_per_mile", "base_year_powertrain_type",
			"new_vehicle_mfr_cost_dollars", "price_dollars", "dollar_basis",
		},
		[]string{"1", "1", "ICE car", "2022", "car", "{'pump gasoline':1.0}", "sedan_wagon.ICE", "3300", "3200", "300", "0", "ICE", "30000", "32000", "2020"},
	)
	f.table("vad.csv", "effects_vehicle_annual_data", "0.1",
		[]string{"vehicle_id", "calendar_year", "age", "registered_count", "annual_vmt", "odometer"},
		[]string{"1", "2022", "0", "1000", "12000", "12000"},
		[]string{"1", "2023", "1", "950", "11500", "23500"},
		[]string{"1", "2024", "2", "900", "11000", "34500"},
	)

	settings := [][]string{
		{"parameter", "session_policy", "value", "full_path"},
		{config.ParamBatchName, "all", "fixture", ""},
		{config.ParamBaseYear, "all", "2021", ""},
		{config.ParamFinalYear, "all", "2024", ""},
		{config.ParamCostAccrual, "all", "end-of-year", ""},
		{config.ParamDollarBasis, "all", "2020", ""},
		{config.ParamContextName, "all", ContextName, ""},
		{config.ParamContextCase, "all", ContextCase, ""},
		{config.ParamReboundICE, "all", "-0.1", ""},
		{config.ParamReboundBEV, "all", "0", ""},
		{config.ParamSCCScope, "all", "both", ""},
		{config.FileImplicitDeflators, "all", "", "ipd.csv"},
		{config.FileCPIDeflators, "all", "", "cpi.csv"},
		{config.FileGeneralInputs, "all", "", "general.csv"},
		{config.FileFuelPrices, "all", "", "prices.csv"},
		{config.FileStockVMT, "all", "", "stock.csv"},
		{config.FileOnroadFuels, "all", "", "fuels.csv"},
		{config.FileLegacyFleet, "all", "", "legacy.csv"},
		{config.FileReregistration, "all", "", "rereg.csv"},
		{config.FileAnnualVMT, "all", "", "vmt.csv"},
		{config.FileFatalityRates, "all", "", "fatality.csv"},
		{config.FileSafetyValues, "all", "", "safety.csv"},
		{config.FileVehicleRates, "all", "", "veh.csv"},
		{config.FileRefineryRates, "all", "", "ref.csv"},
		{config.FileEGURates, "all", "", "egu.csv"},
		{config.FileSCCCosts, "all", "", "scc.csv"},
		{config.FileEnergySecurityCosts, "all", "", "es.csv"},
		{config.FileCongestionNoiseCosts, "all", "", "cn.csv"},
		{config.FilePowertrainCosts, "all", "", "pt.csv"},
		{config.FileMaintenanceCosts, "all", "", "maint.csv"},
		{config.FileRepairCosts, "all", "", "repair.csv"},
		{config.FileRefuelingCosts, "all", "", "refuel.csv"},
		{config.FileVehicles, "all", "", "vehicles.csv"},
		{config.FileVehicleAnnualData, "all", "", "vad.csv"},
		{config.ParamSessionName, "no_action", "na", ""},
		{config.ParamSessionName, "action_1", "a1", ""},
		{config.ParamSessionName, "action_2", "a2", ""},
		{config.FileVehicles, "action_2", "", "missing/vehicles.csv"},
	}
	path := filepath.Join(f.dir, "batch_settings.csv")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()
	w := csv.NewWriter(out)
	require.NoError(t, w.WriteAll(settings))
	return path
}
