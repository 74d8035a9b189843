package rates

import "github.com/kilianp07/fleeteffects/core/model"

// VehicleRateSpec declares a vehicle emission rate and how it is applied.
// PerGallon rates multiply fuel gallons, the rest multiply miles.
type VehicleRateSpec struct {
	Name      string
	Pollutant string
	PerGallon bool
}

func perMile(name, pollutant string) VehicleRateSpec {
	return VehicleRateSpec{Name: name, Pollutant: pollutant}
}

func perGallon(name, pollutant string) VehicleRateSpec {
	return VehicleRateSpec{Name: name, Pollutant: pollutant, PerGallon: true}
}

// Pollutants tallied from vehicle rates. nmog is reported as voc.
const (
	PM25         = "pm25"
	VOC          = "voc"
	CO           = "co"
	NOx          = "nox"
	SOx          = "sox"
	CO2          = "co2"
	CH4          = "ch4"
	N2O          = "n2o"
	Acetaldehyde = "acetaldehyde"
	Acrolein     = "acrolein"
	Benzene      = "benzene"
	Ethylbenzene = "ethylbenzene"
	Formaldehyde = "formaldehyde"
	Naphthalene  = "naphthalene"
	Butadiene13  = "13_butadiene"
	PAH15        = "15pah"
	HCl          = "hcl"
	Hg           = "hg"
)

// GasolineRates is the full set of rates fetched for gasoline miles.
var GasolineRates = []VehicleRateSpec{
	perMile("pm25_brakewear_grams_per_mile", PM25),
	perMile("pm25_tirewear_grams_per_mile", PM25),
	perMile("pm25_exhaust_grams_per_mile", PM25),
	perMile("nmog_exhaust_grams_per_mile", VOC),
	perGallon("nmog_evap_permeation_grams_per_gallon", VOC),
	perGallon("nmog_evap_fuel_vapor_venting_grams_per_gallon", VOC),
	perGallon("nmog_evap_fuel_leaks_grams_per_gallon", VOC),
	perGallon("nmog_refueling_displacement_grams_per_gallon", VOC),
	perGallon("nmog_refueling_spillage_grams_per_gallon", VOC),
	perMile("co_exhaust_grams_per_mile", CO),
	perMile("nox_exhaust_grams_per_mile", NOx),
	perGallon("sox_exhaust_grams_per_gallon", SOx),
	perMile("ch4_exhaust_grams_per_mile", CH4),
	perMile("n2o_exhaust_grams_per_mile", N2O),
	perMile("acetaldehyde_exhaust_grams_per_mile", Acetaldehyde),
	perMile("acrolein_exhaust_grams_per_mile", Acrolein),
	perMile("benzene_exhaust_grams_per_mile", Benzene),
	perGallon("benzene_evap_permeation_grams_per_gallon", Benzene),
	perGallon("benzene_evap_fuel_vapor_venting_grams_per_gallon", Benzene),
	perGallon("benzene_evap_fuel_leaks_grams_per_gallon", Benzene),
	perGallon("benzene_refueling_displacement_grams_per_gallon", Benzene),
	perGallon("benzene_refueling_spillage_grams_per_gallon", Benzene),
	perMile("ethylbenzene_exhaust_grams_per_mile", Ethylbenzene),
	perGallon("ethylbenzene_evap_permeation_grams_per_gallon", Ethylbenzene),
	perGallon("ethylbenzene_evap_fuel_vapor_venting_grams_per_gallon", Ethylbenzene),
	perGallon("ethylbenzene_evap_fuel_leaks_grams_per_gallon", Ethylbenzene),
	perGallon("ethylbenzene_refueling_displacement_grams_per_gallon", Ethylbenzene),
	perGallon("ethylbenzene_refueling_spillage_grams_per_gallon", Ethylbenzene),
	perMile("formaldehyde_exhaust_grams_per_mile", Formaldehyde),
	perMile("naphthalene_exhaust_grams_per_mile", Naphthalene),
	perGallon("naphthalene_refueling_spillage_grams_per_gallon", Naphthalene),
	perMile("13_butadiene_exhaust_grams_per_mile", Butadiene13),
	perMile("15pah_exhaust_grams_per_mile", PAH15),
}

// DieselRates is the reduced set fetched for diesel miles.
var DieselRates = []VehicleRateSpec{
	perMile("pm25_brakewear_grams_per_mile", PM25),
	perMile("pm25_tirewear_grams_per_mile", PM25),
	perMile("pm25_exhaust_grams_per_mile", PM25),
	perMile("nmog_exhaust_grams_per_mile", VOC),
	perGallon("nmog_refueling_spillage_grams_per_gallon", VOC),
	perMile("co_exhaust_grams_per_mile", CO),
	perMile("nox_exhaust_grams_per_mile", NOx),
	perGallon("sox_exhaust_grams_per_gallon", SOx),
	perMile("ch4_exhaust_grams_per_mile", CH4),
	perMile("n2o_exhaust_grams_per_mile", N2O),
	perMile("acetaldehyde_exhaust_grams_per_mile", Acetaldehyde),
	perMile("acrolein_exhaust_grams_per_mile", Acrolein),
	perMile("benzene_exhaust_grams_per_mile", Benzene),
	perGallon("benzene_refueling_spillage_grams_per_gallon", Benzene),
	perMile("ethylbenzene_exhaust_grams_per_mile", Ethylbenzene),
	perGallon("ethylbenzene_refueling_spillage_grams_per_gallon", Ethylbenzene),
	perMile("formaldehyde_exhaust_grams_per_mile", Formaldehyde),
	perMile("naphthalene_exhaust_grams_per_mile", Naphthalene),
	perGallon("naphthalene_refueling_spillage_grams_per_gallon", Naphthalene),
	perMile("13_butadiene_exhaust_grams_per_mile", Butadiene13),
	perMile("15pah_exhaust_grams_per_mile", PAH15),
}

// ElectricRates covers the non-exhaust particulates of electric miles.
var ElectricRates = []VehicleRateSpec{
	perMile("pm25_brakewear_grams_per_mile", PM25),
	perMile("pm25_tirewear_grams_per_mile", PM25),
}

// RatesForFuel selects the vehicle rate set for a fuel.
func RatesForFuel(fuelID string) []VehicleRateSpec {
	switch fuelID {
	case model.FuelElectricity:
		return ElectricRates
	case model.FuelDiesel:
		return DieselRates
	default:
		return GasolineRates
	}
}

// UpstreamPollutants are tallied for refineries, in rate-name order.
var UpstreamPollutants = []string{VOC, CO, NOx, PM25, SOx, CO2, CH4, N2O}

// EGUPollutants adds the power-sector-only air toxics.
var EGUPollutants = []string{VOC, CO, NOx, PM25, SOx, CO2, CH4, N2O, HCl, Hg}

// MetricTonPollutants are reported in metric tons; all others in US tons.
var MetricTonPollutants = map[string]bool{CO2: true, CH4: true, N2O: true}

// RefineryRateName is the refinery rate column for a pollutant.
func RefineryRateName(pollutant string) string { return pollutant + "_grams_per_gallon" }

// EGURateName is the EGU rate name for a pollutant.
func EGURateName(pollutant string) string { return pollutant + "_grams_per_kwh" }
