package model

import "strings"

// PowertrainType is the base-year powertrain of a vehicle.
type PowertrainType string

const (
	PowertrainICE  PowertrainType = "ICE"
	PowertrainHEV  PowertrainType = "HEV"
	PowertrainPHEV PowertrainType = "PHEV"
	PowertrainMHEV PowertrainType = "MHEV"
	PowertrainBEV  PowertrainType = "BEV"
)

// Regulatory classes.
const (
	RegClassCar        = "car"
	RegClassTruck      = "truck"
	RegClassMediumDuty = "mediumduty"
)

// Canonical body styles.
const (
	BodySedan  = "sedan"
	BodyCUVSUV = "cuv_suv"
	BodyPickup = "pickup"
)

// Vehicle is one compliance-model (or synthesized legacy) vehicle. It is
// immutable once a session has been loaded.
type Vehicle struct {
	ID                     VehicleID
	BaseYearVehicleID      int
	ManufacturerID         string
	Name                   string
	ModelYear              int
	BaseYearRegClassID     string
	RegClassID             string
	ContextSizeClass       string
	InUseFuel              FuelShares
	MarketClassID          string
	FuelingClass           FuelingClass
	BaseYearPowertrainType PowertrainType
	BodyStyle              string
	FootprintFt2           float64
	Workfactor             float64
	BaseYearCurbweightLbs  float64
	CurbweightLbs          float64

	OnroadDirectCO2eGramsPerMile float64
	OnroadDirectKWhPerMile       float64
	BatteryKWh                   float64
	RangeMiles                   float64

	NewVehicleMfrCostDollars float64
	PriceDollars             float64
	PriceModificationDollars float64
}

// IsLegacy reports whether the vehicle was projected from the legacy fleet.
func (v Vehicle) IsLegacy() bool { return v.ID.Legacy }

// HasOnroadIntensity is false for vehicles that consume nothing; those are
// skipped by the physical and cost passes.
func (v Vehicle) HasOnroadIntensity() bool {
	return v.OnroadDirectCO2eGramsPerMile != 0 || v.OnroadDirectKWhPerMile != 0
}

// FuelMapping renders the canonical in-use fuel literal.
func (v Vehicle) FuelMapping() string { return v.InUseFuel.String() }

// SourceType maps the regulatory class to the emission-rate source type.
func (v Vehicle) SourceType() string {
	return SourceTypeFor(v.RegClassID)
}

// SourceTypeFor maps a regulatory class to its emission-rate source type.
func SourceTypeFor(regClass string) string {
	switch regClass {
	case RegClassCar:
		return "passenger car"
	case RegClassTruck:
		return "passenger truck"
	case RegClassMediumDuty:
		return "light commercial truck"
	default:
		return regClass
	}
}

// UseClass returns the repair/refueling vehicle type: truck, car or suv.
func (v Vehicle) UseClass() string {
	switch {
	case strings.Contains(v.Name, "Pickup"):
		return "truck"
	case strings.Contains(v.Name, "car"):
		return "car"
	default:
		return "suv"
	}
}

// LegacyName synthesizes a name that drives UseClass for legacy vehicles.
func LegacyName(bodyStyle string) string {
	switch bodyStyle {
	case BodySedan:
		return "car"
	case BodyPickup:
		return "Pickup"
	default:
		return "suv"
	}
}

// Powertrain derives the cost-curve powertrain from the market class suffix
// and the base-year powertrain.
func (v Vehicle) Powertrain() PowertrainType {
	if v.InUseFuel.IsPureElectric() || strings.HasSuffix(v.MarketClassID, ".BEV") {
		return PowertrainBEV
	}
	if v.BaseYearPowertrainType != "" && v.BaseYearPowertrainType != PowertrainBEV {
		return v.BaseYearPowertrainType
	}
	if v.InUseFuel.Share(FuelElectricity) > 0 {
		return PowertrainPHEV
	}
	return PowertrainICE
}
