package model

// AnnualDatum is one vehicle-calendar-year row of stock and travel. Rows come
// from the compliance model (or the legacy projector) and are enriched by VMT
// calibration and rebound.
type AnnualDatum struct {
	VehicleID       VehicleID
	CalendarYear    int
	Age             int
	RegisteredCount float64
	AnnualVMT       float64
	Odometer        float64
	VMT             float64

	ContextVMTAdjustment float64
	AnnualVMTRebound     float64
	VMTRebound           float64
	FuelCPM              float64
	ContextFuelCPM       float64
}

// YearKey identifies a vehicle in a calendar year.
type YearKey struct {
	VehicleID    VehicleID
	CalendarYear int
}

// Key returns the row's identity.
func (d AnnualDatum) Key() YearKey {
	return YearKey{VehicleID: d.VehicleID, CalendarYear: d.CalendarYear}
}

// CPMKey identifies the context fuel cost per mile snapshot of a vehicle
// cohort.
type CPMKey struct {
	BaseYearVehicleID int
	Powertrain        PowertrainType
	ModelYear         int
	Age               int
}

// CPMSnapshot holds the reference session's fuel cost per mile.
type CPMSnapshot map[CPMKey]float64
