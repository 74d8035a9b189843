// Package effects computes the per-vehicle, per-calendar-year safety,
// physical and cost effects of a session.
package effects

import (
	"strconv"

	"github.com/kilianp07/fleeteffects/core/model"
)

// Field is a named numeric output column.
type Field struct {
	Name  string
	Value float64
}

// Record is implemented by every per-row effects type.
type Record interface {
	Ident() *Identity
	Fields() []Field
}

// Identity carries the attributes every effects row repeats so output can be
// pivoted without joining back to the vehicle table.
type Identity struct {
	SessionPolicy          model.SessionPolicy
	SessionName            string
	VehicleID              model.VehicleID
	BaseYearVehicleID      int
	ManufacturerID         string
	Name                   string
	CalendarYear           int
	ModelYear              int
	Age                    int
	BaseYearRegClassID     string
	RegClassID             string
	InUseFuelID            string
	MarketClassID          string
	FuelingClass           model.FuelingClass
	BaseYearPowertrainType model.PowertrainType
	BodyStyle              string

	RegisteredCount float64
	AnnualVMT       float64
	Odometer        float64
	VMT             float64
	VMTRebound      float64
}

// IdentityColumns are the string columns written ahead of Fields.
var IdentityColumns = []string{
	"session_policy", "session_name", "vehicle_id", "base_year_vehicle_id", "manufacturer_id", "name",
	"calendar_year", "model_year", "age", "base_year_reg_class_id", "reg_class_id", "in_use_fuel_id",
	"market_class_id", "fueling_class", "base_year_powertrain_type", "body_style",
}

// Strings renders the identity columns.
func (id *Identity) Strings() []string {
	return []string{
		string(id.SessionPolicy), id.SessionName, id.VehicleID.String(), strconv.Itoa(id.BaseYearVehicleID),
		id.ManufacturerID, id.Name, strconv.Itoa(id.CalendarYear), strconv.Itoa(id.ModelYear), strconv.Itoa(id.Age),
		id.BaseYearRegClassID, id.RegClassID, id.InUseFuelID, id.MarketClassID, string(id.FuelingClass),
		string(id.BaseYearPowertrainType), id.BodyStyle,
	}
}

func (id *Identity) travelFields() []Field {
	return []Field{
		{"registered_count", id.RegisteredCount},
		{"annual_vmt", id.AnnualVMT},
		{"odometer", id.Odometer},
		{"vmt", id.VMT},
		{"vmt_rebound", id.VMTRebound},
	}
}

// NewIdentity joins a vehicle with one of its annual rows.
func NewIdentity(policy model.SessionPolicy, session string, v *model.Vehicle, d model.AnnualDatum) Identity {
	return Identity{
		SessionPolicy:          policy,
		SessionName:            session,
		VehicleID:              v.ID,
		BaseYearVehicleID:      v.BaseYearVehicleID,
		ManufacturerID:         v.ManufacturerID,
		Name:                   v.Name,
		CalendarYear:           d.CalendarYear,
		ModelYear:              v.ModelYear,
		Age:                    d.Age,
		BaseYearRegClassID:     v.BaseYearRegClassID,
		RegClassID:             v.RegClassID,
		InUseFuelID:            v.FuelMapping(),
		MarketClassID:          v.MarketClassID,
		FuelingClass:           v.FuelingClass,
		BaseYearPowertrainType: v.BaseYearPowertrainType,
		BodyStyle:              v.BodyStyle,
		RegisteredCount:        d.RegisteredCount,
		AnnualVMT:              d.AnnualVMT,
		Odometer:               d.Odometer,
		VMT:                    d.VMT,
		VMTRebound:             d.VMTRebound,
	}
}

// AsRecords exposes a slice of rows as records.
func AsRecords[T any, P interface {
	*T
	Record
}](rows []T) []Record {
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out
}
