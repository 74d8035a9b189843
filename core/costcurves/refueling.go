package costcurves

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/table"
)

var RefuelingTemplate = table.Template{
	Name:    "refueling_cost",
	Version: "0.2",
	Columns: []string{"type", "item", "value", "dollar_basis"},
}

// RefuelingParams are the refueling time inputs of one vehicle type.
type RefuelingParams struct {
	MilesToMidTripChargeA   float64
	MilesToMidTripChargeB   float64
	MilesToMidTripChargeC   float64
	ShareChargedMidTrip     float64
	FixedRefuelMinutes      float64
	ChargeRateMPHShortRange float64
	ChargeRateMPHLongRange  float64
	TankGallons             float64
	ShareOfTankRefilled     float64
	RefuelGallonsPerMinute  float64
	ShareScaler             float64
	DollarsPerHour          float64
}

// Refueling holds parameters by vehicle type (car, suv, truck).
type Refueling struct {
	byType map[string]RefuelingParams
}

// NewRefueling wraps parameters by type.
func NewRefueling(byType map[string]RefuelingParams) *Refueling {
	return &Refueling{byType: byType}
}

// RefuelingFromTable reads the type/item/value table.
func RefuelingFromTable(t *table.Table, d *deflators.Deflators, basis int) (*Refueling, error) {
	byType := map[string]RefuelingParams{}
	err := t.Each(func(r *table.Row) error {
		typ := r.String("type")
		p := byType[typ]
		v := r.Float("value")
		switch item := r.String("item"); item {
		case "miles_to_mid_trip_charge_a":
			p.MilesToMidTripChargeA = v
		case "miles_to_mid_trip_charge_b":
			p.MilesToMidTripChargeB = v
		case "miles_to_mid_trip_charge_c":
			p.MilesToMidTripChargeC = v
		case "share_of_miles_charged_mid_trip":
			p.ShareChargedMidTrip = v
		case "fixed_refuel_minutes":
			p.FixedRefuelMinutes = v
		case "charge_rate_mph_range_200_or_less":
			p.ChargeRateMPHShortRange = v
		case "charge_rate_mph_range_over_200":
			p.ChargeRateMPHLongRange = v
		case "tank_gallons":
			p.TankGallons = v
		case "share_of_tank_refilled":
			p.ShareOfTankRefilled = v
		case "refuel_rate_gallons_per_minute":
			p.RefuelGallonsPerMinute = v
		case "share_scaler":
			p.ShareScaler = v
		case "dollars_per_hour_travel_time":
			db := r.Int("dollar_basis")
			if err := d.Adjust(&db, basis, &v); err != nil {
				return err
			}
			p.DollarsPerHour = v
		default:
			return fmt.Errorf("unknown refueling item %q", item)
		}
		byType[typ] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, typ := range []string{"car", "suv", "truck"} {
		if _, ok := byType[typ]; !ok {
			return nil, fmt.Errorf("%s: no rows for type %s", RefuelingTemplate.Name, typ)
		}
	}
	return NewRefueling(byType), nil
}

func (r *Refueling) params(useClass string) (RefuelingParams, error) {
	p, ok := r.byType[useClass]
	if !ok {
		return RefuelingParams{}, fmt.Errorf("%s: no parameters for type %q", RefuelingTemplate.Name, useClass)
	}
	return p, nil
}

// MilesToMidTripCharge is the quadratic in range.
func (p RefuelingParams) MilesToMidTripCharge(rangeMiles float64) float64 {
	return p.MilesToMidTripChargeA*rangeMiles*rangeMiles + p.MilesToMidTripChargeB*rangeMiles + p.MilesToMidTripChargeC
}

// BEVRatePerMile is the charging time cost per electric mile.
func (r *Refueling) BEVRatePerMile(useClass string, rangeMiles float64) (float64, error) {
	p, err := r.params(useClass)
	if err != nil {
		return 0, err
	}
	chargeRate := p.ChargeRateMPHLongRange
	if rangeMiles <= 200 {
		chargeRate = p.ChargeRateMPHShortRange
	}
	var stop, charge float64
	if m := p.MilesToMidTripCharge(rangeMiles); m > 0 {
		stop = (p.FixedRefuelMinutes / 60) / m
	}
	if chargeRate > 0 {
		charge = p.ShareChargedMidTrip / chargeRate
	}
	return (stop + charge) * p.DollarsPerHour, nil
}

// LiquidRatePerGallon is the refueling time cost per gallon.
func (r *Refueling) LiquidRatePerGallon(useClass string) (float64, error) {
	p, err := r.params(useClass)
	if err != nil {
		return 0, err
	}
	refilled := p.TankGallons * p.ShareOfTankRefilled
	if refilled <= 0 || p.RefuelGallonsPerMinute <= 0 {
		return 0, fmt.Errorf("%s: type %s has no tank or refuel rate", RefuelingTemplate.Name, useClass)
	}
	minutes := p.FixedRefuelMinutes + refilled/p.RefuelGallonsPerMinute
	return (1 / refilled) * (minutes / 60) * p.DollarsPerHour * p.ShareScaler, nil
}
