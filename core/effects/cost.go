package effects

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/model"
)

// CostRow is the undiscounted cost of one vehicle in one calendar year.
type CostRow struct {
	Identity

	NewVehicleMfrCostDollars float64
	PurchasePriceDollars     float64
	PurchaseCreditDollars    float64
	BatteryCostDollars       float64
	BatteryCreditDollars     float64
	FuelRetailDollars        float64
	FuelPretaxDollars        float64
	FuelTaxesDollars         float64
	CongestionCostDollars    float64
	NoiseCostDollars         float64
	MaintenanceCostDollars   float64
	RepairCostDollars        float64
	RefuelingCostDollars     float64
	DriveValueDollars        float64
}

func (r *CostRow) Ident() *Identity { return &r.Identity }

// Cost column names. NetBenefitCosts references a subset.
const (
	ColNewVehicleMfrCost = "new_vehicle_mfr_cost_dollars"
	ColPurchasePrice     = "purchase_price_dollars"
	ColPurchaseCredit    = "purchase_credit_dollars"
	ColBatteryCost       = "battery_cost_dollars"
	ColBatteryCredit     = "battery_credit_dollars"
	ColFuelRetail        = "fuel_retail_dollars"
	ColFuelPretax        = "fuel_pretax_dollars"
	ColFuelTaxes         = "fuel_taxes_dollars"
	ColCongestion        = "congestion_cost_dollars"
	ColNoise             = "noise_cost_dollars"
	ColMaintenance       = "maintenance_cost_dollars"
	ColRepair            = "repair_cost_dollars"
	ColRefueling         = "refueling_cost_dollars"
	ColDriveValue        = "drive_value_dollars"
)

// CostColumns lists every monetary column of a cost row.
var CostColumns = []string{
	ColNewVehicleMfrCost, ColPurchasePrice, ColPurchaseCredit, ColBatteryCost, ColBatteryCredit,
	ColFuelRetail, ColFuelPretax, ColFuelTaxes, ColCongestion, ColNoise, ColMaintenance, ColRepair,
	ColRefueling, ColDriveValue,
}

func (r *CostRow) Fields() []Field {
	return append(r.travelFields(),
		Field{ColNewVehicleMfrCost, r.NewVehicleMfrCostDollars},
		Field{ColPurchasePrice, r.PurchasePriceDollars},
		Field{ColPurchaseCredit, r.PurchaseCreditDollars},
		Field{ColBatteryCost, r.BatteryCostDollars},
		Field{ColBatteryCredit, r.BatteryCreditDollars},
		Field{ColFuelRetail, r.FuelRetailDollars},
		Field{ColFuelPretax, r.FuelPretaxDollars},
		Field{ColFuelTaxes, r.FuelTaxesDollars},
		Field{ColCongestion, r.CongestionCostDollars},
		Field{ColNoise, r.NoiseCostDollars},
		Field{ColMaintenance, r.MaintenanceCostDollars},
		Field{ColRepair, r.RepairCostDollars},
		Field{ColRefueling, r.RefuelingCostDollars},
		Field{ColDriveValue, r.DriveValueDollars},
	)
}

// Cost prices every physical row.
func (c *Calculator) Cost(rows []PhysicalRow) ([]CostRow, error) {
	c.log().Infof("Calculating cost effects for %s", c.SessionName)
	out := make([]CostRow, 0, len(rows))
	for i := range rows {
		r, err := c.costRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("vehicle %s year %d: %w", rows[i].VehicleID, rows[i].CalendarYear, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Calculator) costRow(p *PhysicalRow) (CostRow, error) {
	in := c.Inputs
	v := p.Vehicle
	r := CostRow{Identity: p.Identity}
	pt := v.Powertrain()

	if p.Age == 0 {
		r.NewVehicleMfrCostDollars = v.NewVehicleMfrCostDollars * p.RegisteredCount
		r.PurchasePriceDollars = v.PriceDollars * p.RegisteredCount
		r.PurchaseCreditDollars = v.PriceModificationDollars * p.RegisteredCount
		if v.IsLegacy() {
			r.PurchaseCreditDollars = v.PriceDollars * p.RegisteredCount
		}
		r.BatteryCostDollars = v.BatteryKWh * in.PowertrainCosts.BatteryCost(string(pt), v.ModelYear) * p.RegisteredCount
		if pt == model.PowertrainBEV {
			r.BatteryCreditDollars = v.BatteryKWh * in.PowertrainCosts.BatteryCredit(string(pt), v.ModelYear) * p.RegisteredCount
		}
	}

	for _, use := range p.Fuels {
		price, err := c.Prices.Get(use.FuelID, p.CalendarYear)
		if err != nil {
			return r, err
		}
		units := use.Gallons
		if model.IsElectric(use.FuelID) {
			units = use.KWh
		}
		r.FuelRetailDollars += units * price.Retail
		r.FuelPretaxDollars += units * price.Pretax
	}
	r.FuelTaxesDollars = r.FuelRetailDollars - r.FuelPretaxDollars

	if cn, ok := in.CongestionNoise[v.RegClassID]; ok {
		r.CongestionCostDollars = cn.CongestionPerMile * p.VMT
		r.NoiseCostDollars = cn.NoisePerMile * p.VMT
	} else {
		c.warnOnce("congestion:"+v.RegClassID, "no congestion/noise factors for reg class %s", v.RegClassID)
	}

	r.MaintenanceCostDollars = in.Maintenance.RatePerMile(pt, p.Odometer) * p.VMT
	r.RepairCostDollars = in.Repair.RatePerMile(v.UseClass(), pt, p.Age, v.NewVehicleMfrCostDollars) * p.VMT

	if v.InUseFuel.IsPureElectric() {
		rate, err := in.Refueling.BEVRatePerMile(v.UseClass(), v.RangeMiles)
		if err != nil {
			return r, err
		}
		r.RefuelingCostDollars = rate * p.VMTElectricity
	} else if p.FuelConsumptionGallons > 0 {
		rate, err := in.Refueling.LiquidRatePerGallon(v.UseClass())
		if err != nil {
			return r, err
		}
		r.RefuelingCostDollars = rate * p.FuelConsumptionGallons
	}

	r.DriveValueDollars = 0.5 * p.VMTRebound * (p.FuelCPM + p.ContextFuelCPM)
	return r, nil
}
