package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/costcurves"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/rates"
)

func constRate(t *testing.T, name string, v float64) *rates.Rate {
	t.Helper()
	r, err := rates.NewRate(name, rates.VarAge, "", 0, v)
	require.NoError(t, err)
	return r
}

func yearRate(t *testing.T, name string, v float64) *rates.Rate {
	t.Helper()
	r, err := rates.NewRate(name, rates.VarCalendarYear, "", 0, v)
	require.NoError(t, err)
	return r
}

func fixture(t *testing.T) (*Inputs, *Calculator) {
	t.Helper()
	vr, err := rates.NewVehicles(64)
	require.NoError(t, err)
	for _, s := range rates.GasolineRates {
		vr.Add(2020, "passenger car", "car", model.FuelGasoline, constRate(t, s.Name, 0.01))
	}
	for _, s := range rates.ElectricRates {
		vr.Add(2020, "passenger car", "car", model.FuelElectricity, constRate(t, s.Name, 0.005))
	}
	low := map[string]*rates.Rate{
		rates.KWhDemandMetric:      yearRate(t, rates.KWhDemandMetric, 5e12),
		rates.KWhConsumptionMetric: yearRate(t, rates.KWhConsumptionMetric, 1e11),
	}
	high := map[string]*rates.Rate{rates.KWhDemandMetric: yearRate(t, rates.KWhDemandMetric, 5.5e12)}
	for _, p := range rates.EGUPollutants {
		low[rates.EGURateName(p)] = yearRate(t, rates.EGURateName(p), 0.1)
		high[rates.EGURateName(p)] = yearRate(t, rates.EGURateName(p), 0.1)
	}
	egu, err := rates.NewEGU(low, high)
	require.NoError(t, err)
	var ref []*rates.Rate
	for _, p := range rates.UpstreamPollutants {
		ref = append(ref, yearRate(t, rates.RefineryRateName(p), 2))
	}
	maint, err := costcurves.NewMaintenance([]costcurves.MaintenanceItem{{
		Item: "oil", DollarsPerEvent: 100,
		MilesPerEvent: map[model.PowertrainType]float64{model.PowertrainICE: 10000, model.PowertrainBEV: 20000},
	}}, 200000)
	require.NoError(t, err)
	repair := &costcurves.Repair{
		TypeMultiplier:       map[string]float64{"car": 1, "suv": 1, "truck": 1},
		PowertrainMultiplier: map[model.PowertrainType]float64{model.PowertrainICE: 1, model.PowertrainBEV: 0.5},
		AValues:              [5]float64{0.01, 0.01, 0.01, 0.01, 0.01},
	}
	params := costcurves.RefuelingParams{
		MilesToMidTripChargeC: 100, ShareChargedMidTrip: 0.1, FixedRefuelMinutes: 6,
		ChargeRateMPHShortRange: 60, ChargeRateMPHLongRange: 120,
		TankGallons: 10, ShareOfTankRefilled: 1, RefuelGallonsPerMinute: 10, ShareScaler: 1, DollarsPerHour: 60,
	}
	prices, err := fuels.NewPrices(map[string]map[int]fuels.Price{
		model.FuelGasoline:    {2025: {Retail: 3, Pretax: 2.5}},
		model.FuelElectricity: {2025: {Retail: 0.15, Pretax: 0.14}},
	})
	require.NoError(t, err)

	in := &Inputs{
		General: factors.GeneralInputs{
			GalPerBbl: 42, E0InRetailGasoline: 0.9, E0EnergyDensityRatio: 1, DieselEnergyDensityRatio: 1,
			GramsPerUSTon: 907184.74, GramsPerMetricTon: 1e6, RefiningReduction: 0.5, YearsInConsumerView: 8,
		},
		Onroad: fuels.NewOnroad([]fuels.Properties{
			{FuelID: model.FuelGasoline, StartYear: 2000, DirectCO2eGramsPerUnit: 8887, RefuelEfficiency: 1, TransmissionEfficiency: 1},
			{FuelID: model.FuelElectricity, StartYear: 2000, RefuelEfficiency: 0.9, TransmissionEfficiency: 0.935},
		}),
		VehicleRates:    vr,
		FatalityRates:   factors.NewFatalityRates(map[[2]int]float64{{2020, 0}: 1.0}),
		SafetyValues:    factors.SafetyValues{"sedan": {BodyStyle: "sedan", ThresholdLbs: 3201, ChangeBelow: -0.0025, ChangeAtOrAbove: -0.0025}},
		EnergySecurity:  factors.NewEnergySecurityFactors(map[int]factors.EnergySecurity{2025: {DollarsPerBbl: 5, ImportShare: 0.1}}),
		CongestionNoise: map[string]factors.CongestionNoise{"car": {CongestionPerMile: 0.06, NoisePerMile: 0.001}},
		PowertrainCosts: &factors.PowertrainCosts{
			BatteryCostPerKWh: map[string]factors.YearSchedule{},
			BatteryOffset:     map[string]factors.YearSchedule{},
		},
		Maintenance: maint,
		Repair:      repair,
		Refueling:   costcurves.NewRefueling(map[string]costcurves.RefuelingParams{"car": params}),
	}
	calc := &Calculator{
		Inputs: in, Policy: model.PolicyNoAction, SessionName: "no_action",
		Vehicles: fleet.Registry{}, Prices: prices,
		Refinery: rates.NewRefineryEquations(ref...), EGU: egu.Session(),
	}
	return in, calc
}

func bev(id int, base, final float64) *model.Vehicle {
	return &model.Vehicle{
		ID: model.AnalysisID(id), BaseYearVehicleID: id, Name: "BEV car", ModelYear: 2025, RegClassID: "car",
		InUseFuel: model.MustFuelShares("{'US electricity':1.0}"), FuelingClass: model.FuelingBEV, MarketClassID: "sedan.BEV",
		BaseYearPowertrainType: model.PowertrainBEV, BodyStyle: "sedan", BaseYearCurbweightLbs: base, CurbweightLbs: final,
		OnroadDirectKWhPerMile: 0.3, BatteryKWh: 80, RangeMiles: 300, NewVehicleMfrCostDollars: 40000,
	}
}

func ice(id int) *model.Vehicle {
	return &model.Vehicle{
		ID: model.AnalysisID(id), BaseYearVehicleID: id, Name: "ICE car", ModelYear: 2025, RegClassID: "car",
		InUseFuel: model.MustFuelShares("{'pump gasoline':1.0}"), FuelingClass: model.FuelingICE, MarketClassID: "sedan.ICE",
		BaseYearPowertrainType: model.PowertrainICE, BodyStyle: "sedan", BaseYearCurbweightLbs: 3300, CurbweightLbs: 3100,
		OnroadDirectCO2eGramsPerMile: 355.48, NewVehicleMfrCostDollars: 30000, PriceDollars: 32000,
	}
}

func TestMassNeutralBEV(t *testing.T) {
	_, calc := fixture(t)
	v := bev(1, 3000, 3000)
	calc.Vehicles[v.ID] = v
	rows, err := calc.Safety([]model.AnnualDatum{{VehicleID: v.ID, CalendarYear: 2025, Age: 0, RegisteredCount: 1, VMT: 1e10}})
	require.NoError(t, err)
	r := rows[0]
	assert.Equal(t, 10.0, r.SessionFatalities)
	assert.Equal(t, 10.0, r.BaseFatalities)
	assert.Equal(t, 0.0, r.LbsChanged)
	assert.Equal(t, 0.0, r.LbsChangedBelowThreshold)
	assert.Equal(t, 0.0, r.LbsChangedAboveThreshold)
}

func TestSplitAtThreshold(t *testing.T) {
	for _, c := range [][3]float64{{3000, 3500, 3201}, {3500, 3000, 3201}, {2800, 3000, 3201}, {3300, 3600, 3201}, {3201, 3100, 3201}} {
		below, above := SplitAtThreshold(c[0], c[1], c[2])
		assert.InDelta(t, math.Abs(c[1]-c[0]), math.Abs(below)+math.Abs(above), 1, c)
	}
	below, above := SplitAtThreshold(3000, 3500, 3201)
	assert.Equal(t, 201.0, below)
	assert.Equal(t, 299.0, above)
}

func TestMassReductionRaisesFatalities(t *testing.T) {
	_, calc := fixture(t)
	v := ice(2)
	calc.Vehicles[v.ID] = v
	rows, err := calc.Safety([]model.AnnualDatum{{VehicleID: v.ID, CalendarYear: 2025, VMT: 1e9}})
	require.NoError(t, err)
	r := rows[0]
	assert.Equal(t, -101.0, r.LbsChangedBelowThreshold)
	assert.Equal(t, -99.0, r.LbsChangedAboveThreshold)
	want := 1.0 * (1 + -0.0025*101/100) * (1 + -0.0025*99/100)
	assert.InDelta(t, want, r.SessionFatalities, 1e-12)
}

func TestPhysicalAndCost(t *testing.T) {
	_, calc := fixture(t)
	g, e := ice(1), bev(2, 3500, 3900)
	idle := ice(3)
	idle.OnroadDirectCO2eGramsPerMile = 0
	calc.Vehicles = fleet.Registry{g.ID: g, e.ID: e, idle.ID: idle}
	rows := []model.AnnualDatum{
		{VehicleID: g.ID, CalendarYear: 2025, Age: 0, RegisteredCount: 100, AnnualVMT: 10000, Odometer: 10000, VMT: 1e6},
		{VehicleID: e.ID, CalendarYear: 2025, Age: 0, RegisteredCount: 100, AnnualVMT: 10000, Odometer: 10000, VMT: 1e6},
		{VehicleID: e.ID, CalendarYear: 2026, Age: 1, RegisteredCount: 99, AnnualVMT: 10000, Odometer: 20000, VMT: 9.9e5},
		{VehicleID: idle.ID, CalendarYear: 2025, Age: 0, RegisteredCount: 5, AnnualVMT: 10000, VMT: 5e4},
	}
	safety, err := calc.Safety(rows)
	require.NoError(t, err)
	require.Len(t, safety, 4)

	kwh, err := calc.SessionKWh(rows)
	require.NoError(t, err)
	assert.InDelta(t, 3e5, kwh[2025], 1e-6)

	phys, err := calc.Physical(rows, safety)
	require.NoError(t, err)
	require.Len(t, phys, 3, "vehicles without on-road intensity are omitted")

	gas := phys[0]
	gallons := 1e6 * 355.48 / 8887
	assert.InDelta(t, gallons, gas.FuelConsumptionGallons, 1e-6)
	assert.InDelta(t, 1e6*355.48/1e6, gas.Tailpipe[rates.CO2], 1e-9)
	assert.InDelta(t, 2*gallons*0.5/1e6, gas.Refinery[rates.CH4], 1e-12)
	assert.InDelta(t, gallons*0.9/42, gas.BarrelsOfOil, 1e-9)
	assert.InDelta(t, gallons*0.9/42*0.1, gas.BarrelsOfImportedOil, 1e-9)
	assert.Equal(t, 0.0, gas.EGU[rates.PM25])

	elec := phys[1]
	assert.InDelta(t, 3e5, elec.FuelConsumptionKWh, 1e-9)
	assert.InDelta(t, 3e5/0.935, elec.FuelGenerationKWh, 1e-6)
	assert.InDelta(t, 0.1*3e5/0.935/907184.74, elec.EGU[rates.PM25], 1e-12)
	assert.InDelta(t, 2*0.005*1e6/907184.74, elec.Tailpipe[rates.PM25], 1e-12)
	assert.Equal(t, 8000.0, elec.BatteryKWh)
	assert.Equal(t, 0.0, phys[2].BatteryKWh, "battery kWh only at age 0")

	costs, err := calc.Cost(phys)
	require.NoError(t, err)
	gc := costs[0]
	assert.InDelta(t, 3e6, gc.NewVehicleMfrCostDollars, 1e-6)
	assert.InDelta(t, gallons*3, gc.FuelRetailDollars, 1e-6)
	assert.InDelta(t, gallons*0.5, gc.FuelTaxesDollars, 1e-6)
	assert.InDelta(t, 0.06*1e6, gc.CongestionCostDollars, 1e-6)
	slope := 2 * 2000.0 / (200000.0 * 200000.0)
	assert.InDelta(t, slope*10000*1e6, gc.MaintenanceCostDollars, 1e-6)
	assert.InDelta(t, 0.01*math.Exp(0)*1e6, gc.RepairCostDollars, 1e-6)
	assert.InDelta(t, (1.0/10)*((6+1.0)/60)*60*gallons, gc.RefuelingCostDollars, 1e-6)
	assert.Equal(t, 0.0, gc.DriveValueDollars)

	ec := costs[1]
	assert.InDelta(t, 3e5*0.15, ec.FuelRetailDollars, 1e-9)
	assert.InDelta(t, ((6.0/60)/100+0.1/120)*60*1e6, ec.RefuelingCostDollars, 1e-6)
	assert.Equal(t, 0.0, costs[2].NewVehicleMfrCostDollars)
}

func TestDriveValue(t *testing.T) {
	_, calc := fixture(t)
	v := ice(1)
	calc.Vehicles[v.ID] = v
	d := model.AnnualDatum{VehicleID: v.ID, CalendarYear: 2025, Age: 1, RegisteredCount: 1, VMT: 9900, VMTRebound: -100, FuelCPM: 0.132, ContextFuelCPM: 0.12}
	phys, err := calc.Physical([]model.AnnualDatum{d}, nil)
	require.NoError(t, err)
	costs, err := calc.Cost(phys)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*-100*(0.132+0.12), costs[0].DriveValueDollars, 1e-12)
	assert.Less(t, costs[0].DriveValueDollars, 0.0)
}
