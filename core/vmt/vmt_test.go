package vmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/model"
)

func annual(id model.VehicleID, year, age int, count, miles, odo float64) model.AnnualDatum {
	return model.AnnualDatum{VehicleID: id, CalendarYear: year, Age: age, RegisteredCount: count, AnnualVMT: miles, Odometer: odo, VMT: count * miles}
}

func TestCalibrationMatchesContext(t *testing.T) {
	ctx := fleet.ContextStockVMT{2025: {Stock: 500, VMT: 7.1e6}, 2026: {Stock: 480, VMT: 6.5e6}}
	analysis := []model.AnnualDatum{
		annual(model.AnalysisID(1), 2025, 0, 100, 15000, 15000),
		annual(model.AnalysisID(1), 2026, 1, 98, 14000, 29000),
	}
	legacy := []model.AnnualDatum{
		annual(model.LegacyID(0), 2025, 5, 300, 11000, 70000),
		annual(model.LegacyID(0), 2026, 6, 290, 10500, 80500),
	}
	adj, err := Calibrate(ctx, analysis, legacy, 2025, 2026)
	require.NoError(t, err)

	a := adj.Apply(analysis)
	l := adj.ApplyLegacy(legacy)
	totals := Totals(a, l)
	for y, want := range ctx {
		got := totals[y]
		assert.Less(t, math.Abs(got.VMT-want.VMT)/want.VMT, 1e-9, y)
		assert.Less(t, math.Abs(got.Stock-want.Stock)/want.Stock, 1e-9, y)
	}
	assert.Equal(t, adj[2025].VMT, a[0].ContextVMTAdjustment)

	// first projected year rebases the odometer, later years carry forward
	first := l[0]
	assert.InDelta(t, 70000-11000+first.AnnualVMT, first.Odometer, 1e-6)
	assert.InDelta(t, first.Odometer+l[1].AnnualVMT, l[1].Odometer, 1e-6)
	assert.Equal(t, 70000.0, legacy[0].Odometer, "input rows are not mutated")

	_, err = Calibrate(ctx, analysis, legacy, 2025, 2027)
	assert.Error(t, err)
}

func reboundFixture(t *testing.T, sessionPrice float64) (Rebound, Rebound) {
	t.Helper()
	onroad := fuels.NewOnroad([]fuels.Properties{{FuelID: model.FuelGasoline, StartYear: 2000, DirectCO2eGramsPerUnit: 8887, RefuelEfficiency: 1, TransmissionEfficiency: 1}})
	ctxPrices, err := fuels.NewPrices(map[string]map[int]fuels.Price{model.FuelGasoline: {2025: {Retail: 3.00, Pretax: 2.5}}})
	require.NoError(t, err)
	sesPrices, err := fuels.NewPrices(map[string]map[int]fuels.Price{model.FuelGasoline: {2025: {Retail: sessionPrice, Pretax: 2.8}}})
	require.NoError(t, err)
	return Rebound{Prices: ctxPrices, Onroad: onroad, RateICE: -0.1, RateBEV: -0.1},
		Rebound{Prices: sesPrices, Onroad: onroad, RateICE: -0.1, RateBEV: -0.1}
}

func TestFuelPriceRebound(t *testing.T) {
	ref, ses := reboundFixture(t, 3.30)
	v := &model.Vehicle{ID: model.AnalysisID(1), BaseYearVehicleID: 7, ModelYear: 2025, BaseYearPowertrainType: model.PowertrainICE,
		InUseFuel: model.MustFuelShares("{'pump gasoline':1.0}"), OnroadDirectCO2eGramsPerMile: 300}
	reg := fleet.Registry{v.ID: v}
	rows := []model.AnnualDatum{annual(v.ID, 2025, 0, 1000, 12000, 12000)}

	snap, err := ref.Snapshot(reg, rows)
	require.NoError(t, err)
	out, err := ses.Apply(reg, rows, snap)
	require.NoError(t, err)

	d := out[0]
	assert.InDelta(t, -0.01*12e6, d.VMTRebound, 1e-6)
	assert.InDelta(t, 12e6*0.99, d.VMT, 1e-6)
	assert.InDelta(t, 1.1*d.ContextFuelCPM, d.FuelCPM, 1e-12)
	assert.InDelta(t, d.AnnualVMT, d.Odometer, 1e-9)
	assert.Equal(t, 12e6, rows[0].VMT)

	// reference session against its own snapshot has no rebound
	same, err := ref.Apply(reg, rows, snap)
	require.NoError(t, err)
	assert.Equal(t, 0.0, same[0].VMTRebound)
}

func TestReboundWithoutContextKey(t *testing.T) {
	_, ses := reboundFixture(t, 3.30)
	v := &model.Vehicle{ID: model.AnalysisID(2), BaseYearVehicleID: 9, ModelYear: 2025,
		InUseFuel: model.MustFuelShares("{'pump gasoline':1.0}"), OnroadDirectCO2eGramsPerMile: 300}
	out, err := ses.Apply(fleet.Registry{v.ID: v}, []model.AnnualDatum{annual(v.ID, 2025, 0, 10, 100, 100)}, model.CPMSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0].VMTRebound)
	assert.Equal(t, out[0].FuelCPM, out[0].ContextFuelCPM)
}

func TestRecomputeOdometer(t *testing.T) {
	rows := []model.AnnualDatum{
		annual(model.AnalysisID(1), 2027, 2, 1, 80, 0),
		annual(model.AnalysisID(1), 2025, 0, 1, 100, 0),
		annual(model.AnalysisID(2), 2025, 0, 1, 50, 0),
		annual(model.AnalysisID(1), 2026, 1, 1, 90, 0),
	}
	RecomputeOdometer(rows)
	assert.Equal(t, []float64{270, 100, 50, 190}, []float64{rows[0].Odometer, rows[1].Odometer, rows[2].Odometer, rows[3].Odometer})
}
