package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/model"
)

const gasoline = "{'pump gasoline':1.0}"

func safetyRow(policy model.SessionPolicy, count, curb, vmt, fatalities float64) effects.SafetyRow {
	return effects.SafetyRow{
		Identity: effects.Identity{
			SessionPolicy: policy, SessionName: string(policy), CalendarYear: 2030,
			RegClassID: "car", InUseFuelID: gasoline, RegisteredCount: count, VMT: vmt, Odometer: 5000,
		},
		CurbweightLbs:     curb,
		SessionFatalities: fatalities,
	}
}

func TestAnnualSumsAndWeights(t *testing.T) {
	rows := []effects.SafetyRow{
		safetyRow(model.PolicyNoAction, 1, 3000, 100, 1),
		safetyRow(model.PolicyNoAction, 3, 4000, 300, 2),
	}
	f := Annual(rows, SafetySpec)
	require.Equal(t, 1, f.Len())
	r := f.Rows()[0]
	assert.Equal(t, 4.0, r.Values["registered_count"])
	assert.Equal(t, 3.0, r.Values["session_fatalities"])
	assert.InDelta(t, 3750.0, r.Values["curbweight_lbs"], 1e-9)
	assert.NotContains(t, f.Columns, "odometer")
	assert.Equal(t, model.FuelingICE, r.FuelingClass())
}

func TestDelta(t *testing.T) {
	na := Annual([]effects.SafetyRow{safetyRow(model.PolicyNoAction, 2, 3000, 100, 1)}, SafetySpec)
	act := Annual([]effects.SafetyRow{safetyRow("action_1", 2, 3000, 100, 1)}, SafetySpec)
	d := Delta(act, na)
	require.Equal(t, 1, d.Len())
	for _, c := range d.Columns {
		assert.Zero(t, d.Rows()[0].Values[c], c)
	}

	extra := safetyRow(model.PolicyNoAction, 5, 3000, 100, 4)
	extra.RegClassID = "truck"
	na = Annual([]effects.SafetyRow{safetyRow(model.PolicyNoAction, 2, 3000, 100, 1), extra}, SafetySpec)
	d = Delta(act, na)
	require.Equal(t, 2, d.Len())
	r, ok := d.Lookup(Key{SessionPolicy: "action_1", SessionName: "action_1", CalendarYear: 2030, RegClassID: "truck", InUseFuelID: gasoline})
	require.True(t, ok)
	assert.Equal(t, -4.0, r.Values["session_fatalities"])
}

func TestZeroWeightMean(t *testing.T) {
	assert.Equal(t, 0.0, weightedMean([]float64{1, 2}, []float64{0, 0}))
}

func TestConsumerView(t *testing.T) {
	mk := func(age int, count, vmt, fuel float64, legacy bool) effects.CostRow {
		id := model.AnalysisID(7)
		if legacy {
			id = model.LegacyID(1)
		}
		return effects.CostRow{
			Identity: effects.Identity{
				SessionPolicy: model.PolicyNoAction, SessionName: "na", VehicleID: id, ModelYear: 2030,
				CalendarYear: 2030 + age, Age: age, BodyStyle: "sedan", InUseFuelID: gasoline,
				BaseYearPowertrainType: model.PowertrainICE, RegisteredCount: count, VMT: vmt,
			},
			FuelRetailDollars: fuel,
		}
	}
	rows := []effects.CostRow{
		mk(0, 10, 100, 50, false),
		mk(1, 9, 90, 45, false),
		mk(2, 8, 80, 40, false),
		mk(0, 5, 50, 25, true),
	}
	f := Consumer(rows, 2, CostSpec)
	require.Len(t, f.Rows, 1)
	r := f.Rows[0]
	assert.Equal(t, 10.0, r.Vehicles)
	assert.Equal(t, 190.0, r.Miles)
	assert.Equal(t, 95.0, r.Values[effects.ColFuelRetail])
	assert.Equal(t, 9.5, r.Values[PerVehicle(effects.ColFuelRetail)])
	assert.InDelta(t, 0.5, r.Values[PerMile(effects.ColFuelRetail)], 1e-12)
	assert.Contains(t, f.Columns, PerMile(effects.ColFuelRetail))
}
