package netbenefit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/benefits"
	"github.com/kilianp07/fleeteffects/core/discount"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/summary"
)

func result(policy model.SessionPolicy, values map[string]float64) *discount.Result {
	mk := func(reg string) *discount.Row {
		v := map[string]float64{}
		for k, x := range values {
			v[k] = x / 2
		}
		return &discount.Row{
			Key:    summary.Key{SessionPolicy: policy, SessionName: string(policy), CalendarYear: 2030, RegClassID: reg},
			Series: model.AnnualValue, Periods: 1, Values: v,
		}
	}
	return &discount.Result{Rows: []*discount.Row{mk("car"), mk("truck")}}
}

func TestCombinations(t *testing.T) {
	s := Summarizer{Scope: benefits.ScopeGlobal, GHGVariants: []string{"2.5", "3.0"}, CriteriaRates: []string{"3.0", "7.0"}, CriteriaStudies: []string{"Wu", "Pope"}}
	assert.Len(t, s.Combinations(), 8)
	s.CriteriaRates = nil
	combos := s.Combinations()
	require.Len(t, combos, 2)
	assert.Equal(t, "net_benefit_ghg_2.5_dollars", combos[0].Column())
}

func TestSummarize(t *testing.T) {
	s := Summarizer{Scope: benefits.ScopeGlobal, GHGVariants: []string{"3.0"}, CriteriaRates: []string{"3.0"}, CriteriaStudies: []string{"Wu"}}
	action := result("action_1", map[string]float64{effects.ColNewVehicleMfrCost: 1000, effects.ColFuelPretax: 500, effects.ColFuelRetail: 9999})
	noAction := result(model.PolicyNoAction, map[string]float64{effects.ColNewVehicleMfrCost: 800, effects.ColFuelPretax: 600})
	ben := result("action_1", map[string]float64{
		benefits.GHGTotalColumn(benefits.ScopeGlobal, "3.0"): 300,
		benefits.CriteriaTotalColumn("Wu", "3.0"):            50,
		benefits.ColEnergySecurity:                           20,
		benefits.ColDriveValue:                               10,
	})

	rows := s.Summarize(action, noAction, ben)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, model.SessionPolicy("action_1"), r.SessionPolicy)
	assert.Equal(t, 200.0, r.Values[effects.ColNewVehicleMfrCost])
	assert.Equal(t, -100.0, r.Values[effects.ColFuelPretax])
	assert.Equal(t, 380.0-100.0, r.Values[Column("3.0", "Wu", "3.0")])
	assert.NotContains(t, r.Values, effects.ColFuelRetail)
}

func TestIdentitySessionNetsToZero(t *testing.T) {
	s := Summarizer{Scope: benefits.ScopeDomestic, GHGVariants: []string{"3.0"}}
	costs := map[string]float64{}
	for _, c := range Costs {
		costs[c] = 123.4
	}
	rows := s.Summarize(result("action_1", costs), result(model.PolicyNoAction, costs), result("action_1", nil))
	for _, r := range rows {
		for _, c := range s.Columns() {
			assert.Zero(t, r.Values[c], c)
		}
	}
}
