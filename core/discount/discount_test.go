package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/summary"
)

func frame(values map[int]float64, cols ...string) *summary.Frame {
	f := summary.NewFrame(cols)
	for y, v := range values {
		r := f.Row(summary.Key{SessionPolicy: "action_1", SessionName: "a1", CalendarYear: y, RegClassID: "car", InUseFuelID: "{'pump gasoline':1.0}"})
		for _, c := range cols {
			r.Values[c] = v
		}
	}
	return f
}

func key(y int) summary.Key {
	return summary.Key{SessionPolicy: "action_1", SessionName: "a1", CalendarYear: y, RegClassID: "car", InUseFuelID: "{'pump gasoline':1.0}"}
}

func TestDiscountEndOfYear(t *testing.T) {
	d := Discounter{DiscountToYear: 2027, Accrual: EndOfYear, SocialRates: []float64{0.03}}
	res := d.Discount(frame(map[int]float64{2027: 100, 2028: 100, 2029: 100}, "cost"), nil)

	wantAV := []float64{97.0874, 94.2596, 91.5142}
	wantPV := []float64{97.0874, 191.347, 282.861}
	for i, y := range []int{2027, 2028, 2029} {
		av, ok := res.Find(key(y), 0.03, model.AnnualValue)
		require.True(t, ok)
		assert.InDelta(t, wantAV[i], av.Values["cost"], 1e-4)
		pv, ok := res.Find(key(y), 0.03, model.PresentValue)
		require.True(t, ok)
		assert.InDelta(t, wantPV[i], pv.Values["cost"], 1e-3)
		undiscounted, ok := res.Find(key(y), 0, model.AnnualValue)
		require.True(t, ok)
		assert.Equal(t, 100.0, undiscounted.Values["cost"])
	}
	eav, ok := res.Find(key(2029), 0.03, model.AnnualizedValue)
	require.True(t, ok)
	assert.Equal(t, 3, eav.Periods)
	assert.InDelta(t, 99.9995, eav.Values["cost"], 1e-3)
}

func TestDiscountStartOfYear(t *testing.T) {
	d := Discounter{DiscountToYear: 2027, Accrual: StartOfYear, SocialRates: []float64{0.03}}
	res := d.Discount(frame(map[int]float64{2027: 100, 2028: 100}, "cost"), nil)
	av, _ := res.Find(key(2027), 0.03, model.AnnualValue)
	assert.Equal(t, 100.0, av.Values["cost"])
	av, _ = res.Find(key(2028), 0.03, model.AnnualValue)
	assert.InDelta(t, 97.0874, av.Values["cost"], 1e-4)
	pv, _ := res.Find(key(2028), 0.03, model.PresentValue)
	eav, _ := res.Find(key(2028), 0.03, model.AnnualizedValue)
	want := pv.Values["cost"] * 0.03 * 1.03 * 1.03 / (1.03*1.03*1.03 - 1)
	assert.InDelta(t, want, eav.Values["cost"], 1e-9)
}

func TestEmbeddedRatesIgnoreSocialRate(t *testing.T) {
	d := Discounter{DiscountToYear: 2027, Accrual: EndOfYear}
	res := d.Discount(frame(map[int]float64{2028: 100}, "cost", "ghg"), map[string]float64{"ghg": 0.025})
	at3, _ := res.Find(key(2028), 0.03, model.AnnualValue)
	at7, _ := res.Find(key(2028), 0.07, model.AnnualValue)
	assert.Equal(t, at3.Values["ghg"], at7.Values["ghg"])
	assert.InDelta(t, 100/(1.025*1.025), at3.Values["ghg"], 1e-9)
	assert.NotEqual(t, at3.Values["cost"], at7.Values["cost"])
}

func TestYearsBeforeDiscountYear(t *testing.T) {
	d := Discounter{DiscountToYear: 2030, Accrual: EndOfYear, SocialRates: []float64{0.07}}
	res := d.Discount(frame(map[int]float64{2028: 50, 2030: 100}, "cost"), nil)
	pv, _ := res.Find(key(2028), 0.07, model.PresentValue)
	assert.Equal(t, 50.0, pv.Values["cost"])
	eav, _ := res.Find(key(2028), 0.07, model.AnnualizedValue)
	assert.Equal(t, 50.0, eav.Values["cost"])
	pv, _ = res.Find(key(2030), 0.07, model.PresentValue)
	assert.InDelta(t, 100/1.07, pv.Values["cost"], 1e-9)
}

func TestParseAccrual(t *testing.T) {
	a, err := ParseAccrual("beginning-of-year")
	require.NoError(t, err)
	assert.Equal(t, StartOfYear, a)
	_, err = ParseAccrual("mid-year")
	assert.Error(t, err)
}
