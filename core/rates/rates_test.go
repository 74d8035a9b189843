package rates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/expr"
	"github.com/kilianp07/fleeteffects/core/table"
)

func mustRate(t *testing.T, name, variable, eq string) *Rate {
	t.Helper()
	r, err := NewRate(name, variable, eq, 0, 0)
	require.NoError(t, err)
	return r
}

func TestLinearFallbackAndYearCap(t *testing.T) {
	r, err := NewRate("x", VarCalendarYear, "", 2, 1)
	require.NoError(t, err)
	r.LastYear = 2030
	assert.Equal(t, 4061.0, r.EvalYear(2030))
	assert.Equal(t, 4061.0, r.EvalYear(2045))

	_, err = NewRate("x", VarAge, "age +", 0, 0)
	assert.ErrorIs(t, err, expr.ErrBadExpression)
	_, err = NewRate("x", "speed", "", 0, 0)
	assert.Error(t, err)
}

func eguFixture(t *testing.T) *EGU {
	low := map[string]*Rate{
		KWhDemandMetric:      mustRate(t, KWhDemandMetric, VarCalendarYear, "5.0e12"),
		KWhConsumptionMetric: mustRate(t, KWhConsumptionMetric, VarCalendarYear, "1.0e11"),
		"pm25_grams_per_kwh": mustRate(t, "pm25_grams_per_kwh", VarCalendarYear, "0.020"),
		"sox_grams_per_kwh":  mustRate(t, "sox_grams_per_kwh", VarCalendarYear, "0.001 * (2026 - calendar_year)"),
	}
	high := map[string]*Rate{
		KWhDemandMetric:      mustRate(t, KWhDemandMetric, VarCalendarYear, "5.5e12"),
		"pm25_grams_per_kwh": mustRate(t, "pm25_grams_per_kwh", VarCalendarYear, "0.010"),
		"sox_grams_per_kwh":  mustRate(t, "sox_grams_per_kwh", VarCalendarYear, "0.001 * (2026 - calendar_year)"),
	}
	e, err := NewEGU(low, high)
	require.NoError(t, err)
	return e
}

func TestEGUInterpolation(t *testing.T) {
	s := eguFixture(t).Session()
	got, err := s.Rates(2025, 2.5e11, []string{"pm25_grams_per_kwh"})
	require.NoError(t, err)
	assert.InDelta(t, 0.017, got[0], 1e-12)

	// cached: a different demand in the same year returns the first value
	again, err := s.Rates(2025, 9e11, []string{"pm25_grams_per_kwh"})
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEGUNonPositiveUsesPriorYear(t *testing.T) {
	s := eguFixture(t).Session()
	v25, err := s.Rates(2025, 1e11, []string{"sox_grams_per_kwh"})
	require.NoError(t, err)
	assert.InDelta(t, 0.001, v25[0], 1e-12)
	v26, err := s.Rates(2026, 1e11, []string{"sox_grams_per_kwh"})
	require.NoError(t, err)
	assert.InDelta(t, 0.001, v26[0], 1e-12)

	fresh := eguFixture(t).Session()
	v30, err := fresh.Rates(2030, 1e11, []string{"sox_grams_per_kwh"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v30[0])

	_, err = fresh.Rates(2030, 1e11, []string{"hg_grams_per_kwh"})
	assert.ErrorIs(t, err, ErrMissingRate)
}

func TestVehicleSelection(t *testing.T) {
	v, err := NewVehicles(16)
	require.NoError(t, err)
	v.Add(2020, "passenger car", "car", "pump gasoline", mustRate(t, "nox_exhaust_grams_per_mile", VarAge, "0.01 * age"))
	v.Add(2027, "passenger car", "car", "pump gasoline", mustRate(t, "nox_exhaust_grams_per_mile", VarAge, "0.001 * age"))
	v.Add(2020, "passenger car", "car", "pump gasoline", mustRate(t, "pm25_brakewear_grams_per_mile", VarOdometer, "1e-6 * odometer"))

	specs := []VehicleRateSpec{perMile("nox_exhaust_grams_per_mile", NOx), perMile("pm25_brakewear_grams_per_mile", PM25)}
	q := VehicleQuery{SourceType: "passenger car", RegClass: "car", Fuel: "pump gasoline", ModelYear: 2025, Age: 5, Odometer: 50000}
	got, err := v.Rates(q, specs)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, got[0], 1e-12)
	assert.InDelta(t, 0.05, got[1], 1e-12)

	q.ModelYear = 2030
	got, err = v.Rates(q, specs[:1])
	require.NoError(t, err)
	assert.InDelta(t, 0.005, got[0], 1e-12)

	q.ModelYear = 2010
	got, err = v.Rates(q, specs[:1])
	require.NoError(t, err)
	assert.InDelta(t, 0.05, got[0], 1e-12, "earliest cohort is used for older model years")

	q.Fuel = "pump diesel"
	_, err = v.Rates(q, specs)
	assert.ErrorIs(t, err, ErrMissingRate)
}

func TestRefineryFactorsFromTable(t *testing.T) {
	src := "input_template_name,emission_factors_refinery,input_template_version,0.2\n" +
		"calendar_year,in_use_fuel_id,voc_grams_per_gallon,co_grams_per_gallon\n" +
		"2020,pump gasoline,1.0,2.0\n2025,pump gasoline,0.5,1.0\n"
	tb, err := table.Parse(strings.NewReader(src), RefineryFactorsTemplate)
	require.NoError(t, err)
	f, err := RefineryFactorsFromTable(tb)
	require.NoError(t, err)
	names := []string{RefineryRateName(VOC), RefineryRateName(CO)}
	for year, want := range map[int][]float64{2010: {1, 2}, 2023: {1, 2}, 2025: {0.5, 1}, 2040: {0.5, 1}} {
		got, err := f.Rates(year, "pump gasoline", names)
		require.NoError(t, err)
		assert.Equal(t, want, got, year)
	}
	_, err = f.Rates(2025, "pump diesel", names)
	assert.ErrorIs(t, err, ErrMissingRate)
}

func TestEGUFromTable(t *testing.T) {
	src := "input_template_name,emission_rates_egu,input_template_version,0.3\n" +
		"case,rate_name,independent_variable,last_year,slope_rate,intercept_rate,equation_rate\n" +
		"low_bound,kwh_demand_metric,calendar_year,2050,0,5e12,\n" +
		"low_bound,kwh_consumption_metric,calendar_year,2050,0,1e11,\n" +
		"high_bev,kwh_demand_metric,calendar_year,2050,0,5.5e12,\n" +
		"low_bound,pm25_grams_per_kwh,calendar_year,2050,0,0,0.02\n" +
		"high_bev,pm25_grams_per_kwh,calendar_year,2050,0,0,0.01\n"
	tb, err := table.Parse(strings.NewReader(src), EGUTemplate)
	require.NoError(t, err)
	e, err := EGUFromTable(tb)
	require.NoError(t, err)
	got, err := e.Session().Rates(2025, 2.5e11, []string{EGURateName(PM25)})
	require.NoError(t, err)
	assert.InDelta(t, 0.017, got[0], 1e-12)
}

func TestRateSetSizes(t *testing.T) {
	assert.Len(t, GasolineRates, 33)
	assert.Len(t, DieselRates, 21)
	assert.Len(t, ElectricRates, 2)
	assert.Equal(t, DieselRates, RatesForFuel("pump diesel"))
}
