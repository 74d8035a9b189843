package deflators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/table"
)

func sample(t *testing.T) *Deflators {
	t.Helper()
	d, err := New("ip", map[int]float64{2018: 100, 2020: 105, 2022: 118})
	require.NoError(t, err)
	return d
}

func TestPriceDeflatorCarriesForward(t *testing.T) {
	d := sample(t)
	v, err := d.PriceDeflator(2021)
	require.NoError(t, err)
	assert.Equal(t, 105.0, v)
	v, err = d.PriceDeflator(2040)
	require.NoError(t, err)
	assert.Equal(t, 118.0, v)
	_, err = d.PriceDeflator(2017)
	assert.ErrorIs(t, err, ErrMissingDeflator)
}

func TestAdjustIsIdempotent(t *testing.T) {
	d := sample(t)
	basis := 2018
	a, b := 10.0, 20.0
	require.NoError(t, d.Adjust(&basis, 2022, &a, &b))
	assert.InDelta(t, 11.8, a, 1e-12)
	assert.InDelta(t, 23.6, b, 1e-12)
	assert.Equal(t, 2022, basis)
	require.NoError(t, d.Adjust(&basis, 2022, &a, &b))
	assert.InDelta(t, 11.8, a, 1e-12)

	zero := 0
	c := 5.0
	require.NoError(t, d.Adjust(&zero, 2022, &c))
	assert.Equal(t, 5.0, c)
	assert.Equal(t, 0, zero)
}

func TestAdjustRows(t *testing.T) {
	d := sample(t)
	rows := []Row{
		{DollarBasis: 2020, Values: map[string]float64{"x": 105, "y": 1}},
		{DollarBasis: 0, Values: map[string]float64{"x": 3}},
	}
	require.NoError(t, d.AdjustRows(rows, 2018, "x"))
	assert.InDelta(t, 100, rows[0].Values["x"], 1e-9)
	assert.Equal(t, 1.0, rows[0].Values["y"])
	assert.Equal(t, 2018, rows[0].DollarBasis)
	assert.Equal(t, 3.0, rows[1].Values["x"])

	bad := []Row{{DollarBasis: 2000, Values: map[string]float64{"x": 1}}}
	assert.ErrorIs(t, d.AdjustRows(bad, 2022, "x"), ErrMissingDeflator)
}

func TestFromTable(t *testing.T) {
	src := "input_template_name,context_cpi_price_deflators,input_template_version,0.22\n" +
		"calendar_year,price_deflator\n2020,258.8\n2021,271.0\n"
	tb, err := table.Parse(strings.NewReader(src), CPITemplate)
	require.NoError(t, err)
	d, err := FromTable(tb)
	require.NoError(t, err)
	f, err := d.Factor(2021, 2020)
	require.NoError(t, err)
	assert.InDelta(t, 271.0/258.8, f, 1e-12)
}
