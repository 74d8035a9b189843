package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFuelShares(t *testing.T) {
	cases := []struct {
		in    string
		canon string
		class FuelingClass
	}{
		{"{'pump gasoline':1.0}", "{'pump gasoline':1.0}", FuelingICE},
		{"{'US electricity':1.0}", "{'US electricity':1.0}", FuelingBEV},
		{"{'pump gasoline': 0.4, 'US electricity': 0.6}", "{'US electricity':0.6, 'pump gasoline':0.4}", FuelingICE},
		{`{"pump diesel":1}`, "{'pump diesel':1.0}", FuelingICE},
	}
	for _, c := range cases {
		f, err := ParseFuelShares(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.canon, f.String())
		assert.Equal(t, c.class, f.FuelingClass())
		assert.Equal(t, c.class, FuelingClassOf(f.String()))
	}
}

func TestParseFuelSharesErrors(t *testing.T) {
	for _, in := range []string{"", "pump gasoline", "{}", "{'pump gasoline':0.5}", "{'pump gasoline':x}"} {
		_, err := ParseFuelShares(in)
		assert.Error(t, err, in)
	}
}

func TestVehicleIDNamespaces(t *testing.T) {
	a, err := ParseAnalysisID(42)
	require.NoError(t, err)
	assert.False(t, a.Legacy)
	assert.Equal(t, "42", a.String())
	assert.Equal(t, LegacyIDStart+3, LegacyID(3).Int())
	assert.NotEqual(t, AnalysisID(3), LegacyID(3))
	_, err = ParseAnalysisID(LegacyIDStart)
	assert.Error(t, err)
}

func TestUseClassAndPowertrain(t *testing.T) {
	v := Vehicle{Name: "ICE Pickup", InUseFuel: MustFuelShares("{'pump gasoline':1.0}"), MarketClassID: "pickup.ICE"}
	assert.Equal(t, "truck", v.UseClass())
	assert.Equal(t, PowertrainICE, v.Powertrain())
	v = Vehicle{Name: "BEV car", InUseFuel: MustFuelShares("{'US electricity':1.0}"), MarketClassID: "sedan.BEV"}
	assert.Equal(t, "car", v.UseClass())
	assert.Equal(t, PowertrainBEV, v.Powertrain())
	assert.Equal(t, "suv", Vehicle{Name: LegacyName(BodyCUVSUV)}.UseClass())
	assert.True(t, SessionPolicy("action_2").IsAction())
	assert.False(t, PolicyNoAction.IsAction())
}
