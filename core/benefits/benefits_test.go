package benefits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/summary"
	"github.com/kilianp07/fleeteffects/core/table"
)

const gasoline = "{'pump gasoline':1.0}"

func parse(t *testing.T, tmpl table.Template, body string) *table.Table {
	t.Helper()
	src := "input_template_name," + tmpl.Name + ",input_template_version," + tmpl.Version + "\n" + body
	tb, err := table.Parse(strings.NewReader(src), tmpl)
	require.NoError(t, err)
	return tb
}

func calculator(t *testing.T, withCriteria bool) *Calculator {
	t.Helper()
	d, err := deflators.New("ip", map[int]float64{2020: 100})
	require.NoError(t, err)

	var cols, vals []string
	for _, gas := range GHGs {
		for _, scope := range Scopes {
			cols = append(cols, factors.SCCColumn(gas, scope, "3.0"))
			if scope == ScopeGlobal {
				vals = append(vals, "50")
			} else {
				vals = append(vals, "5")
			}
		}
	}
	scc, err := factors.SCCFromTable(parse(t, factors.SCCTemplate,
		"calendar_year,dollar_basis,"+strings.Join(cols, ",")+"\n2025,2020,"+strings.Join(vals, ",")+"\n"), d, 2020)
	require.NoError(t, err)

	c := &Calculator{
		SCC:            scc,
		EnergySecurity: factors.NewEnergySecurityFactors(map[int]factors.EnergySecurity{2025: {DollarsPerBbl: 4, ImportShare: 0.9}}),
		Matrix:         Matrix{GHGVariants: []string{"2.5", "3.0"}, CriteriaRates: []string{"3.0"}, CriteriaStudies: []string{"Wu"}},
	}
	if withCriteria {
		crit, err := factors.CriteriaFromTable(parse(t, factors.CriteriaTemplate,
			"calendar_year,source_id,dollar_basis,pm25_Wu_3.0_USD_per_uston,nox_Wu_3.0_USD_per_uston,sox_Wu_3.0_USD_per_uston\n"+
				"2025,car pump gasoline,2020,1000,100,10\n"+
				"2025,egu,2020,2000,200,20\n"+
				"2025,refinery,2020,3000,300,30\n"), d, 2020)
		require.NoError(t, err)
		c.Criteria = crit
	}
	return c
}

func delta(values map[string]float64) *summary.Frame {
	f := summary.NewFrame(nil)
	r := f.Row(summary.Key{SessionPolicy: "action_1", SessionName: "a1", CalendarYear: 2025, RegClassID: "car", InUseFuelID: gasoline})
	for k, v := range values {
		r.Values[k] = v
	}
	return f
}

func TestBenefitsFromReductions(t *testing.T) {
	c := calculator(t, true)
	phys := delta(map[string]float64{
		"total_co2_metrictons":    -10,
		"vehicle_pm25_ustons":     -2,
		"egu_nox_ustons":          1,
		"barrels_of_imported_oil": -100,
	})
	cost := delta(map[string]float64{"drive_value_dollars": 7})

	out, schema := c.Benefits(phys, cost)
	require.Equal(t, 1, out.Len())
	r := out.Rows()[0]

	assert.Equal(t, 500.0, r.Values[GHGColumn("co2", ScopeGlobal, "3.0")])
	assert.Equal(t, 500.0, r.Values[GHGTotalColumn(ScopeGlobal, "3.0")])
	assert.Equal(t, 50.0, r.Values[GHGTotalColumn(ScopeDomestic, "3.0")])
	assert.Equal(t, 2000.0, r.Values[CriteriaColumn("pm25", "vehicle", "Wu", "3.0")])
	assert.Equal(t, -200.0, r.Values[CriteriaColumn("nox", "egu", "Wu", "3.0")])
	assert.Equal(t, 1800.0, r.Values[CriteriaTotalColumn("Wu", "3.0")])
	assert.Equal(t, 400.0, r.Values[ColEnergySecurity])
	assert.Equal(t, 7.0, r.Values[ColDriveValue])

	rates := schema.Rates()
	assert.Equal(t, 0.03, rates[GHGTotalColumn(ScopeGlobal, "3.0")])
	assert.Equal(t, 0.03, rates[CriteriaTotalColumn("Wu", "3.0")])
	_, ok := rates[ColEnergySecurity]
	assert.False(t, ok)
	assert.NotContains(t, schema.Names(), GHGTotalColumn(ScopeGlobal, "2.5"))
}

func TestBenefitsWithoutCriteria(t *testing.T) {
	c := calculator(t, false)
	assert.False(t, c.HasCriteria())
	for _, name := range c.Schema().Names() {
		assert.NotContains(t, name, "criteria")
	}
}

func TestSourceID(t *testing.T) {
	assert.Equal(t, "car pump gasoline", SourceID("car", gasoline))
	assert.Equal(t, "truck pump gasoline", SourceID("truck", "{'US electricity':0.6, 'pump gasoline':0.4}"))
	assert.Equal(t, "car US electricity", SourceID("car", "{'US electricity':1.0}"))
}

func TestEmbeddedRates(t *testing.T) {
	r, err := GHGRate("3.95")
	require.NoError(t, err)
	assert.Equal(t, 0.03, r)
	_, err = GHGRate("4.0")
	assert.Error(t, err)
	assert.NoError(t, DefaultMatrix().Validate())
	assert.Error(t, Matrix{GHGVariants: []string{"9.9"}}.Validate())
}
