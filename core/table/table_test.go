package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deflatorTemplate = Template{Name: "context_implicit_price_deflators", Version: "0.22", Columns: []string{"calendar_year", "price_deflator"}}

func TestParseReadsGrid(t *testing.T) {
	src := "input_template_name,context_implicit_price_deflators,input_template_version,0.22,notes here\n" +
		"price_deflator,calendar_year,extra\n" +
		"100.5,2020,x\n" +
		",2021,\n" +
		",,\n"
	tb, err := Parse(strings.NewReader(src), deflatorTemplate)
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, "notes here", tb.Comment)
	assert.True(t, tb.HasColumn("extra"))

	var years []int
	var values []float64
	require.NoError(t, tb.Each(func(r *Row) error {
		years = append(years, r.Int("calendar_year"))
		values = append(values, r.Float("price_deflator"))
		return nil
	}))
	assert.Equal(t, []int{2020, 2021}, years)
	assert.Equal(t, []float64{100.5, 0}, values)
}

func TestParseTemplateErrors(t *testing.T) {
	cases := map[string]string{
		"wrong name":     "input_template_name,other,input_template_version,0.22\ncalendar_year,price_deflator\n",
		"wrong version":  "input_template_name,context_implicit_price_deflators,input_template_version,0.3\ncalendar_year,price_deflator\n",
		"missing column": "input_template_name,context_implicit_price_deflators,input_template_version,0.22\ncalendar_year\n",
		"no template":    "calendar_year,price_deflator\n2020,1\n",
	}
	for name, src := range cases {
		_, err := Parse(strings.NewReader(src), deflatorTemplate)
		assert.ErrorIs(t, err, ErrBadTemplateHeader, name)
	}
}

func TestRowConversionErrorStopsIteration(t *testing.T) {
	src := "input_template_name,context_implicit_price_deflators,input_template_version,0.220\n" +
		"calendar_year,price_deflator\n2020,abc\n"
	tb, err := Parse(strings.NewReader(src), deflatorTemplate)
	require.NoError(t, err)
	err = tb.Each(func(r *Row) error {
		_ = r.Float("price_deflator")
		return nil
	})
	assert.ErrorContains(t, err, "line 3")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"), deflatorTemplate)
	assert.ErrorIs(t, err, ErrMissingInputFile)
}

func TestLoaderRecordsModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.csv")
	require.NoError(t, os.WriteFile(path, []byte("input_template_name,context_implicit_price_deflators,input_template_version,0.22\ncalendar_year,price_deflator\n2020,1\n"), 0o644))
	tb, err := Loader{}.Load(path, deflatorTemplate)
	require.NoError(t, err)
	assert.False(t, tb.ModTime.IsZero())
	assert.Equal(t, path, tb.Path)
}
