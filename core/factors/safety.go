package factors

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/table"
)

var FatalityRatesTemplate = table.Template{
	Name:    "fatality_rates",
	Version: "0.1",
	Columns: []string{"model_year", "age", "average_fatalities_per_billion_miles"},
}

var SafetyValuesTemplate = table.Template{
	Name:    "safety_values",
	Version: "0.1",
	Columns: []string{"body_style", "nhtsa_safety_class", "threshold_lbs", "change_per_100_lbs_below_threshold", "change_per_100_lbs_at_or_above_threshold"},
}

// FatalityRates is the baseline fatalities per billion miles by model year
// and age.
type FatalityRates struct {
	modelYears []int
	ages       map[int][]int
	values     map[[2]int]float64
}

// NewFatalityRates indexes (model_year, age) → rate.
func NewFatalityRates(values map[[2]int]float64) *FatalityRates {
	f := &FatalityRates{ages: map[int][]int{}, values: values}
	for k := range values {
		my, age := k[0], k[1]
		if _, ok := f.ages[my]; !ok {
			f.modelYears = append(f.modelYears, my)
		}
		f.ages[my] = append(f.ages[my], age)
	}
	sort.Ints(f.modelYears)
	for my := range f.ages {
		sort.Ints(f.ages[my])
	}
	return f
}

// FatalityRatesFromTable reads a fatality rate table.
func FatalityRatesFromTable(t *table.Table) (*FatalityRates, error) {
	values := map[[2]int]float64{}
	err := t.Each(func(r *table.Row) error {
		values[[2]int{r.Int("model_year"), r.Int("age")}] = r.Float("average_fatalities_per_billion_miles")
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: no rows", FatalityRatesTemplate.Name)
	}
	return NewFatalityRates(values), nil
}

// Rate returns fatalities per billion miles. The model year is clamped to the
// tabulated range; ages past the last tabulated age use the last age.
func (f *FatalityRates) Rate(modelYear, age int) float64 {
	my := modelYear
	if my < f.modelYears[0] {
		my = f.modelYears[0]
	}
	if last := f.modelYears[len(f.modelYears)-1]; my > last {
		my = last
	}
	if _, ok := f.ages[my]; !ok {
		i := sort.SearchInts(f.modelYears, my)
		my = f.modelYears[i-1]
	}
	ages := f.ages[my]
	i := sort.SearchInts(ages, age+1)
	a := ages[0]
	if i > 0 {
		a = ages[i-1]
	}
	return f.values[[2]int{my, a}]
}

// SafetyValue is the mass-fatality relationship of a body style.
type SafetyValue struct {
	BodyStyle       string
	SafetyClass     string
	ThresholdLbs    float64
	ChangeBelow     float64
	ChangeAtOrAbove float64
}

// SafetyValues maps body styles to their mass-fatality relationship.
type SafetyValues map[string]SafetyValue

// SafetyValuesFromTable reads a safety value table.
func SafetyValuesFromTable(t *table.Table) (SafetyValues, error) {
	out := SafetyValues{}
	err := t.Each(func(r *table.Row) error {
		v := SafetyValue{
			BodyStyle:       r.String("body_style"),
			SafetyClass:     r.String("nhtsa_safety_class"),
			ThresholdLbs:    r.Float("threshold_lbs"),
			ChangeBelow:     r.Float("change_per_100_lbs_below_threshold"),
			ChangeAtOrAbove: r.Float("change_per_100_lbs_at_or_above_threshold"),
		}
		out[v.BodyStyle] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the value for bodyStyle.
func (s SafetyValues) Get(bodyStyle string) (SafetyValue, error) {
	v, ok := s[bodyStyle]
	if !ok {
		return SafetyValue{}, fmt.Errorf("%s: no row for body style %q", SafetyValuesTemplate.Name, bodyStyle)
	}
	return v, nil
}
