package factors

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/table"
)

var GeneralInputsTemplate = table.Template{
	Name:    "general_inputs_for_effects",
	Version: "0.1",
	Columns: []string{"item", "value"},
}

// GeneralInputs are the unit conversions and scalars shared by all effects.
type GeneralInputs struct {
	GalPerBbl                float64
	E0InRetailGasoline       float64
	E0EnergyDensityRatio     float64
	DieselEnergyDensityRatio float64
	GramsPerUSTon            float64
	GramsPerMetricTon        float64
	// RefiningReduction scales refinery emissions of liquid fuel consumed.
	RefiningReduction     float64
	YearsInConsumerView   int
	MaintenanceCurveMiles float64
}

// GeneralInputsFromTable reads the item/value table.
func GeneralInputsFromTable(t *table.Table) (GeneralInputs, error) {
	items := map[string]float64{}
	err := t.Each(func(r *table.Row) error {
		items[r.String("item")] = r.Float("value")
		return nil
	})
	if err != nil {
		return GeneralInputs{}, err
	}
	required := []string{
		"gal_per_bbl", "e0_in_retail_gasoline", "e0_energy_density_ratio", "diesel_energy_density_ratio",
		"grams_per_us_ton", "grams_per_metric_ton", "fuel_reduction_leading_to_reduced_domestic_refining",
		"years_in_consumer_view",
	}
	for _, k := range required {
		if _, ok := items[k]; !ok {
			return GeneralInputs{}, fmt.Errorf("%w: %s lacks item %s", table.ErrBadTemplateHeader, GeneralInputsTemplate.Name, k)
		}
	}
	g := GeneralInputs{
		GalPerBbl:                items["gal_per_bbl"],
		E0InRetailGasoline:       items["e0_in_retail_gasoline"],
		E0EnergyDensityRatio:     items["e0_energy_density_ratio"],
		DieselEnergyDensityRatio: items["diesel_energy_density_ratio"],
		GramsPerUSTon:            items["grams_per_us_ton"],
		GramsPerMetricTon:        items["grams_per_metric_ton"],
		RefiningReduction:        items["fuel_reduction_leading_to_reduced_domestic_refining"],
		YearsInConsumerView:      int(items["years_in_consumer_view"]),
		MaintenanceCurveMiles:    225000,
	}
	if v, ok := items["maintenance_curve_miles"]; ok && v > 0 {
		g.MaintenanceCurveMiles = v
	}
	if g.GalPerBbl <= 0 || g.GramsPerUSTon <= 0 || g.GramsPerMetricTon <= 0 {
		return GeneralInputs{}, fmt.Errorf("%s: unit conversions must be positive", GeneralInputsTemplate.Name)
	}
	return g, nil
}
