// Package costcurves turns the maintenance, repair and refueling tables into
// per-mile and per-gallon cost functions. All curves are built once per batch
// in analysis dollars.
package costcurves

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/table"
)

var MaintenanceTemplate = table.Template{
	Name:    "maintenance_cost",
	Version: "0.2",
	Columns: []string{"item", "miles_per_event_ICE", "miles_per_event_HEV", "miles_per_event_PHEV", "miles_per_event_BEV", "dollars_per_event", "dollar_basis"},
}

var maintenancePowertrains = []model.PowertrainType{model.PowertrainICE, model.PowertrainHEV, model.PowertrainPHEV, model.PowertrainBEV}

// Maintenance is a linear cost-per-mile curve in odometer per powertrain.
type Maintenance struct {
	curveMiles float64
	cumulative map[model.PowertrainType]float64
}

// MaintenanceItem is one scheduled maintenance event.
type MaintenanceItem struct {
	Item            string
	MilesPerEvent   map[model.PowertrainType]float64
	DollarsPerEvent float64
}

// NewMaintenance sums each powertrain's event costs over curveMiles.
func NewMaintenance(items []MaintenanceItem, curveMiles float64) (*Maintenance, error) {
	if curveMiles <= 0 {
		return nil, fmt.Errorf("maintenance curve miles must be positive, got %g", curveMiles)
	}
	m := &Maintenance{curveMiles: curveMiles, cumulative: map[model.PowertrainType]float64{}}
	for _, it := range items {
		for _, pt := range maintenancePowertrains {
			miles := it.MilesPerEvent[pt]
			if miles <= 0 {
				continue
			}
			m.cumulative[pt] += it.DollarsPerEvent * curveMiles / miles
		}
	}
	return m, nil
}

// MaintenanceFromTable reads the table in analysis dollars.
func MaintenanceFromTable(t *table.Table, d *deflators.Deflators, basis int, curveMiles float64) (*Maintenance, error) {
	var items []MaintenanceItem
	err := t.Each(func(r *table.Row) error {
		it := MaintenanceItem{Item: r.String("item"), MilesPerEvent: map[model.PowertrainType]float64{}, DollarsPerEvent: r.Float("dollars_per_event")}
		for _, pt := range maintenancePowertrains {
			it.MilesPerEvent[pt] = r.Float("miles_per_event_" + string(pt))
		}
		db := r.Int("dollar_basis")
		if err := d.Adjust(&db, basis, &it.DollarsPerEvent); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewMaintenance(items, curveMiles)
}

func maintenanceColumn(pt model.PowertrainType) model.PowertrainType {
	if pt == model.PowertrainMHEV || pt == "" {
		return model.PowertrainICE
	}
	return pt
}

// Slope is the $/mile increase per odometer mile. The curve starts at zero so
// that its integral over the curve miles equals the cumulative event cost.
func (m *Maintenance) Slope(pt model.PowertrainType) float64 {
	c := m.cumulative[maintenanceColumn(pt)]
	return 2 * c / (m.curveMiles * m.curveMiles)
}

// CumulativeCost is the total event cost over the curve miles.
func (m *Maintenance) CumulativeCost(pt model.PowertrainType) float64 {
	return m.cumulative[maintenanceColumn(pt)]
}

// RatePerMile is slope*odometer; the intercept is zero.
func (m *Maintenance) RatePerMile(pt model.PowertrainType, odometer float64) float64 {
	return m.Slope(pt) * odometer
}
