// Package fuels provides on-road fuel properties and context fuel prices.
package fuels

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/table"
)

// ErrUnknownFuel is returned for fuels absent from a table.
var ErrUnknownFuel = errors.New("unknown fuel")

var OnroadTemplate = table.Template{
	Name:    "onroad-fuels",
	Version: "0.1",
	Columns: []string{"fuel_id", "start_year", "unit", "direct_co2e_grams_per_unit", "refuel_efficiency", "transmission_efficiency"},
}

// Properties describes a fuel from a start year on.
type Properties struct {
	FuelID                 string
	StartYear              int
	Unit                   string
	DirectCO2eGramsPerUnit float64
	RefuelEfficiency       float64
	TransmissionEfficiency float64
}

// Onroad holds fuel properties by start year.
type Onroad struct {
	byFuel map[string][]Properties
}

// NewOnroad indexes rows by fuel.
func NewOnroad(rows []Properties) *Onroad {
	o := &Onroad{byFuel: map[string][]Properties{}}
	for _, p := range rows {
		o.byFuel[p.FuelID] = append(o.byFuel[p.FuelID], p)
	}
	for f := range o.byFuel {
		ps := o.byFuel[f]
		sort.Slice(ps, func(i, j int) bool { return ps[i].StartYear < ps[j].StartYear })
	}
	return o
}

// OnroadFromTable reads an onroad-fuels table.
func OnroadFromTable(t *table.Table) (*Onroad, error) {
	var rows []Properties
	err := t.Each(func(r *table.Row) error {
		p := Properties{
			FuelID:                 r.String("fuel_id"),
			StartYear:              r.Int("start_year"),
			Unit:                   r.String("unit"),
			DirectCO2eGramsPerUnit: r.Float("direct_co2e_grams_per_unit"),
			RefuelEfficiency:       r.Float("refuel_efficiency"),
			TransmissionEfficiency: r.Float("transmission_efficiency"),
		}
		if p.RefuelEfficiency <= 0 || p.TransmissionEfficiency <= 0 {
			r.Fail(fmt.Errorf("fuel %s: efficiencies must be positive", p.FuelID))
		}
		rows = append(rows, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOnroad(rows), nil
}

// Get returns the properties in effect in year: the latest start_year not
// after year, else the earliest row.
func (o *Onroad) Get(fuelID string, year int) (Properties, error) {
	ps := o.byFuel[fuelID]
	if len(ps) == 0 {
		return Properties{}, fmt.Errorf("%w: %q in %s", ErrUnknownFuel, fuelID, OnroadTemplate.Name)
	}
	i := sort.Search(len(ps), func(i int) bool { return ps[i].StartYear > year })
	if i == 0 {
		return ps[0], nil
	}
	return ps[i-1], nil
}
