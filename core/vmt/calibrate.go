// Package vmt recalibrates session stock and miles to the context totals and
// applies the fuel-cost rebound response.
package vmt

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/model"
)

// Adjustment scales a calendar year's stock and miles.
type Adjustment struct {
	Stock float64
	VMT   float64
}

// Adjustments are keyed by calendar year.
type Adjustments map[int]Adjustment

// Totals sums registered count and vmt per calendar year.
func Totals(sets ...[]model.AnnualDatum) map[int]fleet.ContextTotals {
	stock := map[int][]float64{}
	miles := map[int][]float64{}
	for _, rows := range sets {
		for _, d := range rows {
			stock[d.CalendarYear] = append(stock[d.CalendarYear], d.RegisteredCount)
			miles[d.CalendarYear] = append(miles[d.CalendarYear], d.VMT)
		}
	}
	out := make(map[int]fleet.ContextTotals, len(stock))
	for y := range stock {
		out[y] = fleet.ContextTotals{Stock: floats.Sum(stock[y]), VMT: floats.Sum(miles[y])}
	}
	return out
}

// Calibrate returns per-year factors forcing the combined analysis and legacy
// totals onto the context totals for every year in [first, last].
func Calibrate(ctx fleet.ContextStockVMT, analysis, legacy []model.AnnualDatum, first, last int) (Adjustments, error) {
	totals := Totals(analysis, legacy)
	adj := Adjustments{}
	for y := first; y <= last; y++ {
		target, err := ctx.Year(y)
		if err != nil {
			return nil, err
		}
		got := totals[y]
		if got.Stock <= 0 || got.VMT <= 0 {
			return nil, fmt.Errorf("calendar year %d: session has no stock or vmt to calibrate", y)
		}
		adj[y] = Adjustment{Stock: target.Stock / got.Stock, VMT: target.VMT / got.VMT}
	}
	return adj, nil
}

// Apply returns analysis-fleet rows with stock and miles scaled by the year's
// factors.
func (a Adjustments) Apply(rows []model.AnnualDatum) []model.AnnualDatum {
	out := make([]model.AnnualDatum, len(rows))
	for i, d := range rows {
		f, ok := a[d.CalendarYear]
		if !ok {
			f = Adjustment{Stock: 1, VMT: 1}
		}
		d.RegisteredCount *= f.Stock
		d.VMT *= f.VMT
		if d.RegisteredCount > 0 {
			d.AnnualVMT = d.VMT / d.RegisteredCount
		}
		d.ContextVMTAdjustment = f.VMT
		out[i] = d
	}
	return out
}

// ApplyLegacy scales legacy rows and carries their odometers forward. The
// first projected year of a vehicle rebases its odometer on the projected
// value: odometer - annual_vmt_original + annual_vmt_adjusted.
func (a Adjustments) ApplyLegacy(rows []model.AnnualDatum) []model.AnnualDatum {
	out := make([]model.AnnualDatum, len(rows))
	copy(out, rows)
	fleet.SortAnnual(out)
	prior := map[model.VehicleID]model.AnnualDatum{}
	for i := range out {
		d := &out[i]
		f, ok := a[d.CalendarYear]
		if !ok {
			f = Adjustment{Stock: 1, VMT: 1}
		}
		originalAnnual := d.AnnualVMT
		d.RegisteredCount *= f.Stock
		d.VMT *= f.VMT
		if d.RegisteredCount > 0 {
			d.AnnualVMT = d.VMT / d.RegisteredCount
		}
		d.ContextVMTAdjustment = f.VMT
		if p, ok := prior[d.VehicleID]; ok && p.CalendarYear == d.CalendarYear-1 {
			d.Odometer = p.Odometer + d.AnnualVMT
		} else {
			d.Odometer = d.Odometer - originalAnnual + d.AnnualVMT
		}
		prior[d.VehicleID] = *d
	}
	return out
}

// RecomputeOdometer sets each vehicle's odometer to the running sum of its
// annual miles in age order.
func RecomputeOdometer(rows []model.AnnualDatum) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := rows[idx[i]], rows[idx[j]]
		if a.VehicleID != b.VehicleID {
			return a.VehicleID.Int() < b.VehicleID.Int()
		}
		return a.Age < b.Age
	})
	var last model.VehicleID
	running := 0.0
	for n, i := range idx {
		d := &rows[i]
		if n == 0 || d.VehicleID != last {
			running = 0
			last = d.VehicleID
		}
		running += d.AnnualVMT
		d.Odometer = running
	}
}
