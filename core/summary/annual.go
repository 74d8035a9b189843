package summary

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleeteffects/core/effects"
)

// Spec controls how per-vehicle fields collapse into an annual row. Fields
// are summed unless listed in Weighted (weighted mean by the named weight
// field) or Drop.
type Spec struct {
	Weighted map[string]string
	Drop     map[string]bool
}

var (
	// SafetySpec averages weight quantities by registered count.
	SafetySpec = Spec{
		Weighted: map[string]string{
			"base_year_curbweight_lbs":                 "registered_count",
			"curbweight_lbs":                           "registered_count",
			"lbs_changed":                              "registered_count",
			"threshold_lbs":                            "registered_count",
			"lbs_changed_below_threshold":              "registered_count",
			"lbs_changed_above_threshold":              "registered_count",
			"change_per_100_lbs_below_threshold":       "registered_count",
			"change_per_100_lbs_at_or_above_threshold": "registered_count",
			"rate_change_below_threshold":              "registered_count",
			"rate_change_above_threshold":              "registered_count",
			"fatality_rate_base":                       "vmt",
			"fatality_rate_session":                    "vmt",
		},
		Drop: map[string]bool{"annual_vmt": true, "odometer": true},
	}
	// PhysicalSpec recomputes fleet intensities as travel-weighted means.
	PhysicalSpec = Spec{
		Weighted: map[string]string{
			"onroad_direct_co2e_grams_per_mile": "vmt_liquid_fuel",
			"onroad_direct_kwh_per_mile":        "vmt_electricity",
			"curbweight_lbs":                    "registered_count",
		},
		Drop: map[string]bool{"annual_vmt": true, "odometer": true},
	}
	// CostSpec sums every monetary column.
	CostSpec = Spec{Drop: map[string]bool{"annual_vmt": true, "odometer": true}}
)

type weighted struct {
	x, w []float64
}

// Annual groups records by (session, calendar year, reg class, fuel).
func Annual[T any, P interface {
	*T
	effects.Record
}](rows []T, spec Spec) *Frame {
	var f *Frame
	acc := map[Key]map[string]*weighted{}
	for i := range rows {
		rec := P(&rows[i])
		fields := rec.Fields()
		if f == nil {
			var cols []string
			for _, fd := range fields {
				if !spec.Drop[fd.Name] {
					cols = append(cols, fd.Name)
				}
			}
			f = NewFrame(cols)
		}
		id := rec.Ident()
		k := Key{SessionPolicy: id.SessionPolicy, SessionName: id.SessionName, CalendarYear: id.CalendarYear, RegClassID: id.RegClassID, InUseFuelID: id.InUseFuelID}
		r := f.Row(k)
		byName := make(map[string]float64, len(fields))
		for _, fd := range fields {
			byName[fd.Name] = fd.Value
		}
		for _, fd := range fields {
			if spec.Drop[fd.Name] {
				continue
			}
			if wcol, ok := spec.Weighted[fd.Name]; ok {
				if acc[k] == nil {
					acc[k] = map[string]*weighted{}
				}
				a := acc[k][fd.Name]
				if a == nil {
					a = &weighted{}
					acc[k][fd.Name] = a
				}
				a.x = append(a.x, fd.Value)
				a.w = append(a.w, byName[wcol])
				continue
			}
			r.Values[fd.Name] += fd.Value
		}
	}
	if f == nil {
		return NewFrame(nil)
	}
	for k, cols := range acc {
		r := f.index[k]
		for name, a := range cols {
			r.Values[name] = weightedMean(a.x, a.w)
		}
	}
	return f
}

func weightedMean(x, w []float64) float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return 0
	}
	m := stat.Mean(x, w)
	if math.IsNaN(m) {
		return 0
	}
	return m
}
