package summary

import (
	"sort"

	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/model"
)

// ConsumerKey groups the model-year period view.
type ConsumerKey struct {
	SessionPolicy  model.SessionPolicy
	SessionName    string
	ModelYear      int
	BodyStyle      string
	InUseFuelID    string
	PowertrainType model.PowertrainType
}

// ConsumerRow holds period totals plus per-vehicle and per-mile columns.
type ConsumerRow struct {
	ConsumerKey
	Vehicles float64
	Miles    float64
	Values   map[string]float64
}

// ConsumerFrame is the model-year period view of one record type.
type ConsumerFrame struct {
	Columns []string
	Rows    []*ConsumerRow
}

// PerVehicle and PerMile name the derived columns.
func PerVehicle(col string) string { return col + "_per_vehicle" }
func PerMile(col string) string    { return col + "_per_mile" }

// Consumer sums the first years of each analysis-fleet vehicle's life by
// model year. Registered count at age 0 is the number of vehicles sold.
func Consumer[T any, P interface {
	*T
	effects.Record
}](rows []T, years int, spec Spec) *ConsumerFrame {
	out := &ConsumerFrame{}
	index := map[ConsumerKey]*ConsumerRow{}
	for i := range rows {
		rec := P(&rows[i])
		id := rec.Ident()
		if id.VehicleID.Legacy || id.Age >= years {
			continue
		}
		fields := rec.Fields()
		if out.Columns == nil {
			for _, fd := range fields {
				if spec.Drop[fd.Name] {
					continue
				}
				if _, ok := spec.Weighted[fd.Name]; ok {
					continue
				}
				out.Columns = append(out.Columns, fd.Name)
			}
		}
		k := ConsumerKey{
			SessionPolicy: id.SessionPolicy, SessionName: id.SessionName, ModelYear: id.ModelYear,
			BodyStyle: id.BodyStyle, InUseFuelID: id.InUseFuelID, PowertrainType: id.BaseYearPowertrainType,
		}
		r, ok := index[k]
		if !ok {
			r = &ConsumerRow{ConsumerKey: k, Values: map[string]float64{}}
			index[k] = r
			out.Rows = append(out.Rows, r)
		}
		if id.Age == 0 {
			r.Vehicles += id.RegisteredCount
		}
		r.Miles += id.VMT
		for _, fd := range fields {
			if spec.Drop[fd.Name] {
				continue
			}
			if _, ok := spec.Weighted[fd.Name]; ok {
				continue
			}
			r.Values[fd.Name] += fd.Value
		}
	}
	base := append([]string(nil), out.Columns...)
	for _, c := range base {
		out.Columns = append(out.Columns, PerVehicle(c), PerMile(c))
	}
	for _, r := range out.Rows {
		for _, c := range base {
			if r.Vehicles > 0 {
				r.Values[PerVehicle(c)] = r.Values[c] / r.Vehicles
			}
			if r.Miles > 0 {
				r.Values[PerMile(c)] = r.Values[c] / r.Miles
			}
		}
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i].ConsumerKey, out.Rows[j].ConsumerKey
		if a.SessionName != b.SessionName {
			return a.SessionName < b.SessionName
		}
		if a.ModelYear != b.ModelYear {
			return a.ModelYear < b.ModelYear
		}
		if a.BodyStyle != b.BodyStyle {
			return a.BodyStyle < b.BodyStyle
		}
		if a.InUseFuelID != b.InUseFuelID {
			return a.InUseFuelID < b.InUseFuelID
		}
		return a.PowertrainType < b.PowertrainType
	})
	return out
}

// MergeConsumer concatenates the rows of several sessions.
func MergeConsumer(frames ...*ConsumerFrame) *ConsumerFrame {
	out := &ConsumerFrame{}
	for _, f := range frames {
		if f == nil {
			continue
		}
		if out.Columns == nil {
			out.Columns = f.Columns
		}
		out.Rows = append(out.Rows, f.Rows...)
	}
	return out
}
