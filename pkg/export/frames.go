package export

import (
	"strconv"

	"github.com/kilianp07/fleeteffects/core/discount"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/netbenefit"
	"github.com/kilianp07/fleeteffects/core/summary"
)

var annualKey = []string{"session_policy", "session_name", "calendar_year", "reg_class_id", "in_use_fuel_id", "fueling_class"}

func keyStrings(k summary.Key) []string {
	return []string{
		string(k.SessionPolicy), k.SessionName, strconv.Itoa(k.CalendarYear),
		k.RegClassID, k.InUseFuelID, string(k.FuelingClass()),
	}
}

func values(m map[string]float64, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = formatFloat(m[c])
	}
	return out
}

// WriteRecords writes per-vehicle rows.
func (w Writer) WriteRecords(name string, recs []effects.Record) (string, error) {
	if len(recs) == 0 {
		return w.WriteTable(name, effects.IdentityColumns, nil)
	}
	first := recs[0].Fields()
	header := append([]string(nil), effects.IdentityColumns...)
	for _, f := range first {
		header = append(header, f.Name)
	}
	rows := make([][]string, len(recs))
	for i, r := range recs {
		row := r.Ident().Strings()
		for _, f := range r.Fields() {
			row = append(row, formatFloat(f.Value))
		}
		rows[i] = row
	}
	return w.WriteTable(name, header, rows)
}

// WriteFrame writes an annual frame.
func (w Writer) WriteFrame(name string, f *summary.Frame) (string, error) {
	header := append(append([]string(nil), annualKey...), f.Columns...)
	var rows [][]string
	for _, r := range f.Rows() {
		rows = append(rows, append(keyStrings(r.Key), values(r.Values, f.Columns)...))
	}
	return w.WriteTable(name, header, rows)
}

// WriteDiscounted writes a discounted frame with its rate and series columns.
func (w Writer) WriteDiscounted(name string, res *discount.Result) (string, error) {
	header := append(append([]string(nil), annualKey...), "discount_rate", "series", "periods")
	header = append(header, res.Columns...)
	var rows [][]string
	for _, r := range res.Rows {
		row := append(keyStrings(r.Key), formatFloat(r.DiscountRate), r.Series.String(), strconv.Itoa(r.Periods))
		rows = append(rows, append(row, values(r.Values, res.Columns)...))
	}
	return w.WriteTable(name, header, rows)
}

// WriteSocial writes fleet-level social effects rows.
func (w Writer) WriteSocial(name string, columns []string, rs []*netbenefit.Row) (string, error) {
	header := append([]string{"session_policy", "session_name", "calendar_year", "discount_rate", "series", "periods"}, columns...)
	var rows [][]string
	for _, r := range rs {
		row := []string{
			string(r.SessionPolicy), r.SessionName, strconv.Itoa(r.CalendarYear),
			formatFloat(r.DiscountRate), r.Series.String(), strconv.Itoa(r.Periods),
		}
		rows = append(rows, append(row, values(r.Values, columns)...))
	}
	return w.WriteTable(name, header, rows)
}

// WriteConsumer writes the model-year period view.
func (w Writer) WriteConsumer(name string, f *summary.ConsumerFrame) (string, error) {
	header := append([]string{
		"session_policy", "session_name", "model_year", "body_style", "in_use_fuel_id",
		"base_year_powertrain_type", "vehicles", "period_vmt",
	}, f.Columns...)
	var rows [][]string
	for _, r := range f.Rows {
		row := []string{
			string(r.SessionPolicy), r.SessionName, strconv.Itoa(r.ModelYear), r.BodyStyle, r.InUseFuelID,
			string(r.PowertrainType), formatFloat(r.Vehicles), formatFloat(r.Miles),
		}
		rows = append(rows, append(row, values(r.Values, f.Columns)...))
	}
	return w.WriteTable(name, header, rows)
}
