// Package discount turns undiscounted annual frames into annual, present and
// equivalent annualized value series.
package discount

import (
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/summary"
)

// Accrual selects when within a year costs are assumed to occur.
type Accrual int

const (
	EndOfYear Accrual = iota
	StartOfYear
)

// ParseAccrual reads the batch setting value.
func ParseAccrual(s string) (Accrual, error) {
	switch s {
	case "end-of-year", "end_of_year", "":
		return EndOfYear, nil
	case "beginning-of-year", "start-of-year", "beginning_of_year", "start_of_year":
		return StartOfYear, nil
	}
	return EndOfYear, fmt.Errorf("unknown cost accrual %q", s)
}

func (a Accrual) String() string {
	if a == StartOfYear {
		return "beginning-of-year"
	}
	return "end-of-year"
}

func (a Accrual) offset() int {
	if a == StartOfYear {
		return 1
	}
	return 0
}

// DefaultSocialRates are applied to non-emission attributes.
var DefaultSocialRates = []float64{0.03, 0.07}

// Discounter holds the batch discounting settings.
type Discounter struct {
	DiscountToYear int
	Accrual        Accrual
	SocialRates    []float64
}

// Row is one discounted output row.
type Row struct {
	summary.Key
	DiscountRate float64
	Series       model.Series
	Periods      int
	Values       map[string]float64
}

// Result is a discounted frame.
type Result struct {
	Columns []string
	Rows    []*Row
}

// Select keeps the rows of one session policy.
func (r *Result) Select(policy model.SessionPolicy) *Result {
	out := &Result{Columns: r.Columns}
	for _, row := range r.Rows {
		if row.SessionPolicy == policy {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Merge concatenates results sharing a column list.
func Merge(results ...*Result) *Result {
	out := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		if out.Columns == nil {
			out.Columns = r.Columns
		}
		out.Rows = append(out.Rows, r.Rows...)
	}
	return out
}

// Exponent returns the discounting exponent for year.
func (d Discounter) Exponent(year int) int {
	e := year - d.DiscountToYear + 1 - d.Accrual.offset()
	if e < 0 {
		return 0
	}
	return e
}

// Periods returns the number of annualization periods ending at year.
func (d Discounter) Periods(year int) int {
	return year - d.DiscountToYear + 1
}

// Value discounts v from year at rate.
func (d Discounter) Value(v, rate float64, year int) float64 {
	return v / math.Pow(1+rate, float64(d.Exponent(year)))
}

// Annualize returns the equivalent annualized value of pv over periods.
func (d Discounter) Annualize(pv, rate float64, periods int) float64 {
	n := float64(periods)
	g := math.Pow(1+rate, n)
	den := math.Pow(1+rate, n+float64(d.Accrual.offset())) - 1
	if den == 0 {
		return pv / n
	}
	return pv * rate * g / den
}

type stream struct {
	session summary.Key
	reg     string
	fuel    string
}

// Discount produces rate 0 annual rows plus annual, present and annualized
// rows for every social rate. Attributes in embedded carry their own rate
// whatever social rate row they sit in.
func (d Discounter) Discount(f *summary.Frame, embedded map[string]float64) *Result {
	rates := d.SocialRates
	if len(rates) == 0 {
		rates = DefaultSocialRates
	}
	res := &Result{Columns: append([]string(nil), f.Columns...)}
	streams := map[stream][]*summary.Row{}
	var order []stream
	for _, r := range f.Rows() {
		s := stream{
			session: summary.Key{SessionPolicy: r.SessionPolicy, SessionName: r.SessionName},
			reg:     r.RegClassID,
			fuel:    r.InUseFuelID,
		}
		if _, ok := streams[s]; !ok {
			order = append(order, s)
		}
		streams[s] = append(streams[s], r)
	}

	for _, r := range f.Rows() {
		res.Rows = append(res.Rows, &Row{
			Key: r.Key, Series: model.AnnualValue, Periods: d.Periods(r.CalendarYear), Values: copyValues(r.Values),
		})
	}
	for _, social := range rates {
		for _, s := range order {
			res.Rows = append(res.Rows, d.stream(streams[s], res.Columns, social, embedded)...)
		}
	}
	sort.SliceStable(res.Rows, func(i, j int) bool { return lessRow(res.Rows[i], res.Rows[j]) })
	return res
}

func (d Discounter) stream(rows []*summary.Row, columns []string, social float64, embedded map[string]float64) []*Row {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CalendarYear < rows[j].CalendarYear })
	rateOf := func(c string) float64 {
		if r, ok := embedded[c]; ok {
			return r
		}
		return social
	}
	cum := make(map[string]float64, len(columns))
	out := make([]*Row, 0, 3*len(rows))
	for _, r := range rows {
		year := r.CalendarYear
		periods := d.Periods(year)
		av := &Row{Key: r.Key, DiscountRate: social, Series: model.AnnualValue, Periods: periods, Values: map[string]float64{}}
		pv := &Row{Key: r.Key, DiscountRate: social, Series: model.PresentValue, Periods: periods, Values: map[string]float64{}}
		eav := &Row{Key: r.Key, DiscountRate: social, Series: model.AnnualizedValue, Periods: periods, Values: map[string]float64{}}
		for _, c := range columns {
			v := r.Values[c]
			rate := rateOf(c)
			a := d.Value(v, rate, year)
			av.Values[c] = a
			if year < d.DiscountToYear {
				pv.Values[c] = v
				eav.Values[c] = a
				continue
			}
			cum[c] += a
			pv.Values[c] = cum[c]
			if periods >= 1 {
				eav.Values[c] = d.Annualize(cum[c], rate, periods)
			} else {
				eav.Values[c] = a
			}
		}
		out = append(out, av, pv, eav)
	}
	return out
}

func copyValues(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func lessRow(a, b *Row) bool {
	if a.SessionPolicy != b.SessionPolicy || a.SessionName != b.SessionName {
		if a.SessionPolicy != b.SessionPolicy {
			return a.SessionPolicy < b.SessionPolicy
		}
		return a.SessionName < b.SessionName
	}
	if a.DiscountRate != b.DiscountRate {
		return a.DiscountRate < b.DiscountRate
	}
	if a.Series != b.Series {
		return a.Series < b.Series
	}
	if a.CalendarYear != b.CalendarYear {
		return a.CalendarYear < b.CalendarYear
	}
	if a.RegClassID != b.RegClassID {
		return a.RegClassID < b.RegClassID
	}
	return a.InUseFuelID < b.InUseFuelID
}

// Find returns the row matching key, rate and series.
func (r *Result) Find(k summary.Key, rate float64, s model.Series) (*Row, bool) {
	for _, row := range r.Rows {
		if row.Key == k && row.DiscountRate == rate && row.Series == s {
			return row, true
		}
	}
	return nil, false
}
