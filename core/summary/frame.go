// Package summary groups per-vehicle effects into annual frames keyed by
// session, calendar year, regulatory class and fuel.
package summary

import (
	"sort"

	"github.com/kilianp07/fleeteffects/core/model"
)

// Key identifies an annual row.
type Key struct {
	SessionPolicy model.SessionPolicy
	SessionName   string
	CalendarYear  int
	RegClassID    string
	InUseFuelID   string
}

// FuelingClass derives BEV/ICE from the fuel mapping.
func (k Key) FuelingClass() model.FuelingClass { return model.FuelingClassOf(k.InUseFuelID) }

// Cell drops the session from a key so rows of different sessions line up.
func (k Key) Cell() Key {
	return Key{CalendarYear: k.CalendarYear, RegClassID: k.RegClassID, InUseFuelID: k.InUseFuelID}
}

// Row is one annual row.
type Row struct {
	Key
	Values map[string]float64
}

// Frame is an ordered set of annual rows sharing a column list.
type Frame struct {
	Columns []string
	rows    []*Row
	index   map[Key]*Row
}

// NewFrame allocates an empty frame.
func NewFrame(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...), index: map[Key]*Row{}}
}

// Row returns the row for k, creating it when absent.
func (f *Frame) Row(k Key) *Row {
	if r, ok := f.index[k]; ok {
		return r
	}
	r := &Row{Key: k, Values: make(map[string]float64, len(f.Columns))}
	f.index[k] = r
	f.rows = append(f.rows, r)
	return r
}

// Lookup returns the row for k.
func (f *Frame) Lookup(k Key) (*Row, bool) {
	r, ok := f.index[k]
	return r, ok
}

// Rows returns rows sorted by session, calendar year, reg class and fuel.
func (f *Frame) Rows() []*Row {
	sort.SliceStable(f.rows, func(i, j int) bool { return less(f.rows[i].Key, f.rows[j].Key) })
	return f.rows
}

// Len is the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

func less(a, b Key) bool {
	if a.SessionPolicy != b.SessionPolicy {
		return policyOrder(a.SessionPolicy) < policyOrder(b.SessionPolicy)
	}
	if a.SessionName != b.SessionName {
		return a.SessionName < b.SessionName
	}
	if a.CalendarYear != b.CalendarYear {
		return a.CalendarYear < b.CalendarYear
	}
	if a.RegClassID != b.RegClassID {
		return a.RegClassID < b.RegClassID
	}
	return a.InUseFuelID < b.InUseFuelID
}

func policyOrder(p model.SessionPolicy) string {
	switch p {
	case model.PolicyContext:
		return "0"
	case model.PolicyNoAction:
		return "1"
	default:
		return "2" + string(p)
	}
}

// Merge appends the rows of other frames. Columns are unioned.
func Merge(frames ...*Frame) *Frame {
	seen := map[string]bool{}
	var cols []string
	for _, f := range frames {
		for _, c := range f.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	out := NewFrame(cols)
	for _, f := range frames {
		for _, r := range f.rows {
			dst := out.Row(r.Key)
			for c, v := range r.Values {
				dst.Values[c] += v
			}
		}
	}
	return out
}

// Delta returns action minus reference on matching (year, reg class, fuel)
// cells. Cells present on one side only count the other side as zero.
func Delta(action, reference *Frame) *Frame {
	out := NewFrame(action.Columns)
	var policy model.SessionPolicy
	var name string
	refCells := map[Key]*Row{}
	for _, r := range reference.rows {
		refCells[r.Cell()] = r
	}
	seen := map[Key]bool{}
	for _, r := range action.rows {
		policy, name = r.SessionPolicy, r.SessionName
		cell := r.Cell()
		seen[cell] = true
		dst := out.Row(r.Key)
		ref := refCells[cell]
		for _, c := range out.Columns {
			v := r.Values[c]
			if ref != nil {
				v -= ref.Values[c]
			}
			dst.Values[c] = v
		}
	}
	for cell, ref := range refCells {
		if seen[cell] {
			continue
		}
		k := cell
		k.SessionPolicy, k.SessionName = policy, name
		dst := out.Row(k)
		for _, c := range out.Columns {
			dst.Values[c] = -ref.Values[c]
		}
	}
	return out
}

// Sessions lists the distinct (policy, name) pairs in order of appearance.
func (f *Frame) Sessions() []Key {
	var out []Key
	seen := map[Key]bool{}
	for _, r := range f.Rows() {
		k := Key{SessionPolicy: r.SessionPolicy, SessionName: r.SessionName}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Select returns the rows of one session as a new frame.
func (f *Frame) Select(policy model.SessionPolicy) *Frame {
	out := NewFrame(f.Columns)
	for _, r := range f.rows {
		if r.SessionPolicy == policy {
			dst := out.Row(r.Key)
			for c, v := range r.Values {
				dst.Values[c] = v
			}
		}
	}
	return out
}
