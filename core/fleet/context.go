package fleet

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/table"
)

var ContextStockVMTTemplate = table.Template{
	Name:    "context_stock_vmt",
	Version: "0.1",
	Columns: []string{"context_id", "case_id", "calendar_year", "stock", "vmt"},
}

// ContextTotals are the context projection's fleet-wide stock and miles.
type ContextTotals struct {
	Stock float64
	VMT   float64
}

// ContextStockVMT is keyed by calendar year.
type ContextStockVMT map[int]ContextTotals

// ContextStockVMTFromTable keeps the rows of one context and case.
func ContextStockVMTFromTable(t *table.Table, contextID, caseID string) (ContextStockVMT, error) {
	out := ContextStockVMT{}
	err := t.Each(func(r *table.Row) error {
		if r.String("context_id") != contextID || r.String("case_id") != caseID {
			return nil
		}
		out[r.Int("calendar_year")] = ContextTotals{Stock: r.Float("stock"), VMT: r.Float("vmt")}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no rows for context %q case %q", ContextStockVMTTemplate.Name, contextID, caseID)
	}
	return out, nil
}

// Year returns the totals of a calendar year.
func (c ContextStockVMT) Year(year int) (ContextTotals, error) {
	v, ok := c[year]
	if !ok {
		return ContextTotals{}, fmt.Errorf("%s: no totals for %d", ContextStockVMTTemplate.Name, year)
	}
	return v, nil
}
