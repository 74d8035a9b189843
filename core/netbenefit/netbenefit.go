// Package netbenefit combines discounted cost and benefit frames into the
// social effects tables, one net benefit column per variant combination.
package netbenefit

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/benefits"
	"github.com/kilianp07/fleeteffects/core/discount"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/model"
)

// Costs are the action minus no-action cost attributes subtracted from
// benefits.
var Costs = []string{
	effects.ColNewVehicleMfrCost,
	effects.ColFuelPretax,
	effects.ColMaintenance,
	effects.ColRepair,
	effects.ColRefueling,
	effects.ColCongestion,
	effects.ColNoise,
}

// Column names a net benefit combination. Without criteria the study and
// rate are empty.
func Column(ghgVariant, study, criteriaRate string) string {
	if study == "" {
		return fmt.Sprintf("net_benefit_ghg_%s_dollars", ghgVariant)
	}
	return fmt.Sprintf("net_benefit_ghg_%s_criteria_%s_%s_dollars", ghgVariant, study, criteriaRate)
}

// Combination is one cell of the net benefit matrix.
type Combination struct {
	GHGVariant   string
	Study        string
	CriteriaRate string
}

func (c Combination) Column() string { return Column(c.GHGVariant, c.Study, c.CriteriaRate) }

// Summarizer builds social effects rows for one GHG scope.
type Summarizer struct {
	Scope       string
	GHGVariants []string
	// Criteria is empty when no criteria values were supplied.
	CriteriaRates   []string
	CriteriaStudies []string
}

// Combinations enumerates the matrix, reduced to GHG only without criteria.
func (s Summarizer) Combinations() []Combination {
	var out []Combination
	for _, g := range s.GHGVariants {
		if len(s.CriteriaRates) == 0 || len(s.CriteriaStudies) == 0 {
			out = append(out, Combination{GHGVariant: g})
			continue
		}
		for _, rate := range s.CriteriaRates {
			for _, study := range s.CriteriaStudies {
				out = append(out, Combination{GHGVariant: g, Study: study, CriteriaRate: rate})
			}
		}
	}
	return out
}

// BenefitColumns lists the benefit attributes carried into the social
// effects table for the scope.
func (s Summarizer) BenefitColumns() []string {
	var cols []string
	for _, g := range s.GHGVariants {
		cols = append(cols, benefits.GHGTotalColumn(s.Scope, g))
	}
	for _, rate := range s.CriteriaRates {
		for _, study := range s.CriteriaStudies {
			cols = append(cols, benefits.CriteriaTotalColumn(study, rate))
		}
	}
	return append(cols, benefits.ColEnergySecurity, benefits.ColDriveValue)
}

// Columns is the full column list of a social effects row.
func (s Summarizer) Columns() []string {
	cols := append([]string(nil), Costs...)
	cols = append(cols, s.BenefitColumns()...)
	for _, c := range s.Combinations() {
		cols = append(cols, c.Column())
	}
	return cols
}

// Row is one fleet-level social effects row.
type Row struct {
	SessionPolicy model.SessionPolicy
	SessionName   string
	CalendarYear  int
	DiscountRate  float64
	Series        model.Series
	Periods       int
	Values        map[string]float64
}

type cell struct {
	year   int
	rate   float64
	series model.Series
}

// Summarize collapses reg class and fuel, subtracts no-action costs from
// action costs and nets them against the action session's benefits.
func (s Summarizer) Summarize(actionCost, noActionCost, ben *discount.Result) []*Row {
	rows := map[cell]*Row{}
	get := func(r *discount.Row) *Row {
		k := cell{r.CalendarYear, r.DiscountRate, r.Series}
		row, ok := rows[k]
		if !ok {
			row = &Row{CalendarYear: r.CalendarYear, DiscountRate: r.DiscountRate, Series: r.Series, Periods: r.Periods, Values: map[string]float64{}}
			rows[k] = row
		}
		if r.SessionPolicy.IsAction() {
			row.SessionPolicy, row.SessionName = r.SessionPolicy, r.SessionName
		}
		return row
	}
	for _, r := range actionCost.Rows {
		row := get(r)
		for _, c := range Costs {
			row.Values[c] += r.Values[c]
		}
	}
	if noActionCost != nil {
		for _, r := range noActionCost.Rows {
			row := get(r)
			for _, c := range Costs {
				row.Values[c] -= r.Values[c]
			}
		}
	}
	benefitCols := s.BenefitColumns()
	if ben != nil {
		for _, r := range ben.Rows {
			row := get(r)
			for _, c := range benefitCols {
				row.Values[c] += r.Values[c]
			}
		}
	}

	var out []*Row
	for _, row := range rows {
		if row.SessionPolicy == "" && len(actionCost.Rows) > 0 {
			row.SessionPolicy, row.SessionName = actionCost.Rows[0].SessionPolicy, actionCost.Rows[0].SessionName
		}
		cost := 0.0
		for _, c := range Costs {
			cost += row.Values[c]
		}
		common := row.Values[benefits.ColEnergySecurity] + row.Values[benefits.ColDriveValue]
		for _, comb := range s.Combinations() {
			b := common + row.Values[benefits.GHGTotalColumn(s.Scope, comb.GHGVariant)]
			if comb.Study != "" {
				b += row.Values[benefits.CriteriaTotalColumn(comb.Study, comb.CriteriaRate)]
			}
			row.Values[comb.Column()] = b - cost
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DiscountRate != b.DiscountRate {
			return a.DiscountRate < b.DiscountRate
		}
		if a.Series != b.Series {
			return a.Series < b.Series
		}
		return a.CalendarYear < b.CalendarYear
	})
	return out
}
