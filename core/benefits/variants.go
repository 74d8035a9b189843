// Package benefits monetizes the physical difference between an action
// session and the no-action session.
package benefits

import (
	"fmt"
	"sort"
)

// Scopes of the social cost of greenhouse gases.
const (
	ScopeGlobal   = "global"
	ScopeDomestic = "domestic"
)

var (
	// GHGs are priced per metric ton.
	GHGs = []string{"co2", "ch4", "n2o"}
	// CriteriaPollutants are priced per US ton.
	CriteriaPollutants = []string{"pm25", "nox", "sox"}
	// Sources of criteria emissions.
	Sources = []string{"vehicle", "refinery", "egu"}
	// Scopes are written to separate social effects files.
	Scopes = []string{ScopeGlobal, ScopeDomestic}
)

// ghgRates maps each social cost of GHG variant to the discount rate its
// values were estimated with.
var ghgRates = map[string]float64{
	"2.5":  0.025,
	"3.0":  0.03,
	"3.95": 0.03,
	"5.0":  0.05,
	"7.0":  0.07,
}

var criteriaRates = map[string]float64{
	"3.0": 0.03,
	"7.0": 0.07,
}

// GHGRate returns the embedded rate of a GHG variant.
func GHGRate(variant string) (float64, error) {
	r, ok := ghgRates[variant]
	if !ok {
		return 0, fmt.Errorf("unknown GHG discount variant %q", variant)
	}
	return r, nil
}

// CriteriaRate returns the embedded rate of a criteria variant.
func CriteriaRate(variant string) (float64, error) {
	r, ok := criteriaRates[variant]
	if !ok {
		return 0, fmt.Errorf("unknown criteria discount variant %q", variant)
	}
	return r, nil
}

// DefaultGHGVariants lists the variants of the net-benefit matrix.
func DefaultGHGVariants() []string { return []string{"2.5", "3.0", "3.95", "5.0"} }

// DefaultCriteriaRates lists the criteria variants of the net-benefit matrix.
func DefaultCriteriaRates() []string { return []string{"3.0", "7.0"} }

// DefaultCriteriaStudies lists the health studies of the net-benefit matrix.
func DefaultCriteriaStudies() []string { return []string{"Wu", "Pope"} }

// Attribute is a monetized output column. Rate is the discount rate the
// value carries intrinsically; zero means the social rate applies.
type Attribute struct {
	Name string
	Rate float64
}

// Schema is the ordered attribute list of a frame.
type Schema []Attribute

// Names returns the column names.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, a := range s {
		out[i] = a.Name
	}
	return out
}

// Rates returns the embedded rate of every emission attribute.
func (s Schema) Rates() map[string]float64 {
	out := map[string]float64{}
	for _, a := range s {
		if a.Rate > 0 {
			out[a.Name] = a.Rate
		}
	}
	return out
}

// Column names.
func CriteriaColumn(p, source, study, rate string) string {
	return fmt.Sprintf("%s_%s_%s_%s_benefit_dollars", p, source, study, rate)
}

func CriteriaTotalColumn(study, rate string) string {
	return fmt.Sprintf("criteria_%s_%s_benefit_dollars", study, rate)
}

func GHGColumn(gas, scope, variant string) string {
	return fmt.Sprintf("%s_%s_%s_benefit_dollars", gas, scope, variant)
}

func GHGTotalColumn(scope, variant string) string {
	return fmt.Sprintf("ghg_%s_%s_benefit_dollars", scope, variant)
}

const (
	ColEnergySecurity = "energy_security_benefit_dollars"
	ColDriveValue     = "drive_value_benefit_dollars"
)

// Matrix is the set of GHG and criteria variants to monetize.
type Matrix struct {
	GHGVariants     []string
	CriteriaRates   []string
	CriteriaStudies []string
}

// DefaultMatrix returns the full variant matrix.
func DefaultMatrix() Matrix {
	return Matrix{
		GHGVariants:     DefaultGHGVariants(),
		CriteriaRates:   DefaultCriteriaRates(),
		CriteriaStudies: DefaultCriteriaStudies(),
	}
}

// Validate checks every variant has a known embedded rate.
func (m Matrix) Validate() error {
	for _, v := range m.GHGVariants {
		if _, err := GHGRate(v); err != nil {
			return err
		}
	}
	for _, v := range m.CriteriaRates {
		if _, err := CriteriaRate(v); err != nil {
			return err
		}
	}
	if len(m.GHGVariants) == 0 {
		return fmt.Errorf("net benefit matrix needs at least one GHG variant")
	}
	return nil
}

// KnownGHGVariants lists every variant with an embedded rate.
func KnownGHGVariants() []string {
	out := make([]string, 0, len(ghgRates))
	for k := range ghgRates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
