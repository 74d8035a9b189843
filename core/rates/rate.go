// Package rates holds the emission-rate equation tables for the power sector
// (EGU), refineries and vehicles. Every row stores a compiled equation in one
// independent variable; the equation is compiled once at load.
package rates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/fleeteffects/core/expr"
)

// ErrMissingRate is returned when no row matches a lookup key.
var ErrMissingRate = errors.New("missing rate")

// Independent variables accepted by rate tables.
const (
	VarCalendarYear = "calendar_year"
	VarAge          = "age"
	VarOdometer     = "odometer"
)

// Rate is one compiled rate equation.
type Rate struct {
	Name      string
	Variable  string
	LastYear  int
	Slope     float64
	Intercept float64
	eq        *expr.Expr
}

// NewRate compiles equation in variable. An empty equation falls back to
// slope*x + intercept.
func NewRate(name, variable, equation string, slope, intercept float64) (*Rate, error) {
	switch variable {
	case VarCalendarYear, VarAge, VarOdometer:
	default:
		return nil, fmt.Errorf("rate %s: unknown independent variable %q", name, variable)
	}
	r := &Rate{Name: name, Variable: variable, Slope: slope, Intercept: intercept}
	if strings.TrimSpace(equation) != "" {
		e, err := expr.Compile(equation, variable)
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", name, err)
		}
		r.eq = e
	}
	return r, nil
}

// Eval evaluates the rate at x.
func (r *Rate) Eval(x float64) float64 {
	if r.eq == nil {
		return r.Slope*x + r.Intercept
	}
	return r.eq.Eval(x)
}

// EvalYear evaluates a calendar-year rate with the year clamped to LastYear.
func (r *Rate) EvalYear(year int) float64 {
	if r.LastYear > 0 && year > r.LastYear {
		year = r.LastYear
	}
	return r.Eval(float64(year))
}
