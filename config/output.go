package config

import (
	"fmt"
	"runtime"

	"github.com/kilianp07/fleeteffects/core/benefits"
)

// Per-vehicle detail formats.
const (
	VehicleOutputCSV    = "csv"
	VehicleOutputSQLite = "sqlite"
	VehicleOutputNone   = "none"
)

// OutputConfig selects what a run writes.
type OutputConfig struct {
	// Dir overrides the batch folder of the batch settings file.
	Dir                 string `json:"dir"`
	VehicleOutputFormat string `json:"vehicle_output_format"`
	SaveVehicleDetail   *bool  `json:"save_vehicle_detail"`
	SaveConsumerView    *bool  `json:"save_consumer_view"`
	SaveSafetySummary   *bool  `json:"save_safety_summary"`
}

func boolPtr(b bool) *bool { return &b }

// SetDefaults enables every optional output.
func (c *OutputConfig) SetDefaults() {
	if c.VehicleOutputFormat == "" {
		c.VehicleOutputFormat = VehicleOutputCSV
	}
	if c.SaveVehicleDetail == nil {
		c.SaveVehicleDetail = boolPtr(true)
	}
	if c.SaveConsumerView == nil {
		c.SaveConsumerView = boolPtr(true)
	}
	if c.SaveSafetySummary == nil {
		c.SaveSafetySummary = boolPtr(true)
	}
}

// Validate checks the detail format.
func (c OutputConfig) Validate() error {
	switch c.VehicleOutputFormat {
	case VehicleOutputCSV, VehicleOutputSQLite, VehicleOutputNone:
		return nil
	}
	return fmt.Errorf("unknown vehicle_output_format %q", c.VehicleOutputFormat)
}

// VehicleDetail reports whether per-vehicle rows are written.
func (c OutputConfig) VehicleDetail() bool {
	return c.SaveVehicleDetail != nil && *c.SaveVehicleDetail && c.VehicleOutputFormat != VehicleOutputNone
}

// SessionsConfig controls how action sessions are scheduled.
type SessionsConfig struct {
	// Workers is the number of action sessions run at once.
	Workers int `json:"workers"`
}

// SetDefaults runs sessions sequentially.
func (c *SessionsConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Validate bounds the worker count.
func (c SessionsConfig) Validate() error {
	if c.Workers < 1 || c.Workers > 4*runtime.NumCPU() {
		return fmt.Errorf("workers must be between 1 and %d", 4*runtime.NumCPU())
	}
	return nil
}

// NetBenefitsConfig is the variant matrix of the social effects tables.
type NetBenefitsConfig struct {
	GHGVariants     []string `json:"ghg_variants"`
	CriteriaRates   []string `json:"criteria_rates"`
	CriteriaStudies []string `json:"criteria_studies"`
}

// SetDefaults fills the full matrix.
func (c *NetBenefitsConfig) SetDefaults() {
	if len(c.GHGVariants) == 0 {
		c.GHGVariants = benefits.DefaultGHGVariants()
	}
	if c.CriteriaRates == nil {
		c.CriteriaRates = benefits.DefaultCriteriaRates()
	}
	if c.CriteriaStudies == nil {
		c.CriteriaStudies = benefits.DefaultCriteriaStudies()
	}
}

// Validate checks every variant has an embedded discount rate.
func (c NetBenefitsConfig) Validate() error {
	return c.Matrix().Validate()
}

// Matrix converts the section to the benefits matrix.
func (c NetBenefitsConfig) Matrix() benefits.Matrix {
	return benefits.Matrix{
		GHGVariants:     c.GHGVariants,
		CriteriaRates:   c.CriteriaRates,
		CriteriaStudies: c.CriteriaStudies,
	}
}
