package model

import (
	"fmt"
	"strconv"
)

// LegacyIDStart offsets legacy-fleet ids when they are rendered as integers.
const LegacyIDStart = 1_000_000

// VehicleID distinguishes analysis-fleet vehicles from projected legacy ones.
type VehicleID struct {
	Legacy bool
	Num    int
}

// AnalysisID tags an id coming from the compliance model.
func AnalysisID(n int) VehicleID { return VehicleID{Num: n} }

// LegacyID tags the n-th projected legacy vehicle.
func LegacyID(n int) VehicleID { return VehicleID{Legacy: true, Num: n} }

// ParseAnalysisID validates an analysis-fleet id read from an input file.
func ParseAnalysisID(n int) (VehicleID, error) {
	if n < 0 || n >= LegacyIDStart {
		return VehicleID{}, fmt.Errorf("vehicle id %d outside analysis fleet range [0, %d)", n, LegacyIDStart)
	}
	return AnalysisID(n), nil
}

// Int returns the flat integer form used in output files.
func (id VehicleID) Int() int {
	if id.Legacy {
		return LegacyIDStart + id.Num
	}
	return id.Num
}

func (id VehicleID) String() string { return strconv.Itoa(id.Int()) }
