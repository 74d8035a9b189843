package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Recognised in-use fuel identifiers.
const (
	FuelElectricity = "US electricity"
	FuelGasoline    = "pump gasoline"
	FuelDiesel      = "pump diesel"
)

// FuelingClass is the coarse BEV/ICE tag derived from the fuel mapping.
type FuelingClass string

const (
	FuelingBEV FuelingClass = "BEV"
	FuelingICE FuelingClass = "ICE"
)

// FuelShare is one entry of an in-use fuel mapping.
type FuelShare struct {
	FuelID string
	Share  float64
}

// FuelShares maps fuel ids to the share of miles driven on them. Entries are
// kept sorted by fuel id so String is canonical.
type FuelShares []FuelShare

// ParseFuelShares reads the dict literal used by compliance outputs, e.g.
// "{'pump gasoline':1.0}" or "{'pump gasoline': 0.4, 'US electricity': 0.6}".
func ParseFuelShares(s string) (FuelShares, error) {
	body := strings.TrimSpace(s)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return nil, fmt.Errorf("fuel mapping %q: expected {...}", s)
	}
	body = strings.TrimSpace(body[1 : len(body)-1])
	if body == "" {
		return nil, fmt.Errorf("fuel mapping %q: empty", s)
	}
	var out FuelShares
	total := 0.0
	for _, part := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("fuel mapping %q: entry %q lacks ':'", s, part)
		}
		fuel := strings.Trim(strings.TrimSpace(k), `'"`)
		share, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("fuel mapping %q: share for %s: %w", s, fuel, err)
		}
		out = append(out, FuelShare{FuelID: fuel, Share: share})
		total += share
	}
	if total < 0.999 || total > 1.001 {
		return nil, fmt.Errorf("fuel mapping %q: shares sum to %g, want 1.0", s, total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FuelID < out[j].FuelID })
	return out, nil
}

// MustFuelShares is ParseFuelShares for literals known to be valid.
func MustFuelShares(s string) FuelShares {
	f, err := ParseFuelShares(s)
	if err != nil {
		panic(err)
	}
	return f
}

// String renders the canonical dict literal.
func (f FuelShares) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, fs := range f {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'" + fs.FuelID + "':" + strconv.FormatFloat(fs.Share, 'f', -1, 64))
		if fs.Share == float64(int64(fs.Share)) {
			b.WriteString(".0")
		}
	}
	b.WriteByte('}')
	return b.String()
}

// Share returns the share for fuel, zero when absent.
func (f FuelShares) Share(fuel string) float64 {
	for _, fs := range f {
		if fs.FuelID == fuel {
			return fs.Share
		}
	}
	return 0
}

// IsPureElectric reports whether all miles are driven on electricity.
func (f FuelShares) IsPureElectric() bool {
	return len(f) == 1 && f[0].FuelID == FuelElectricity
}

// FuelingClass derives the BEV/ICE tag.
func (f FuelShares) FuelingClass() FuelingClass {
	if f.IsPureElectric() {
		return FuelingBEV
	}
	return FuelingICE
}

// IsElectric reports whether the fuel id denotes grid electricity.
func IsElectric(fuelID string) bool { return fuelID == FuelElectricity }

// FuelingClassOf derives the fueling class from a canonical fuel mapping string.
func FuelingClassOf(fuelMapping string) FuelingClass {
	f, err := ParseFuelShares(fuelMapping)
	if err != nil {
		return FuelingICE
	}
	return f.FuelingClass()
}
