// Package fleet loads the session vehicle registries and projects the legacy
// fleet forward through the analysis window.
package fleet

import (
	"regexp"
	"strings"

	"github.com/kilianp07/fleeteffects/core/model"
)

// DefaultRegion is the regional variant kept by Deregionalize.
const DefaultRegion = "r1nonzev"

var regionSuffix = regexp.MustCompile(`_(r\d+[a-z]*)$`)

var bodyStyleAliases = map[string]string{
	"sedan_wagon": model.BodySedan,
	"cuv_suv_van": model.BodyCUVSUV,
}

// AliasBodyStyle maps legacy body-style names to canonical ones.
func AliasBodyStyle(s string) string {
	if a, ok := bodyStyleAliases[s]; ok {
		return a
	}
	return s
}

// Deregionalize strips the regional suffix from a market class such as
// "sedan_wagon_r1nonzev.ICE" and applies the body-style alias to its prefix.
// ok is false when the class belongs to a region other than keep.
func Deregionalize(marketClass, keep string) (string, bool) {
	prefix, rest, dotted := strings.Cut(marketClass, ".")
	if m := regionSuffix.FindStringSubmatch(prefix); m != nil {
		if m[1] != keep {
			return "", false
		}
		prefix = strings.TrimSuffix(prefix, m[0])
	}
	prefix = AliasBodyStyle(prefix)
	if !dotted {
		return prefix, true
	}
	return prefix + "." + rest, true
}

// BodyStyleOf returns the canonical body style encoded in a market class.
func BodyStyleOf(marketClass string) string {
	prefix, _, _ := strings.Cut(marketClass, ".")
	return AliasBodyStyle(prefix)
}
