// Package factors holds the calibration and monetization tables keyed by
// calendar year, model year, body style or regulatory class. Monetary tables
// are rescaled to the analysis dollar basis when loaded.
package factors

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// yearSeries resolves a year to the latest tabulated year not after it.
// Years before the first entry clamp to the first.
type yearSeries[T any] struct {
	years  []int
	values map[int]T
}

func newYearSeries[T any]() *yearSeries[T] {
	return &yearSeries[T]{values: map[int]T{}}
}

func (s *yearSeries[T]) set(year int, v T) {
	if _, ok := s.values[year]; !ok {
		s.years = append(s.years, year)
		sort.Ints(s.years)
	}
	s.values[year] = v
}

func (s *yearSeries[T]) at(year int) (T, bool) {
	var zero T
	if len(s.years) == 0 {
		return zero, false
	}
	i := sort.SearchInts(s.years, year+1)
	if i == 0 {
		return s.values[s.years[0]], true
	}
	return s.values[s.years[i-1]], true
}

func (s *yearSeries[T]) bounds() (int, int) {
	if len(s.years) == 0 {
		return 0, 0
	}
	return s.years[0], s.years[len(s.years)-1]
}

// YearSchedule is a year → value schedule parsed from a dict literal such as
// "{2023: 45, 2030: 35}". Lookups use the latest key not after the year and
// return zero before the first key.
type YearSchedule struct {
	years  []int
	values []float64
}

// ParseYearSchedule accepts a dict literal or a bare number (constant for all
// years).
func ParseYearSchedule(s string) (YearSchedule, error) {
	body := strings.TrimSpace(s)
	if body == "" {
		return YearSchedule{}, nil
	}
	if !strings.HasPrefix(body, "{") {
		v, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return YearSchedule{}, fmt.Errorf("year schedule %q: %w", s, err)
		}
		return YearSchedule{years: []int{-1 << 31}, values: []float64{v}}, nil
	}
	if !strings.HasSuffix(body, "}") {
		return YearSchedule{}, fmt.Errorf("year schedule %q: unterminated", s)
	}
	body = strings.TrimSpace(body[1 : len(body)-1])
	type entry struct {
		y int
		v float64
	}
	var entries []entry
	if body != "" {
		for _, part := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(part, ":")
			if !ok {
				return YearSchedule{}, fmt.Errorf("year schedule %q: entry %q lacks ':'", s, part)
			}
			y, err := strconv.Atoi(strings.Trim(strings.TrimSpace(k), `'"`))
			if err != nil {
				return YearSchedule{}, fmt.Errorf("year schedule %q: %w", s, err)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return YearSchedule{}, fmt.Errorf("year schedule %q: %w", s, err)
			}
			entries = append(entries, entry{y, f})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].y < entries[j].y })
	var out YearSchedule
	for _, e := range entries {
		out.years = append(out.years, e.y)
		out.values = append(out.values, e.v)
	}
	return out, nil
}

// At returns the scheduled value for year.
func (s YearSchedule) At(year int) float64 {
	i := sort.SearchInts(s.years, year+1)
	if i == 0 {
		return 0
	}
	return s.values[i-1]
}

// Scale multiplies every value by f.
func (s YearSchedule) Scale(f float64) YearSchedule {
	out := YearSchedule{years: s.years, values: make([]float64, len(s.values))}
	for i, v := range s.values {
		out.values[i] = v * f
	}
	return out
}
