package fleet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/table"
)

// ErrMissingReregistration is returned when a market class has no schedule
// starting at or before the requested model year.
var ErrMissingReregistration = errors.New("missing reregistration schedule")

var ReregistrationTemplate = table.Template{
	Name:    "consumer.reregistration_fixed_by_age",
	Version: "0.2",
	Columns: []string{"start_model_year", "market_class_id", "age", "reregistered_proportion"},
}

var AnnualVMTTemplate = table.Template{
	Name:    "consumer.annual_vmt_fixed_by_age",
	Version: "0.2",
	Columns: []string{"start_year", "market_class_id", "age", "annual_vmt"},
}

// byAge is an age-indexed schedule for a market class from a start year.
type byAge struct {
	start  int
	values map[int]float64
	maxAge int
}

// ageSchedules holds every start year of every market class.
type ageSchedules map[string][]*byAge

func (s ageSchedules) set(mc string, start, age int, v float64) {
	list := s[mc]
	var sched *byAge
	for _, b := range list {
		if b.start == start {
			sched = b
		}
	}
	if sched == nil {
		sched = &byAge{start: start, values: map[int]float64{}}
		list = append(list, sched)
		sort.Slice(list, func(i, j int) bool { return list[i].start < list[j].start })
		s[mc] = list
	}
	sched.values[age] = v
	if age > sched.maxAge {
		sched.maxAge = age
	}
}

// latest returns the schedule with the largest start ≤ year.
func (s ageSchedules) latest(mc string, year int) *byAge {
	list := s[mc]
	i := sort.Search(len(list), func(i int) bool { return list[i].start > year })
	if i == 0 {
		return nil
	}
	return list[i-1]
}

func readSchedules(t *table.Table, startCol, valueCol, region string) (ageSchedules, error) {
	s := ageSchedules{}
	err := t.Each(func(r *table.Row) error {
		mc, ok := Deregionalize(r.String("market_class_id"), region)
		if !ok {
			return nil
		}
		s.set(mc, r.Int(startCol), r.Int("age"), r.Float(valueCol))
		return nil
	})
	return s, err
}

// Reregistration gives the share of a cohort still registered at an age.
type Reregistration struct{ s ageSchedules }

// NewReregistration builds a schedule set from (market class, start model
// year) → age → proportion.
func NewReregistration(values map[string]map[int]map[int]float64) *Reregistration {
	s := ageSchedules{}
	for mc, byStart := range values {
		for start, ages := range byStart {
			for age, v := range ages {
				s.set(mc, start, age, v)
			}
		}
	}
	return &Reregistration{s: s}
}

// ReregistrationFromTable reads the schedule, keeping region's rows.
func ReregistrationFromTable(t *table.Table, region string) (*Reregistration, error) {
	s, err := readSchedules(t, "start_model_year", "reregistered_proportion", region)
	if err != nil {
		return nil, err
	}
	return &Reregistration{s: s}, nil
}

// Proportion returns the reregistered share of a (model year, market class)
// cohort at age. Ages outside the schedule return zero.
func (r *Reregistration) Proportion(modelYear int, marketClass string, age int) (float64, error) {
	sched := r.s.latest(marketClass, modelYear)
	if sched == nil {
		return 0, fmt.Errorf("%w: %s model year %d", ErrMissingReregistration, marketClass, modelYear)
	}
	return sched.values[age], nil
}

// AnnualVMT gives fixed-by-age miles per vehicle.
type AnnualVMT struct{ s ageSchedules }

// NewAnnualVMT builds a schedule set from (market class, start year) → age →
// miles.
func NewAnnualVMT(values map[string]map[int]map[int]float64) *AnnualVMT {
	s := ageSchedules{}
	for mc, byStart := range values {
		for start, ages := range byStart {
			for age, v := range ages {
				s.set(mc, start, age, v)
			}
		}
	}
	return &AnnualVMT{s: s}
}

// AnnualVMTFromTable reads the schedule, keeping region's rows.
func AnnualVMTFromTable(t *table.Table, region string) (*AnnualVMT, error) {
	s, err := readSchedules(t, "start_year", "annual_vmt", region)
	if err != nil {
		return nil, err
	}
	return &AnnualVMT{s: s}, nil
}

func (a *AnnualVMT) schedule(year int, marketClass string) (*byAge, error) {
	sched := a.s.latest(marketClass, year)
	if sched == nil {
		list := a.s[marketClass]
		if len(list) == 0 {
			return nil, fmt.Errorf("no annual vmt schedule for market class %s", marketClass)
		}
		sched = list[0]
	}
	return sched, nil
}

// Miles returns the annual miles of a vehicle of marketClass at age in
// calendar year.
func (a *AnnualVMT) Miles(year int, marketClass string, age int) (float64, error) {
	sched, err := a.schedule(year, marketClass)
	if err != nil {
		return 0, err
	}
	return sched.values[age], nil
}

// Odometer is the cumulative miles through age, inclusive of age zero.
func (a *AnnualVMT) Odometer(year int, marketClass string, age int) (float64, error) {
	sched, err := a.schedule(year, marketClass)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for k := 0; k <= age; k++ {
		total += sched.values[k]
	}
	return total, nil
}
