package fleet

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/logger"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/table"
)

var LegacyTemplate = table.Template{
	Name:    "legacy_fleet",
	Version: "0.1",
	Columns: []string{
		"model_year", "age", "calendar_year", "reg_class_id", "body_style", "market_class_id", "in_use_fuel_id",
		"registered_count", "miles_per_gallon", "kwh_per_mile", "curbweight_lbs", "range_miles",
		"transaction_price_dollars", "dollar_basis",
	},
}

// LegacyRow is one originating legacy cohort from the base-year registry.
type LegacyRow struct {
	ModelYear               int
	Age                     int
	CalendarYear            int
	RegClassID              string
	BodyStyle               string
	MarketClassID           string
	InUseFuel               model.FuelShares
	RegisteredCount         float64
	MilesPerGallon          float64
	KWhPerMile              float64
	CurbweightLbs           float64
	RangeMiles              float64
	TransactionPriceDollars float64
}

// LegacyFromTable reads the rows of the base calendar year, rescaling prices.
func LegacyFromTable(t *table.Table, baseYear int, region string, d *deflators.Deflators, basis int) ([]LegacyRow, error) {
	var out []LegacyRow
	err := t.Each(func(r *table.Row) error {
		if r.Int("calendar_year") != baseYear {
			return nil
		}
		mc, ok := Deregionalize(r.String("market_class_id"), region)
		if !ok {
			return nil
		}
		fuel, err := model.ParseFuelShares(r.String("in_use_fuel_id"))
		if err != nil {
			return err
		}
		row := LegacyRow{
			ModelYear:               r.Int("model_year"),
			Age:                     r.Int("age"),
			CalendarYear:            baseYear,
			RegClassID:              r.String("reg_class_id"),
			BodyStyle:               AliasBodyStyle(r.String("body_style")),
			MarketClassID:           mc,
			InUseFuel:               fuel,
			RegisteredCount:         r.Float("registered_count"),
			MilesPerGallon:          r.Float("miles_per_gallon"),
			KWhPerMile:              r.Float("kwh_per_mile"),
			CurbweightLbs:           r.Float("curbweight_lbs"),
			RangeMiles:              r.Float("range_miles"),
			TransactionPriceDollars: r.Float("transaction_price_dollars"),
		}
		if row.ModelYear == 0 {
			row.ModelYear = baseYear - row.Age
		}
		db := r.Int("dollar_basis")
		if err := d.Adjust(&db, basis, &row.TransactionPriceDollars); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no rows for calendar year %d", LegacyTemplate.Name, baseYear)
	}
	return out, nil
}

// Projection is the legacy fleet aged through the analysis window.
type Projection struct {
	Vehicles Registry
	Annual   []model.AnnualDatum
}

// Clone copies the annual rows so a session can recalibrate them without
// touching the batch-level projection. Vehicles are shared.
func (p *Projection) Clone() *Projection {
	annual := make([]model.AnnualDatum, len(p.Annual))
	copy(annual, p.Annual)
	return &Projection{Vehicles: p.Vehicles, Annual: annual}
}

// Projector ages legacy cohorts forward.
type Projector struct {
	Reregistration *Reregistration
	AnnualVMT      *AnnualVMT
	Fuels          *fuels.Onroad
	Log            logger.Logger
}

// Project emits one annual row per (cohort, calendar year) in
// [firstYear, lastYear] with a positive reregistered count. Cohorts receive a
// legacy id the first time they produce a row.
func (p Projector) Project(rows []LegacyRow, firstYear, lastYear int) (*Projection, error) {
	log := p.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	out := &Projection{Vehicles: Registry{}}
	ids := make([]model.VehicleID, len(rows))
	assigned := make([]bool, len(rows))
	next := 0
	for year := firstYear; year <= lastYear; year++ {
		for i, r := range rows {
			age := year - r.ModelYear
			if age <= 0 {
				continue
			}
			prop, err := p.Reregistration.Proportion(r.ModelYear, r.MarketClassID, age)
			if err != nil {
				return nil, err
			}
			count := r.RegisteredCount * prop
			if count == 0 {
				continue
			}
			if !assigned[i] {
				ids[i] = model.LegacyID(next)
				next++
				assigned[i] = true
				v, err := p.vehicle(ids[i], r)
				if err != nil {
					return nil, err
				}
				out.Vehicles[ids[i]] = v
			}
			miles, err := p.AnnualVMT.Miles(year, r.MarketClassID, age)
			if err != nil {
				return nil, err
			}
			odo, err := p.AnnualVMT.Odometer(year, r.MarketClassID, age)
			if err != nil {
				return nil, err
			}
			out.Annual = append(out.Annual, model.AnnualDatum{
				VehicleID:       ids[i],
				CalendarYear:    year,
				Age:             age,
				RegisteredCount: count,
				AnnualVMT:       miles,
				Odometer:        odo,
				VMT:             count * miles,
			})
		}
	}
	log.Infof("projected %d legacy cohorts into %d annual rows for %d-%d", len(out.Vehicles), len(out.Annual), firstYear, lastYear)
	return out, nil
}

// vehicle synthesizes the stand-in vehicle record of a legacy cohort.
func (p Projector) vehicle(id model.VehicleID, r LegacyRow) (*model.Vehicle, error) {
	v := &model.Vehicle{
		ID:                       id,
		BaseYearVehicleID:        id.Int(),
		Name:                     model.LegacyName(r.BodyStyle),
		ModelYear:                r.ModelYear,
		BaseYearRegClassID:       r.RegClassID,
		RegClassID:               r.RegClassID,
		InUseFuel:                r.InUseFuel,
		MarketClassID:            r.MarketClassID,
		FuelingClass:             r.InUseFuel.FuelingClass(),
		BodyStyle:                r.BodyStyle,
		BaseYearCurbweightLbs:    r.CurbweightLbs,
		CurbweightLbs:            r.CurbweightLbs,
		OnroadDirectKWhPerMile:   r.KWhPerMile,
		RangeMiles:               r.RangeMiles,
		NewVehicleMfrCostDollars: r.TransactionPriceDollars,
		PriceDollars:             r.TransactionPriceDollars,
	}
	if v.BodyStyle == "" {
		v.BodyStyle = BodyStyleOf(r.MarketClassID)
		v.Name = model.LegacyName(v.BodyStyle)
	}
	if v.FuelingClass == model.FuelingBEV {
		v.BaseYearPowertrainType = model.PowertrainBEV
	} else {
		v.BaseYearPowertrainType = model.PowertrainICE
	}
	if r.MilesPerGallon > 0 {
		for _, fs := range r.InUseFuel {
			if model.IsElectric(fs.FuelID) {
				continue
			}
			props, err := p.Fuels.Get(fs.FuelID, r.ModelYear)
			if err != nil {
				return nil, err
			}
			v.OnroadDirectCO2eGramsPerMile += fs.Share * props.DirectCO2eGramsPerUnit / props.RefuelEfficiency / r.MilesPerGallon
		}
	}
	return v, nil
}

// SortAnnual orders rows by calendar year, then vehicle id.
func SortAnnual(rows []model.AnnualDatum) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CalendarYear != rows[j].CalendarYear {
			return rows[i].CalendarYear < rows[j].CalendarYear
		}
		return rows[i].VehicleID.Int() < rows[j].VehicleID.Int()
	})
}
