package effects

import (
	"math"

	"github.com/kilianp07/fleeteffects/core/model"
)

// SafetyRow is the mass-safety effect of one vehicle in one calendar year.
type SafetyRow struct {
	Identity

	BaseYearCurbweightLbs    float64
	CurbweightLbs            float64
	LbsChanged               float64
	ThresholdLbs             float64
	LbsChangedBelowThreshold float64
	LbsChangedAboveThreshold float64
	ChangePer100LbsBelow     float64
	ChangePer100LbsAbove     float64
	RateChangeBelow          float64
	RateChangeAbove          float64
	FatalityRateBase         float64
	FatalityRateSession      float64
	BaseFatalities           float64
	SessionFatalities        float64
}

func (r *SafetyRow) Ident() *Identity { return &r.Identity }

func (r *SafetyRow) Fields() []Field {
	return append(r.travelFields(),
		Field{"base_year_curbweight_lbs", r.BaseYearCurbweightLbs},
		Field{"curbweight_lbs", r.CurbweightLbs},
		Field{"lbs_changed", r.LbsChanged},
		Field{"threshold_lbs", r.ThresholdLbs},
		Field{"lbs_changed_below_threshold", r.LbsChangedBelowThreshold},
		Field{"lbs_changed_above_threshold", r.LbsChangedAboveThreshold},
		Field{"change_per_100_lbs_below_threshold", r.ChangePer100LbsBelow},
		Field{"change_per_100_lbs_at_or_above_threshold", r.ChangePer100LbsAbove},
		Field{"rate_change_below_threshold", r.RateChangeBelow},
		Field{"rate_change_above_threshold", r.RateChangeAbove},
		Field{"fatality_rate_base", r.FatalityRateBase},
		Field{"fatality_rate_session", r.FatalityRateSession},
		Field{"base_fatalities", r.BaseFatalities},
		Field{"session_fatalities", r.SessionFatalities},
	)
}

// SplitAtThreshold divides the change from base to final weight into the
// portions below and above threshold. Signs are preserved and the absolute
// portions sum to |final - base|.
func SplitAtThreshold(base, final, threshold float64) (below, above float64) {
	below = math.Min(final, threshold) - math.Min(base, threshold)
	above = math.Max(final, threshold) - math.Max(base, threshold)
	return below, above
}

// Safety computes fatalities for every annual row. Legacy vehicles keep the
// base rate since their mass does not change.
func (c *Calculator) Safety(rows []model.AnnualDatum) ([]SafetyRow, error) {
	c.log().Infof("Calculating safety effects for %s", c.SessionName)
	out := make([]SafetyRow, 0, len(rows))
	for _, d := range rows {
		v, err := c.vehicle(d.VehicleID)
		if err != nil {
			return nil, err
		}
		sv, err := c.Inputs.SafetyValues.Get(v.BodyStyle)
		if err != nil {
			return nil, err
		}
		r := SafetyRow{
			Identity:              NewIdentity(c.Policy, c.SessionName, v, d),
			BaseYearCurbweightLbs: v.BaseYearCurbweightLbs,
			CurbweightLbs:         v.CurbweightLbs,
			ThresholdLbs:          sv.ThresholdLbs,
			ChangePer100LbsBelow:  sv.ChangeBelow,
			ChangePer100LbsAbove:  sv.ChangeAtOrAbove,
			FatalityRateBase:      c.Inputs.FatalityRates.Rate(v.ModelYear, d.Age),
		}
		r.FatalityRateSession = r.FatalityRateBase
		if !v.IsLegacy() {
			r.LbsChanged = v.CurbweightLbs - v.BaseYearCurbweightLbs
			r.LbsChangedBelowThreshold, r.LbsChangedAboveThreshold = SplitAtThreshold(v.BaseYearCurbweightLbs, v.CurbweightLbs, sv.ThresholdLbs)
			r.RateChangeBelow = sv.ChangeBelow * -r.LbsChangedBelowThreshold / 100
			r.RateChangeAbove = sv.ChangeAtOrAbove * -r.LbsChangedAboveThreshold / 100
			r.FatalityRateSession = r.FatalityRateBase * (1 + r.RateChangeBelow) * (1 + r.RateChangeAbove)
		}
		r.BaseFatalities = r.FatalityRateBase * d.VMT / 1e9
		r.SessionFatalities = r.FatalityRateSession * d.VMT / 1e9
		out = append(out, r)
	}
	return out, nil
}
