package batch

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/metrics"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/summary"
	"github.com/kilianp07/fleeteffects/core/vmt"
)

// SessionResult holds the annual views of one session.
type SessionResult struct {
	Settings config.SessionSettings
	Inputs   *SessionInputs

	Safety   *summary.Frame
	Physical *summary.Frame
	Cost     *summary.Frame

	ConsumerPhysical *summary.ConsumerFrame
	ConsumerCost     *summary.ConsumerFrame

	// Snapshot is set on the reference session.
	Snapshot model.CPMSnapshot

	Err      error
	Duration time.Duration
}

// Failed reports whether the session aborted.
func (r *SessionResult) Failed() bool { return r.Err != nil }

func (r *Runner) phase(s config.SessionSettings, p metrics.Phase, start time.Time, rows int) {
	ev := metrics.PhaseEvent{
		Batch: r.Settings.Name, SessionPolicy: s.Policy, SessionName: s.Name,
		Phase: p, Duration: time.Since(start), Rows: rows, Time: time.Now(),
	}
	if err := r.sink().RecordPhase(ev); err != nil {
		r.log().Warnf("record phase %s of %s: %v", p, s.Name, err)
	}
}

// runSession evaluates one session. snap is the reference cost per mile and
// is nil when the session is itself the reference. A panic inside the
// session is returned as its error.
func (r *Runner) runSession(s config.SessionSettings, snap model.CPMSnapshot) (res *SessionResult) {
	start := time.Now()
	res = &SessionResult{Settings: s}
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("session %s panicked: %v\n%s", s.Name, p, debug.Stack())
		}
		res.Duration = time.Since(start)
	}()
	res.Err = r.evaluate(res, snap)
	return res
}

func (r *Runner) evaluate(res *SessionResult, snap model.CPMSnapshot) error {
	s := res.Settings
	log := r.log()
	log.Infof("Starting session %s (%s)", s.Name, s.Policy)

	t := time.Now()
	in, err := r.Loader.Session(s)
	if err != nil {
		return err
	}
	res.Inputs = in
	r.phase(s, metrics.PhaseLoad, t, len(in.Annual))

	reg := make(fleet.Registry, len(in.Vehicles)+len(in.Legacy.Vehicles))
	for id, v := range in.Vehicles {
		reg[id] = v
	}
	for id, v := range in.Legacy.Vehicles {
		reg[id] = v
	}

	t = time.Now()
	log.Infof("Calculating VMT adjustments for %s", s.Name)
	first, last := r.Settings.FirstYear(), r.Settings.FinalYear
	adj, err := vmt.Calibrate(in.StockVMT, in.Annual, in.Legacy.Annual, first, last)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.Name, err)
	}
	analysis := adj.Apply(in.Annual)
	legacy := adj.ApplyLegacy(in.Legacy.Annual)
	r.phase(s, metrics.PhaseCalibration, t, len(analysis)+len(legacy))

	rebound := vmt.Rebound{
		Prices: in.Prices, Onroad: in.Effects.Onroad,
		RateICE: r.Settings.ReboundICE, RateBEV: r.Settings.ReboundBEV,
	}
	if snap == nil {
		if snap, err = rebound.Snapshot(reg, analysis); err != nil {
			return fmt.Errorf("session %s: fuel cost per mile: %w", s.Name, err)
		}
		res.Snapshot = snap
	}
	if s.Policy == model.PolicyContext {
		log.Infof("Context session %s recorded %d cost per mile entries", s.Name, len(snap))
		return nil
	}

	t = time.Now()
	log.Infof("Calculating rebound for %s", s.Name)
	if analysis, err = rebound.Apply(reg, analysis, snap); err != nil {
		return fmt.Errorf("session %s: rebound: %w", s.Name, err)
	}
	r.phase(s, metrics.PhaseRebound, t, len(analysis))

	rows := make([]model.AnnualDatum, 0, len(analysis)+len(legacy))
	rows = append(append(rows, analysis...), legacy...)
	calc := &effects.Calculator{
		Inputs: in.Effects, Policy: s.Policy, SessionName: s.Name,
		Vehicles: reg, Prices: in.Prices, Refinery: in.Refinery, EGU: in.EGU.Session(), Log: log,
	}

	t = time.Now()
	safety, err := calc.Safety(rows)
	if err != nil {
		return fmt.Errorf("session %s: safety: %w", s.Name, err)
	}
	r.phase(s, metrics.PhaseSafety, t, len(safety))

	t = time.Now()
	physical, err := calc.Physical(rows, safety)
	if err != nil {
		return fmt.Errorf("session %s: physical: %w", s.Name, err)
	}
	r.phase(s, metrics.PhasePhysical, t, len(physical))

	t = time.Now()
	cost, err := calc.Cost(physical)
	if err != nil {
		return fmt.Errorf("session %s: cost: %w", s.Name, err)
	}
	r.phase(s, metrics.PhaseCost, t, len(cost))

	if r.Store != nil {
		t = time.Now()
		for _, d := range []struct {
			kind string
			recs []effects.Record
		}{
			{"safety", effects.AsRecords(safety)},
			{"physical", effects.AsRecords(physical)},
			{"cost", effects.AsRecords(cost)},
		} {
			if err := r.Store.WriteDetail(d.kind, d.recs); err != nil {
				return fmt.Errorf("session %s: write %s detail: %w", s.Name, d.kind, err)
			}
		}
		r.phase(s, metrics.PhaseWrite, t, len(safety)+len(physical)+len(cost))
	}

	res.Safety = summary.Annual(safety, summary.SafetySpec)
	res.Physical = summary.Annual(physical, summary.PhysicalSpec)
	res.Cost = summary.Annual(cost, summary.CostSpec)
	years := in.Effects.General.YearsInConsumerView
	res.ConsumerPhysical = summary.Consumer(physical, years, summary.PhysicalSpec)
	res.ConsumerCost = summary.Consumer(cost, years, summary.CostSpec)
	log.Infof("Completed session %s", s.Name)
	return nil
}
