// Package batch runs the sessions of an effects batch and assembles the
// annual, discounted and social effects tables.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/core/benefits"
	"github.com/kilianp07/fleeteffects/core/discount"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/logger"
	"github.com/kilianp07/fleeteffects/core/metrics"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/monitoring"
	"github.com/kilianp07/fleeteffects/core/netbenefit"
	"github.com/kilianp07/fleeteffects/core/summary"
)

// ErrReferenceFailed is returned when the context or no_action session fails.
// Every action session depends on it so the batch stops.
var ErrReferenceFailed = errors.New("reference session failed")

// DetailStore persists per-vehicle effects rows.
type DetailStore interface {
	WriteDetail(kind string, recs []effects.Record) error
	Close() error
}

// Runner evaluates every session of a batch.
type Runner struct {
	Settings *config.BatchSettings
	Loader   *Loader
	Matrix   benefits.Matrix
	// Workers bounds the number of action sessions run at once.
	Workers int
	Store   DetailStore
	Sink    metrics.MetricsSink
	Log     logger.Logger
	RunID   string
}

func (r *Runner) log() logger.Logger {
	if r.Log == nil {
		return logger.NopLogger{}
	}
	return r.Log
}

func (r *Runner) sink() metrics.MetricsSink {
	if r.Sink == nil {
		return metrics.NopSink{}
	}
	return r.Sink
}

// Social is the social effects table of one GHG scope.
type Social struct {
	Scope   string
	Columns []string
	Rows    []*netbenefit.Row
}

// Results are the batch-level tables.
type Results struct {
	Sessions []*SessionResult

	Safety        *summary.Frame
	Physical      *summary.Frame
	PhysicalDelta *summary.Frame
	Cost          *discount.Result
	Benefits      *discount.Result
	Social        []Social

	ConsumerPhysical *summary.ConsumerFrame
	ConsumerCost     *summary.ConsumerFrame

	Started  time.Time
	Finished time.Time
}

// Failed lists the sessions that aborted.
func (res *Results) Failed() []*SessionResult {
	var out []*SessionResult
	for _, s := range res.Sessions {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}

func (r *Runner) outcome(res *SessionResult) {
	s := res.Settings
	o := metrics.SessionOutcome{
		Batch: r.Settings.Name, RunID: r.RunID, SessionPolicy: s.Policy, SessionName: s.Name,
		Failed: res.Failed(), Duration: res.Duration, Time: time.Now(),
	}
	if res.Err != nil {
		o.Error = res.Err.Error()
		r.log().Errorf("session %s failed: %v", s.Name, res.Err)
		monitoring.CaptureException(res.Err, monitoring.SessionTags(r.Settings.Name, r.RunID, s.Policy, s.Name))
	}
	if rec, ok := r.sink().(metrics.SessionOutcomeRecorder); ok {
		if err := rec.RecordSessionOutcome(o); err != nil {
			r.log().Warnf("record outcome of %s: %v", s.Name, err)
		}
	}
}

// Run evaluates the reference sessions, then the action sessions in
// parallel, then derives benefits, discounting and net benefits. A failed
// action session is recorded and skipped.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	res := &Results{Started: time.Now()}
	var snap model.CPMSnapshot
	if s, ok := r.Settings.Session(model.PolicyContext); ok {
		sr := r.runSession(s, nil)
		r.outcome(sr)
		res.Sessions = append(res.Sessions, sr)
		if sr.Failed() {
			return res, fmt.Errorf("%w: %s: %v", ErrReferenceFailed, s.Name, sr.Err)
		}
		snap = sr.Snapshot
	}
	naSettings, ok := r.Settings.Session(model.PolicyNoAction)
	if !ok {
		return res, errors.New("batch has no no_action session")
	}
	na := r.runSession(naSettings, snap)
	r.outcome(na)
	res.Sessions = append(res.Sessions, na)
	if na.Failed() {
		return res, fmt.Errorf("%w: %s: %v", ErrReferenceFailed, naSettings.Name, na.Err)
	}
	if snap == nil {
		snap = na.Snapshot
	}

	var actions []config.SessionSettings
	for _, s := range r.Settings.Sessions {
		if s.Policy.IsAction() {
			actions = append(actions, s)
		}
	}
	results := make([]*SessionResult, len(actions))
	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, s := range actions {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runSession(s, snap)
			r.outcome(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	for _, sr := range results {
		if sr != nil {
			res.Sessions = append(res.Sessions, sr)
		}
	}

	if err := r.combine(res, na); err != nil {
		return res, err
	}
	res.Finished = time.Now()
	return res, nil
}

func (r *Runner) combine(res *Results, na *SessionResult) error {
	accrual, err := discount.ParseAccrual(r.Settings.CostAccrual)
	if err != nil {
		return err
	}
	disc := discount.Discounter{DiscountToYear: r.Settings.DiscountToYear, Accrual: accrual, SocialRates: discount.DefaultSocialRates}

	var safety, physical, cost []*summary.Frame
	var consumerPhysical, consumerCost []*summary.ConsumerFrame
	var actions []*SessionResult
	for _, sr := range res.Sessions {
		if sr.Failed() || sr.Settings.Policy == model.PolicyContext {
			continue
		}
		safety = append(safety, sr.Safety)
		physical = append(physical, sr.Physical)
		cost = append(cost, sr.Cost)
		consumerPhysical = append(consumerPhysical, sr.ConsumerPhysical)
		consumerCost = append(consumerCost, sr.ConsumerCost)
		if sr.Settings.Policy.IsAction() {
			actions = append(actions, sr)
		}
	}
	res.Safety = summary.Merge(safety...)
	res.Physical = summary.Merge(physical...)
	res.ConsumerPhysical = summary.MergeConsumer(consumerPhysical...)
	res.ConsumerCost = summary.MergeConsumer(consumerCost...)

	t := time.Now()
	res.Cost = disc.Discount(summary.Merge(cost...), nil)
	r.phase(na.Settings, metrics.PhaseDiscount, t, len(res.Cost.Rows))

	t = time.Now()
	calc := &benefits.Calculator{
		SCC: na.Inputs.SCC, Criteria: na.Inputs.Criteria, EnergySecurity: na.Inputs.Effects.EnergySecurity,
		Matrix: r.Matrix, Log: r.log(),
	}
	var deltas, bens []*summary.Frame
	var schema benefits.Schema
	for _, sr := range actions {
		physDelta := summary.Delta(sr.Physical, na.Physical)
		costDelta := summary.Delta(sr.Cost, na.Cost)
		deltas = append(deltas, physDelta)
		var ben *summary.Frame
		ben, schema = calc.Benefits(physDelta, costDelta)
		bens = append(bens, ben)
	}
	if len(bens) == 0 {
		schema = calc.Schema()
	}
	res.PhysicalDelta = summary.Merge(deltas...)
	benFrame := summary.Merge(bens...)
	if benFrame.Len() == 0 {
		benFrame = summary.NewFrame(schema.Names())
	}
	res.Benefits = disc.Discount(benFrame, schema.Rates())
	r.phase(na.Settings, metrics.PhaseBenefits, t, len(res.Benefits.Rows))

	t = time.Now()
	var criteriaRates, studies []string
	if calc.HasCriteria() {
		criteriaRates, studies = r.Matrix.CriteriaRates, r.Matrix.CriteriaStudies
	}
	noActionCost := res.Cost.Select(model.PolicyNoAction)
	for _, scope := range r.Settings.Scopes() {
		sum := netbenefit.Summarizer{Scope: scope, GHGVariants: calc.GHGVariants(), CriteriaRates: criteriaRates, CriteriaStudies: studies}
		social := Social{Scope: scope, Columns: sum.Columns()}
		for _, sr := range actions {
			p := sr.Settings.Policy
			social.Rows = append(social.Rows, sum.Summarize(res.Cost.Select(p), noActionCost, res.Benefits.Select(p))...)
		}
		res.Social = append(res.Social, social)
	}
	r.phase(na.Settings, metrics.PhaseNetBenefits, t, len(actions))
	return nil
}
