package metrics

import (
	"time"

	"github.com/kilianp07/fleeteffects/core/model"
)

// Phase names a step of the session pipeline.
type Phase string

const (
	PhaseLoad        Phase = "load"
	PhaseLegacy      Phase = "legacy_fleet"
	PhaseCalibration Phase = "vmt_calibration"
	PhaseRebound     Phase = "rebound"
	PhaseSafety      Phase = "safety"
	PhasePhysical    Phase = "physical"
	PhaseCost        Phase = "cost"
	PhaseBenefits    Phase = "benefits"
	PhaseDiscount    Phase = "discount"
	PhaseNetBenefits Phase = "net_benefits"
	PhaseWrite       Phase = "write"
)

// PhaseEvent reports the completion of one phase.
type PhaseEvent struct {
	Batch         string
	SessionPolicy model.SessionPolicy
	SessionName   string
	Phase         Phase
	Duration      time.Duration
	Rows          int
	Time          time.Time
}

// MetricsSink records phase events.
type MetricsSink interface {
	RecordPhase(ev PhaseEvent) error
}

// SessionOutcome is the final state of a session.
type SessionOutcome struct {
	Batch         string
	RunID         string
	SessionPolicy model.SessionPolicy
	SessionName   string
	Failed        bool
	Error         string
	Duration      time.Duration
	Time          time.Time
}

// SessionOutcomeRecorder records the end of a session.
type SessionOutcomeRecorder interface {
	RecordSessionOutcome(o SessionOutcome) error
}

// Flusher is implemented by sinks that buffer until the end of the run.
type Flusher interface {
	Flush() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPhase(PhaseEvent) error              { return nil }
func (NopSink) RecordSessionOutcome(SessionOutcome) error { return nil }
func (NopSink) Flush() error                              { return nil }
