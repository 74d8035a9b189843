package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
)

// PromSink records phase timings and session outcomes in Prometheus
// collectors. A batch is not a long-running service, so Flush writes the
// registry to a node-exporter textfile instead of serving it.
type PromSink struct {
	phase    *prometheus.HistogramVec
	rows     *prometheus.GaugeVec
	outcomes *prometheus.CounterVec

	gatherer prometheus.Gatherer
	textfile string
}

// NewPromSink registers metrics on a private registry flushed to textfile.
func NewPromSink(textfile string) (*PromSink, error) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	s.gatherer = reg
	s.textfile = textfile
	return s, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	phase := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "effects_phase_duration_seconds",
		Help:    "Time spent in each session phase",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"session", "phase"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "effects_phase_rows",
		Help: "Rows produced by the last run of a session phase",
	}, []string{"session", "phase"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "effects_session_outcomes_total",
		Help: "Completed sessions by outcome",
	}, []string{"session", "failed"})

	if err := reg.Register(phase); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			phase = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(rows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			rows = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{phase: phase, rows: rows, outcomes: outcomes}, nil
}

// RecordPhase observes the phase duration and row count.
func (s *PromSink) RecordPhase(ev coremetrics.PhaseEvent) error {
	s.phase.WithLabelValues(ev.SessionName, string(ev.Phase)).Observe(ev.Duration.Seconds())
	s.rows.WithLabelValues(ev.SessionName, string(ev.Phase)).Set(float64(ev.Rows))
	return nil
}

// RecordSessionOutcome counts the session result.
func (s *PromSink) RecordSessionOutcome(o coremetrics.SessionOutcome) error {
	s.outcomes.WithLabelValues(o.SessionName, strconv.FormatBool(o.Failed)).Inc()
	return nil
}

// Flush writes the registry to the configured textfile.
func (s *PromSink) Flush() error {
	if s.textfile == "" || s.gatherer == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.textfile, s.gatherer); err != nil {
		return fmt.Errorf("write prometheus textfile: %w", err)
	}
	return nil
}
