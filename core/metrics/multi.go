package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPhase forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPhase(ev PhaseEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPhase(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSessionOutcome forwards outcomes to sinks that record them.
func (m *MultiSink) RecordSessionOutcome(o SessionOutcome) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SessionOutcomeRecorder); ok {
			if err := rec.RecordSessionOutcome(o); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every buffering sink and joins their errors.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			errs = append(errs, f.Flush())
		}
	}
	return errors.Join(errs...)
}
