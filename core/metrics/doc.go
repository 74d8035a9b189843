// Package metrics defines the sinks that observe a batch run. The batch
// reports one PhaseEvent per session phase and, for sinks implementing
// SessionOutcomeRecorder, one SessionOutcome per session. Sinks are built by
// type name through NewMetricsSink; several configured sinks are combined in
// a MultiSink.
package metrics
