// Package monitoring reports batch and session failures to an error
// tracker. The default implementation discards everything.
package monitoring

import (
	"time"

	"github.com/kilianp07/fleeteffects/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the global monitor.
func Current() Monitor { return current }

// SessionTags labels an event with the batch and session it came from.
func SessionTags(batch, runID string, policy model.SessionPolicy, session string) map[string]string {
	return map[string]string{
		"batch":          batch,
		"run_id":         runID,
		"session_policy": string(policy),
		"session_name":   session,
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover reports a panic of the calling goroutine and re-panics.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
