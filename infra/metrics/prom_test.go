package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordPhase(coremetrics.PhaseEvent{SessionName: "a1", Phase: coremetrics.PhaseCost, Duration: time.Second, Rows: 7}))
	require.NoError(t, s.RecordSessionOutcome(coremetrics.SessionOutcome{SessionName: "a1"}))
	require.NoError(t, s.RecordSessionOutcome(coremetrics.SessionOutcome{SessionName: "a1", Failed: true}))

	assert.Equal(t, 7.0, testutil.ToFloat64(s.rows.WithLabelValues("a1", "cost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.outcomes.WithLabelValues("a1", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.phase))

	again, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	assert.Same(t, s.outcomes, again.outcomes)
}

func TestPromSinkFlushWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "effects.prom")
	s, err := NewPromSink(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordSessionOutcome(coremetrics.SessionOutcome{SessionName: "no_action"}))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `effects_session_outcomes_total{failed="false",session="no_action"} 1`)
}
