package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	phases   int
	outcomes int
	flushed  bool
	err      error
}

func (r *recordSink) RecordPhase(PhaseEvent) error {
	r.phases++
	return r.err
}

func (r *recordSink) RecordSessionOutcome(SessionOutcome) error {
	r.outcomes++
	return nil
}

func (r *recordSink) Flush() error {
	r.flushed = true
	return r.err
}

type phaseOnly struct{ n int }

func (p *phaseOnly) RecordPhase(PhaseEvent) error { p.n++; return nil }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &phaseOnly{}
	m := NewMultiSink(s1, s2)
	require.NoError(t, m.RecordPhase(PhaseEvent{Phase: PhaseSafety}))
	require.NoError(t, m.RecordSessionOutcome(SessionOutcome{SessionName: "a1"}))
	require.NoError(t, m.Flush())
	assert.Equal(t, 1, s1.phases)
	assert.Equal(t, 1, s2.n)
	assert.Equal(t, 1, s1.outcomes)
	assert.True(t, s1.flushed)
}

func TestMultiSinkFirstError(t *testing.T) {
	boom := errors.New("boom")
	s2 := &phaseOnly{}
	m := NewMultiSink(&recordSink{err: boom}, s2)
	assert.ErrorIs(t, m.RecordPhase(PhaseEvent{}), boom)
	assert.Equal(t, 0, s2.n)
	assert.ErrorIs(t, m.Flush(), boom)
}
