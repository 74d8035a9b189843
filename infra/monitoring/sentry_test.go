package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/config"
	coremon "github.com/kilianp07/fleeteffects/core/monitoring"
)

type captureTransport struct {
	events []*sentry.Event
}

func (c *captureTransport) Configure(sentry.ClientOptions)            {}
func (c *captureTransport) SendEvent(e *sentry.Event)                 { c.events = append(c.events, e) }
func (c *captureTransport) Flush(time.Duration) bool                  { return true }
func (c *captureTransport) FlushWithContext(ctx context.Context) bool { return true }
func (c *captureTransport) Close()                                    {}

func TestEmptyDSNIsNop(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestCaptureExceptionWithTags(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.invalid/1", Transport: tr})
	require.NoError(t, err)
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.CaptureException(errors.New("session failed"), coremon.SessionTags("b", "r1", "action_1", "a1"))
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	require.Len(t, tr.events, 1)
	assert.Equal(t, "a1", tr.events[0].Tags["session_name"])
	assert.Equal(t, "action_1", tr.events[0].Tags["session_policy"])
}
