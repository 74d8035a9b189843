package metrics

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/factory"
	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
	mqttconn "github.com/kilianp07/fleeteffects/infra/mqtt"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	d := make(chan struct{})
	close(d)
	return &fakeToken{err: err, done: d}
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	connectErr   error
	connected    bool
	msgs         []published
	disconnected bool
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Connect() paho.Token {
	f.connected = f.connectErr == nil
	return newFakeToken(f.connectErr)
}
func (f *fakeClient) Disconnect(uint) { f.disconnected = true; f.connected = false }
func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	f.msgs = append(f.msgs, published{topic, qos, payload.([]byte)})
	return newFakeToken(nil)
}

func withFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return fc }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestMQTTNotifierPublishesOutcome(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)
	n, err := NewMQTTNotifier(MQTTConfig{Config: mqttconn.Config{Broker: "tcp://broker:1883"}, QoS: 1})
	require.NoError(t, err)

	require.NoError(t, n.RecordPhase(coremetrics.PhaseEvent{}))
	require.NoError(t, n.RecordSessionOutcome(coremetrics.SessionOutcome{
		Batch: "b", RunID: "r1", SessionPolicy: "action_1", SessionName: "a1",
		Failed: true, Error: "boom", Duration: 2 * time.Second, Time: time.Unix(0, 0),
	}))
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "effects/sessions/a1", fc.msgs[0].topic)
	assert.Equal(t, byte(1), fc.msgs[0].qos)

	var msg SessionMessage
	require.NoError(t, json.Unmarshal(fc.msgs[0].payload, &msg))
	assert.Equal(t, SessionMessage{
		Batch: "b", RunID: "r1", SessionPolicy: "action_1", SessionName: "a1",
		Failed: true, Error: "boom", DurationS: 2, Time: "1970-01-01T00:00:00Z",
	}, msg)

	require.NoError(t, n.Flush())
	assert.True(t, fc.disconnected)
}

func TestMQTTNotifierConnectError(t *testing.T) {
	withFakeClient(t, &fakeClient{connectErr: errors.New("refused")})
	_, err := NewMQTTNotifier(MQTTConfig{Config: mqttconn.Config{Broker: "tcp://broker:1883"}})
	assert.ErrorContains(t, err, "refused")

	_, err = NewMQTTNotifier(MQTTConfig{})
	assert.Error(t, err)
}

func TestMQTTConfigDecode(t *testing.T) {
	var c MQTTConfig
	require.NoError(t, factory.Decode(map[string]any{
		"broker": "tcp://broker:1883", "username": "u", "timeout_ms": "250", "topic": "runs", "qos": 1,
	}, &c))
	assert.Equal(t, "tcp://broker:1883", c.Broker)
	assert.Equal(t, "u", c.Username)
	assert.Equal(t, 250*time.Millisecond, c.Timeout())
	assert.Equal(t, "runs", c.Topic)
	assert.Equal(t, byte(1), c.QoS)
}
