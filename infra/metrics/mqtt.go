package metrics

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
	"github.com/kilianp07/fleeteffects/infra/logger"
	mqttconn "github.com/kilianp07/fleeteffects/infra/mqtt"
)

// MQTTConfig defines the broker connection of the notifier.
type MQTTConfig struct {
	mqttconn.Config `json:",squash"`
	Topic           string `json:"topic"`
	QoS             byte   `json:"qos"`
	Retain          bool   `json:"retain"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes session outcomes as JSON so downstream tooling can
// react when a batch session finishes. Phase events are not published.
type MQTTNotifier struct {
	cli     pahoClient
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logger.Logger
}

// SessionMessage is the published payload.
type SessionMessage struct {
	Batch         string  `json:"batch"`
	RunID         string  `json:"run_id"`
	SessionPolicy string  `json:"session_policy"`
	SessionName   string  `json:"session_name"`
	Failed        bool    `json:"failed"`
	Error         string  `json:"error,omitempty"`
	DurationS     float64 `json:"duration_s"`
	Time          string  `json:"time"`
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	if cfg.Topic == "" {
		cfg.Topic = "effects/sessions"
	}
	log := logger.New("mqtt-notifier")
	opts, err := mqttconn.NewClientOptions(cfg.Config, log)
	if err != nil {
		return nil, fmt.Errorf("mqtt notifier: %w", err)
	}
	timeout := cfg.Timeout()
	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt notifier: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt notifier: %w", err)
	}
	return &MQTTNotifier{cli: c, topic: cfg.Topic, qos: cfg.QoS, retain: cfg.Retain, timeout: timeout, log: log}, nil
}

// RecordPhase is a no-op.
func (n *MQTTNotifier) RecordPhase(coremetrics.PhaseEvent) error { return nil }

// RecordSessionOutcome publishes the outcome to <topic>/<session_name>.
func (n *MQTTNotifier) RecordSessionOutcome(o coremetrics.SessionOutcome) error {
	msg := SessionMessage{
		Batch:         o.Batch,
		RunID:         o.RunID,
		SessionPolicy: string(o.SessionPolicy),
		SessionName:   o.SessionName,
		Failed:        o.Failed,
		Error:         o.Error,
		DurationS:     o.Duration.Seconds(),
		Time:          o.Time.UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := n.cli.Publish(n.topic+"/"+o.SessionName, n.qos, n.retain, payload)
	if !token.WaitTimeout(n.timeout) {
		return fmt.Errorf("mqtt notifier: publish timed out")
	}
	return token.Error()
}

// Flush disconnects from the broker.
func (n *MQTTNotifier) Flush() error {
	if n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
	return nil
}
