package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleeteffects/core/metrics"
	"github.com/kilianp07/fleeteffects/infra/logger"
)

// InfluxSink writes phase and session events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPhase writes one effects_phase point.
func (s *InfluxSink) RecordPhase(ev coremetrics.PhaseEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("effects_phase").
		AddTag("batch", ev.Batch).
		AddTag("session_policy", string(ev.SessionPolicy)).
		AddTag("session_name", ev.SessionName).
		AddTag("phase", string(ev.Phase)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("rows", ev.Rows).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSessionOutcome writes one effects_session point.
func (s *InfluxSink) RecordSessionOutcome(o coremetrics.SessionOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("effects_session").
		AddTag("batch", o.Batch).
		AddTag("run_id", o.RunID).
		AddTag("session_policy", string(o.SessionPolicy)).
		AddTag("session_name", o.SessionName).
		AddTag("failed", strconv.FormatBool(o.Failed)).
		AddField("duration_ms", round3(o.Duration.Seconds()*1000))
	if o.Error != "" {
		p = p.AddField("error", o.Error)
	}
	p = p.SetTime(o.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Flush closes the client.
func (s *InfluxSink) Flush() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
