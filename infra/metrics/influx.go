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

	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
	"github.com/kilianp07/unitcommit/infra/logger"
)

// InfluxConfig points an InfluxSink at a bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes solve events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing database never blocks
// solving.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
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

// RecordSolveResult writes one solve_result point.
func (s *InfluxSink) RecordSolveResult(r coremetrics.SolveResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_result").
		AddTag("run_id", r.RunID).
		AddTag("model", r.Model).
		AddTag("style", r.Style).
		AddTag("status", r.Status).
		AddTag("early_stopped", strconv.FormatBool(r.EarlyStopped)).
		AddField("runtime_s", round3(r.Runtime.Seconds())).
		AddField("variables", r.Variables).
		AddField("constraints", r.Constraints)
	if r.StopReason != "" {
		p = p.AddTag("stop_reason", r.StopReason)
	}
	if isFinite(r.Objective) {
		p = p.AddField("objective", round3(r.Objective))
	}
	if isFinite(r.Gap) {
		p = p.AddField("gap", r.Gap)
	}
	p = p.SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordGap writes a gap_improved point.
func (s *InfluxSink) RecordGap(ev coremetrics.GapObservation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("gap_improved").
		AddTag("run_id", ev.RunID).
		AddTag("model", ev.Model).
		AddField("gap", ev.Gap).
		AddField("runtime_s", round3(ev.Runtime.Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTermination writes an early_termination point.
func (s *InfluxSink) RecordTermination(ev coremetrics.TerminationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("early_termination").
		AddTag("run_id", ev.RunID).
		AddTag("model", ev.Model).
		AddTag("reason", ev.Reason).
		AddField("gap", ev.Gap).
		AddField("runtime_s", round3(ev.Runtime.Seconds())).
		AddField("since_improvement_s", round3(ev.SinceImprovement.Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
