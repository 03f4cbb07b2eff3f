package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
)

type captureServer struct {
	mu     sync.Mutex
	bodies []string
}

func (c *captureServer) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, strings.TrimSpace(string(data)))
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func TestInfluxSink_RecordTermination(t *testing.T) {
	c := &captureServer{}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.TerminationEvent{
		RunID: "r1", Model: "day_ahead", Reason: "stalled", Gap: 0.25,
		Runtime: 17 * time.Second, SinceImprovement: 16 * time.Second, Time: now,
	}
	if err := sink.RecordTermination(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("early_termination").
		AddTag("run_id", "r1").
		AddTag("model", "day_ahead").
		AddTag("reason", "stalled").
		AddField("gap", 0.25).
		AddField("runtime_s", 17.0).
		AddField("since_improvement_s", 16.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(c.bodies) != 1 || c.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", c.bodies)
	}
}

func TestInfluxSink_RecordSolveResult(t *testing.T) {
	c := &captureServer{}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	res := coremetrics.SolveResult{
		RunID: "r2", Model: "m", Style: "elementwise", Status: "optimal",
		Objective: 201.25, Gap: 0, Runtime: 1500 * time.Millisecond,
		Variables: 48, Constraints: 64, Time: time.Now(),
	}
	if err := sink.RecordSolveResult(res); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(c.bodies) != 1 {
		t.Fatalf("expected one write, got %d", len(c.bodies))
	}
	for _, want := range []string{"solve_result,", "status=optimal", "objective=201.25", "variables=48i", "runtime_s=1.5"} {
		if !strings.Contains(c.bodies[0], want) {
			t.Errorf("body %q lacks %q", c.bodies[0], want)
		}
	}
	if strings.Contains(c.bodies[0], "stop_reason") {
		t.Errorf("unexpected stop_reason tag: %s", c.bodies[0])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
