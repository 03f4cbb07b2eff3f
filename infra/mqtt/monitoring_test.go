package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/unitcommit/core/commitment"
	coremon "github.com/kilianp07/unitcommit/core/monitoring"
	coremqtt "github.com/kilianp07/unitcommit/core/mqtt"
	"github.com/kilianp07/unitcommit/core/runlog"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts        *paho.ClientOptions
	connected   bool
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return m.connected }
func (m *mockClient) Connect() paho.Token {
	m.connected = true
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.connected = false }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	}
	m.published = append(m.published, published{topic, qos, retained, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d *dummyToken) Wait() bool                     { return true }
func (d *dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d *dummyToken) Error() error                   { return d.err }
func (d *dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = orig })
}

func sampleMessage() coremqtt.ScheduleMessage {
	return coremqtt.ScheduleMessage{
		RunID: "run-1", Model: "day_ahead", Status: "feasible", EarlyStopped: true, StopReason: "stalled",
		Objective: runlog.Float(1234.5), Timestamp: time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC),
		Schedule: commitment.Schedule{
			Units: []commitment.UnitSchedule{
				{Unit: "gen1", Intervals: []commitment.Interval{{Output: 4, Committed: true}}},
				{Unit: "gen2", Intervals: []commitment.Interval{{Output: 0}}},
			},
			Demand: []float64{4},
		},
	}
}

func TestPublishSchedule(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.PublishSchedule(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	topics := []string{"unitcommit/status", "unitcommit/day_ahead/schedule", "unitcommit/day_ahead/units/gen1", "unitcommit/day_ahead/units/gen2"}
	if len(mc.published) != len(topics) {
		t.Fatalf("expected %d messages, got %d", len(topics), len(mc.published))
	}
	for i, want := range topics {
		if mc.published[i].topic != want {
			t.Fatalf("message %d on %s, want %s", i, mc.published[i].topic, want)
		}
	}
	if mc.published[1].qos != 1 || !mc.published[1].retained {
		t.Fatalf("qos/retain not applied")
	}
	var full coremqtt.ScheduleMessage
	if err := json.Unmarshal(mc.published[1].payload, &full); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if full.RunID != "run-1" || !full.EarlyStopped || *full.Objective != 1234.5 {
		t.Fatalf("unexpected payload %+v", full)
	}
	var unit coremqtt.UnitMessage
	if err := json.Unmarshal(mc.published[2].payload, &unit); err != nil {
		t.Fatalf("decode unit: %v", err)
	}
	if unit.Unit != "gen1" || len(unit.Intervals) != 1 || !unit.Intervals[0].Committed {
		t.Fatalf("unexpected unit payload %+v", unit)
	}
	p.Close()
	if mc.connected {
		t.Fatal("expected disconnect on close")
	}
}

func TestPublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{nil, fmt.Errorf("net fail")}}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	msg := sampleMessage()
	msg.Schedule.Units = nil
	if err := p.PublishSchedule(context.Background(), msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// status + failed attempt + retry
	if len(mc.published) != 3 {
		t.Fatalf("expected a retry, got %d publishes", len(mc.published))
	}
}

func TestPublishErrorCaptured(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{nil, fail, fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.PublishSchedule(context.Background(), sampleMessage()); !errors.Is(err, fail) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["module"] != "mqtt" || mon.tags["model"] != "day_ahead" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestPublishWhenDisconnected(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	mc.connected = false
	if err := p.PublishSchedule(context.Background(), sampleMessage()); !errors.Is(err, coremqtt.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
