//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/unitcommit/core/commitment"
	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
	coremqtt "github.com/kilianp07/unitcommit/core/mqtt"
	"github.com/kilianp07/unitcommit/infra/metrics"
	"github.com/kilianp07/unitcommit/infra/mqtt"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// startInflux starts an InfluxDB 2.7 container initialized with the e2e
// org, bucket and token, and returns its base URL.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a Mosquitto broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestInfluxSinkWritesSolveEvents(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	url := startInflux(ctx, t)

	sink := metrics.NewInfluxSinkWithFallback(metrics.InfluxConfig{URL: url, Token: influxToken, Org: influxOrg, Bucket: influxBucket})
	influx, ok := sink.(*metrics.InfluxSink)
	if !ok {
		t.Fatalf("expected live influx sink, got %T", sink)
	}
	defer influx.Close()

	now := time.Now()
	if err := influx.RecordGap(coremetrics.GapObservation{RunID: "e2e", Model: "three-units", Gap: 0.2, Runtime: time.Second, Time: now}); err != nil {
		t.Fatalf("record gap: %v", err)
	}
	if err := influx.RecordTermination(coremetrics.TerminationEvent{RunID: "e2e", Model: "three-units", Reason: "stalled", Gap: 0.2, Runtime: 17 * time.Second, SinceImprovement: 16 * time.Second, Time: now}); err != nil {
		t.Fatalf("record termination: %v", err)
	}
	if err := influx.RecordSolveResult(coremetrics.SolveResult{RunID: "e2e", Model: "three-units", Style: "bulk", Status: "feasible", EarlyStopped: true, StopReason: "stalled", Objective: 191.5, Gap: 0.2, Runtime: 17 * time.Second, Variables: 48, Constraints: 80, Time: now}); err != nil {
		t.Fatalf("record solve result: %v", err)
	}

	cli := NewInfluxClient(url, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	for _, m := range []string{"gap_improved", "early_termination", "solve_result"} {
		n, err := cli.Count(ctx, m)
		if err != nil {
			t.Fatalf("query %s: %v", m, err)
		}
		if n == 0 {
			t.Fatalf("no %s points returned from Influx", m)
		}
	}
}

func TestMQTTPublisherDeliversUnitSchedules(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	broker := startMosquitto(ctx, t)

	received := make(chan coremqtt.UnitMessage, 4)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(250)
	if tok := sub.Subscribe("unitcommit/three-units/units/+", 1, func(_ paho.Client, m paho.Message) {
		var msg coremqtt.UnitMessage
		if err := json.Unmarshal(m.Payload(), &msg); err == nil {
			received <- msg
		}
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cfg := mqtt.Config{Broker: broker, TopicPrefix: "unitcommit", QoS: 1}
	cfg.SetDefaults()
	pub, err := mqtt.NewPublisher(cfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()

	sched := commitment.Schedule{
		Units: []commitment.UnitSchedule{
			{Unit: "gen1", Intervals: []commitment.Interval{{Output: 4, Committed: true, Startup: true}}},
			{Unit: "gen2", Intervals: []commitment.Interval{{}}},
		},
		Demand:    []float64{4},
		Renewable: []float64{0},
	}
	if err := pub.PublishSchedule(ctx, coremqtt.ScheduleMessage{RunID: "e2e", Model: "three-units", Status: "optimal", Timestamp: time.Now(), Schedule: sched}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	units := map[string]bool{}
	for len(units) < 2 {
		select {
		case msg := <-received:
			if msg.RunID != "e2e" {
				t.Fatalf("unexpected run id %q", msg.RunID)
			}
			units[msg.Unit] = true
		case <-time.After(10 * time.Second):
			t.Fatalf("timeout, received units %v", units)
		}
	}
}
