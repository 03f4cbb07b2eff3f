package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/unitcommit/core/events"
	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
	"github.com/kilianp07/unitcommit/infra/logger"
	"github.com/kilianp07/unitcommit/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records solve events
// on sink. It stops when ctx is canceled or the bus is closed; the returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	log := logger.New("metrics-collector")
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	now := time.Now()
	switch e := ev.(type) {
	case events.GapImproved:
		if r, ok := sink.(coremetrics.GapRecorder); ok {
			return r.RecordGap(coremetrics.GapObservation{
				RunID: e.RunID, Model: e.Model, Gap: e.Gap, Runtime: e.Runtime, Time: now,
			})
		}
	case events.TerminationRequested:
		if r, ok := sink.(coremetrics.TerminationRecorder); ok {
			return r.RecordTermination(coremetrics.TerminationEvent{
				RunID: e.RunID, Model: e.Model, Reason: e.Reason, Gap: e.Gap,
				Runtime: e.Runtime, SinceImprovement: e.SinceImprovement, Time: now,
			})
		}
	case events.SolveFinished:
		if e.Err != nil {
			return nil
		}
		return sink.RecordSolveResult(coremetrics.SolveResult{
			RunID: e.RunID, Model: e.Model, Style: e.Style, Backend: e.Backend,
			Status: e.Status, EarlyStopped: e.EarlyStopped, StopReason: e.StopReason,
			Objective: e.Objective, Gap: e.Gap, Runtime: e.Runtime,
			Variables: e.Variables, Constraints: e.Constraints, Time: now,
		})
	}
	return nil
}
