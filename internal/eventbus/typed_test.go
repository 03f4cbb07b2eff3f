package eventbus

import (
	"testing"

	"github.com/kilianp07/unitcommit/core/events"
)

func TestTypedBusFanOut(t *testing.T) {
	bus := NewTyped[events.SolveStarted]()
	a, b := bus.Subscribe(), bus.Subscribe()
	bus.Publish(events.SolveStarted{RunID: "r1", Model: "day-ahead"})
	for _, ch := range []<-chan events.SolveStarted{a, b} {
		if ev := <-ch; ev.RunID != "r1" || ev.Model != "day-ahead" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	bus.Unsubscribe(a)
	bus.Publish(events.SolveStarted{RunID: "r2"})
	if ev := <-b; ev.RunID != "r2" {
		t.Fatalf("remaining subscriber missed r2: %+v", ev)
	}
}

// A slow consumer loses the newest gap updates, never blocks the solve.
func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTyped[events.GapImproved](WithBuffer(2))
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(events.GapImproved{Gap: 1 / float64(i+1)})
	}
	if got := bus.Dropped(); got != 3 {
		t.Fatalf("expected 3 dropped, got %d", got)
	}
	if ev := <-ch; ev.Gap != 1 {
		t.Fatalf("expected oldest update first, got %v", ev.Gap)
	}
}

func TestTypedBusCloseIsIdempotent(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
}
