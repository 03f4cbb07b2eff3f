package eventbus

import (
	"testing"

	"github.com/kilianp07/unitcommit/core/events"
)

func TestBusPublishSubscribe(t *testing.T) {
	var bus EventBus = New()
	ch := bus.Subscribe()
	bus.Publish(events.GapImproved{RunID: "r1", Gap: 0.2})
	v := <-ch
	ev, ok := v.(events.GapImproved)
	if !ok || ev.Gap != 0.2 {
		t.Fatalf("unexpected event %#v", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
	bus.Publish("ignored")
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
