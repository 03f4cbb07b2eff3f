// Package eventbus provides in-process publish/subscribe fan-out used to
// decouple solve sessions from metrics collection and report consumers.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus is the untyped bus used for solve events.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation.
type Bus = TypedBus[Event]

// New creates a new untyped Bus.
func New(opts ...Option) *Bus { return NewTyped[Event](opts...) }
