package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(FormatNegotiatedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case FormatNegotiatedEvent:
		event.Publish(b.dispatcher, e)
	case NegotiationFailedEvent:
		event.Publish(b.dispatcher, e)
	case EndOfStreamEvent:
		event.Publish(b.dispatcher, e)
	case OverlaySettingsChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e EndOfStreamEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(FormatNegotiatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NegotiationFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EndOfStreamEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OverlaySettingsChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// SubscribeToChannel bridges a callback subscription to a channel.
// Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
