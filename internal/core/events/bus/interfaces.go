package bus

import "time"

// Event types published by a running simulation.
const (
	TypeTickCompleted = "tick.completed"
	TypeShipDestroyed = "ship.destroyed"
	TypeAgentError    = "agent.error"
	TypeCodeInstalled = "code.installed"
	TypeCodeRejected  = "code.rejected"
)

// EventBus is a thread-safe, in-process pub/sub bus used to observe a
// simulation from outside the tick loop.
//
// Delivery is synchronous, in the publisher goroutine, and in subscription
// order. Handler errors are joined and returned from Publish; publishers
// inside the tick loop log them and carry on.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type and to
	// wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers a handler for one event type. An empty type
	// subscribes to every event.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is a no-op.
	Unsubscribe(Subscription) error
	// PublishAsync publishes in a separate goroutine and reports the joined
	// handler error on the returned channel, which is then closed.
	PublishAsync(event Event) <-chan error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns counters, which only move while an observer is registered.
	GetMetrics() EventBusMetrics
}

// Event is a message published by a simulation. Data carries one of the
// payload types below, matching Type.
type Event struct {
	Type      string
	Source    string
	Tick      uint32
	Timestamp time.Time
	Data      any
}

type (
	EventHandler func(event Event) error
)

// Subscription represents a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(event Event)
	OnDelivered(event Event, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
