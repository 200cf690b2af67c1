package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mailfleet/mailfleet/pkg/logger"
)

//go:generate mockgen -destination mocks/mock_event_bus.go -package mocks github.com/Mailfleet/mailfleet/internal/domain EventBus

// EventType defines the type of an engine event
type EventType string

const (
	EventHealthCheckNeeded EventType = "health.check_needed"
	EventTestScheduled     EventType = "test.scheduled"
	EventWarmupUpdate      EventType = "warmup.update"
	EventRotationTriggered EventType = "rotation.triggered"
	EventScoreUpdated      EventType = "score.updated"
)

// EventPayload is the data published with an event. Fields beyond Type,
// DomainID and Time are set only where they mean something for the type.
type EventPayload struct {
	Type     EventType `json:"type"`
	DomainID string    `json:"domain_id"`
	Time     time.Time `json:"time"`

	// Score carries the new placement score on score.updated.
	Score *int `json:"score,omitempty"`
	// TargetPool names the destination pool on rotation.triggered.
	TargetPool PoolType `json:"target_pool,omitempty"`
	// Reason explains why the event fired.
	Reason string `json:"reason,omitempty"`
	// Urgent flags events that should page rather than inform.
	Urgent bool `json:"urgent,omitempty"`
	// Error carries the failure text on events reporting one.
	Error string `json:"error,omitempty"`
	// Metadata holds small auxiliary values (pool names, counts).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, payload EventPayload)

// Subscription identifies a registered handler so it can be removed.
type Subscription int

// EventBus lets services publish and subscribe to engine events.
// Delivery is synchronous and in-process; the bus is not durable.
type EventBus interface {
	// Publish invokes every handler subscribed to the event's type, in
	// registration order, on the calling goroutine. A panicking handler
	// is logged and skipped; the remaining handlers still run.
	Publish(ctx context.Context, event EventPayload)

	// Subscribe registers a handler for an event type and returns a
	// token for Unsubscribe.
	Subscribe(eventType EventType, handler EventHandler) Subscription

	// Unsubscribe removes a previously registered handler.
	Unsubscribe(eventType EventType, sub Subscription)
}

type subscriber struct {
	id      Subscription
	handler EventHandler
}

// InMemoryEventBus is the process-local EventBus used by the engine.
// Publishes take a read lock so concurrent publishers never block each
// other; subscribe and unsubscribe are rare and take the write lock.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscriber
	nextID      Subscription
	log         logger.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus. A nil logger
// discards panic reports.
func NewInMemoryEventBus(log logger.Logger) *InMemoryEventBus {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &InMemoryEventBus{
		subscribers: make(map[EventType][]subscriber),
		log:         log,
	}
}

// Publish delivers the event to subscribers in registration order.
func (b *InMemoryEventBus) Publish(ctx context.Context, event EventPayload) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers[event.Type]))
	copy(subs, b.subscribers[event.Type])
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s, event)
	}
}

// deliver runs one handler, containing any panic so the remaining
// handlers and the publisher are unaffected.
func (b *InMemoryEventBus) deliver(ctx context.Context, s subscriber, event EventPayload) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(map[string]interface{}{
				"event_type": string(event.Type),
				"domain_id":  event.DomainID,
				"panic":      fmt.Sprintf("%v", r),
			}).Error("event handler panicked")
		}
	}()
	s.handler(ctx, event)
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType EventType, handler EventHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber{
		id:      b.nextID,
		handler: handler,
	})
	return b.nextID
}

// Unsubscribe removes the handler registered under the token. Unknown
// tokens are ignored.
func (b *InMemoryEventBus) Unsubscribe(eventType EventType, sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == sub {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
