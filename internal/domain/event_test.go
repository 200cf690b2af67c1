package domain_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

func TestInMemoryEventBus_PublishInRegistrationOrder(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)

	var order []string
	bus.Subscribe(domain.EventScoreUpdated, func(ctx context.Context, e domain.EventPayload) {
		order = append(order, "first")
	})
	bus.Subscribe(domain.EventScoreUpdated, func(ctx context.Context, e domain.EventPayload) {
		order = append(order, "second")
	})
	bus.Subscribe(domain.EventScoreUpdated, func(ctx context.Context, e domain.EventPayload) {
		order = append(order, "third")
	})

	score := 82
	bus.Publish(context.Background(), domain.EventPayload{
		Type:     domain.EventScoreUpdated,
		DomainID: "dom-1",
		Time:     time.Now(),
		Score:    &score,
	})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestInMemoryEventBus_PayloadDelivered(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)

	var got domain.EventPayload
	bus.Subscribe(domain.EventRotationTriggered, func(ctx context.Context, e domain.EventPayload) {
		got = e
	})

	sent := domain.EventPayload{
		Type:       domain.EventRotationTriggered,
		DomainID:   "dom-7",
		Time:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		TargetPool: domain.PoolRecovery,
		Reason:     "2 consecutive scores below 75",
		Urgent:     true,
		Metadata:   map[string]string{"replacement": "dom-8"},
	}
	bus.Publish(context.Background(), sent)

	require.Equal(t, sent, got)
}

func TestInMemoryEventBus_PanicDoesNotStopOtherHandlers(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)

	var reached bool
	bus.Subscribe(domain.EventHealthCheckNeeded, func(ctx context.Context, e domain.EventPayload) {
		panic("handler blew up")
	})
	bus.Subscribe(domain.EventHealthCheckNeeded, func(ctx context.Context, e domain.EventPayload) {
		reached = true
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), domain.EventPayload{
			Type:     domain.EventHealthCheckNeeded,
			DomainID: "dom-1",
		})
	})
	assert.True(t, reached, "handler after the panicking one should still run")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)

	calls := 0
	sub := bus.Subscribe(domain.EventTestScheduled, func(ctx context.Context, e domain.EventPayload) {
		calls++
	})

	bus.Publish(context.Background(), domain.EventPayload{Type: domain.EventTestScheduled})
	bus.Unsubscribe(domain.EventTestScheduled, sub)
	bus.Publish(context.Background(), domain.EventPayload{Type: domain.EventTestScheduled})

	assert.Equal(t, 1, calls)

	// Unknown tokens are ignored
	assert.NotPanics(t, func() {
		bus.Unsubscribe(domain.EventTestScheduled, domain.Subscription(999))
	})
}

func TestInMemoryEventBus_NoSubscribers(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), domain.EventPayload{Type: domain.EventWarmupUpdate})
	})
}

func TestInMemoryEventBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := domain.NewInMemoryEventBus(nil)

	var mu sync.Mutex
	seen := 0
	bus.Subscribe(domain.EventScoreUpdated, func(ctx context.Context, e domain.EventPayload) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), domain.EventPayload{Type: domain.EventScoreUpdated})
		}()
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(domain.EventWarmupUpdate, func(ctx context.Context, e domain.EventPayload) {})
			bus.Unsubscribe(domain.EventWarmupUpdate, sub)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, seen)
}
