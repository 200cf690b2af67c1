package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/pkg/clock"
)

func TestRealClock(t *testing.T) {
	t.Run("Now returns current time", func(t *testing.T) {
		c := clock.New()
		beforeTest := time.Now()

		result := c.Now()

		afterTest := time.Now()
		assert.True(t, !result.Before(beforeTest), "time should not be before the test started")
		assert.True(t, !result.After(afterTest), "time should not be after the test finished")
	})

	t.Run("Since returns elapsed duration", func(t *testing.T) {
		c := clock.New()
		start := time.Now().Add(-100 * time.Millisecond)

		elapsed := c.Since(start)

		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, time.Second, "sanity check")
	})

	t.Run("After fires", func(t *testing.T) {
		c := clock.New()

		select {
		case <-c.After(time.Millisecond):
		case <-time.After(time.Second):
			t.Fatal("timer did not fire")
		}
	})
}

func TestVirtualClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Now is fixed until advanced", func(t *testing.T) {
		c := clock.NewVirtual(start)

		assert.Equal(t, start, c.Now())
		c.Advance(90 * time.Minute)
		assert.Equal(t, start.Add(90*time.Minute), c.Now())
	})

	t.Run("Since uses virtual now", func(t *testing.T) {
		c := clock.NewVirtual(start)
		c.Advance(10 * time.Minute)

		assert.Equal(t, 10*time.Minute, c.Since(start))
	})

	t.Run("After fires when deadline is crossed", func(t *testing.T) {
		c := clock.NewVirtual(start)
		ch := c.After(15 * time.Minute)

		c.Advance(14 * time.Minute)
		select {
		case <-ch:
			t.Fatal("timer fired before its deadline")
		default:
		}

		c.Advance(time.Minute)
		select {
		case fired := <-ch:
			assert.Equal(t, start.Add(15*time.Minute), fired)
		default:
			t.Fatal("timer should have fired at its deadline")
		}
	})

	t.Run("non-positive delays fire immediately", func(t *testing.T) {
		c := clock.NewVirtual(start)

		select {
		case <-c.After(0):
		default:
			t.Fatal("zero-delay timer should be ready")
		}
	})

	t.Run("one Advance fires every due timer", func(t *testing.T) {
		c := clock.NewVirtual(start)
		first := c.After(5 * time.Minute)
		second := c.After(10 * time.Minute)
		far := c.After(time.Hour)

		c.Advance(30 * time.Minute)

		requireFired := func(ch <-chan time.Time) {
			select {
			case <-ch:
			default:
				t.Fatal("expected timer to have fired")
			}
		}
		requireFired(first)
		requireFired(second)
		select {
		case <-far:
			t.Fatal("distant timer should not have fired")
		default:
		}
	})

	t.Run("Set moves forward and fires timers", func(t *testing.T) {
		c := clock.NewVirtual(start)
		ch := c.After(time.Hour)

		c.Set(start.Add(2 * time.Hour))

		require.Equal(t, start.Add(2*time.Hour), c.Now())
		select {
		case <-ch:
		default:
			t.Fatal("timer should have fired when clock jumped past it")
		}
	})
}
