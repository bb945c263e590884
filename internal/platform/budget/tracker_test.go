package budget

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func usageFor(t *testing.T, snap []Usage, source string) Usage {
	t.Helper()
	for _, u := range snap {
		if u.Source == source {
			return u
		}
	}
	t.Fatalf("no usage for %s", source)
	return Usage{}
}

func TestTryReserveStopsAtQuota(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker([]Limit{{Source: "geo", Window: Daily, Quota: 3}})

	assert.True(t, tr.TryReserve(ctx, "geo", 1))
	assert.True(t, tr.TryReserve(ctx, "geo", 2))
	assert.False(t, tr.TryReserve(ctx, "geo", 1))

	u := usageFor(t, tr.Snapshot(ctx), "geo")
	assert.Equal(t, 3, u.Used)
	assert.Equal(t, 0, u.Remaining)
}

func TestRejectedReservationDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker([]Limit{{Source: "geo", Window: Daily, Quota: 5}})

	require.True(t, tr.TryReserve(ctx, "geo", 4))
	assert.False(t, tr.TryReserve(ctx, "geo", 2))
	assert.True(t, tr.TryReserve(ctx, "geo", 1))
	assert.Equal(t, 5, usageFor(t, tr.Snapshot(ctx), "geo").Used)
}

func TestDailyRolloverResets(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)}
	tr := NewTracker([]Limit{{Source: "geo", Window: Daily, Quota: 2}}, WithClock(c.Now))

	require.True(t, tr.TryReserve(ctx, "geo", 2))
	require.False(t, tr.TryReserve(ctx, "geo", 1))

	c.Set(time.Date(2026, 3, 3, 0, 0, 1, 0, time.UTC))
	assert.Equal(t, 0, usageFor(t, tr.Snapshot(ctx), "geo").Used)
	assert.True(t, tr.TryReserve(ctx, "geo", 1))
	assert.Equal(t, 1, usageFor(t, tr.Snapshot(ctx), "geo").Used)
}

func TestMonthlyWindowSurvivesDayChange(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker([]Limit{{Source: "toll", Window: Monthly, Quota: 1}}, WithClock(c.Now))

	require.True(t, tr.TryReserve(ctx, "toll", 1))

	c.Set(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	assert.False(t, tr.TryReserve(ctx, "toll", 1))

	c.Set(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, tr.TryReserve(ctx, "toll", 1))
}

func TestUnknownSourceIsRejected(t *testing.T) {
	tr := NewTracker(nil)
	assert.False(t, tr.TryReserve(context.Background(), "nope", 1))
}

func TestPerMinuteIsInformational(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker([]Limit{{Source: "geo", Window: Daily, Quota: 100, PerMinute: 2}}, WithClock(c.Now))

	for i := 0; i < 5; i++ {
		assert.True(t, tr.TryReserve(ctx, "geo", 1))
	}

	u := usageFor(t, tr.Snapshot(ctx), "geo")
	assert.Equal(t, 5, u.Used)
	assert.Equal(t, 3, u.Throttled)
}

func TestConcurrentReservationsNeverExceedQuota(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker([]Limit{{Source: "geo", Window: Daily, Quota: 50}})

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.TryReserve(ctx, "geo", 1) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), admitted.Load())
	assert.Equal(t, 50, usageFor(t, tr.Snapshot(ctx), "geo").Used)
}

func TestWindowKeys(t *testing.T) {
	ts := time.Date(2026, 12, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-12-31", Daily.Key(ts))
	assert.Equal(t, "2026-12", Monthly.Key(ts))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), Monthly.End(ts))
}
