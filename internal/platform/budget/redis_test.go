package budget

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTracker(t *testing.T, c *clock, limits []Limit) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)

	tr := NewRedisTracker(client, "test", limits, c.Now, nil)
	t.Cleanup(func() { _ = tr.Close() })
	return tr, mr
}

func TestRedisTrackerStopsAtQuota(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	tr, mr := newRedisTracker(t, c, []Limit{{Source: "geo", Window: Daily, Quota: 3}})

	assert.True(t, tr.TryReserve(ctx, "geo", 2))
	assert.False(t, tr.TryReserve(ctx, "geo", 2))
	assert.True(t, tr.TryReserve(ctx, "geo", 1))
	assert.False(t, tr.TryReserve(ctx, "geo", 1))

	got, err := mr.Get("test:geo:2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "3", got)
	assert.Greater(t, mr.TTL("test:geo:2026-03-02"), time.Duration(0))
}

func TestRedisTrackerRollsOverByKey(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)}
	tr, _ := newRedisTracker(t, c, []Limit{{Source: "geo", Window: Daily, Quota: 1}})

	require.True(t, tr.TryReserve(ctx, "geo", 1))
	require.False(t, tr.TryReserve(ctx, "geo", 1))

	c.Set(time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC))
	assert.True(t, tr.TryReserve(ctx, "geo", 1))

	snap := tr.Snapshot(ctx)
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Used)
}

func TestRedisTrackerFailsClosed(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	tr, mr := newRedisTracker(t, c, []Limit{{Source: "geo", Window: Daily, Quota: 10}})

	mr.SetError("ERR simulated outage")
	assert.False(t, tr.TryReserve(ctx, "geo", 1))
}
