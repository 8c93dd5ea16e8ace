package readcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersaga/domain"
	"ordersaga/timeline"
)

func sampleHistory(orderID string) timeline.OrderHistory {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return timeline.OrderHistory{
		OrderID:       orderID,
		OrderNumber:   "ORD-2026-ABCDEF12",
		CreatedAt:     now,
		FinalStatus:   domain.OrderStatusCompleted,
		WasSuccessful: true,
		TotalAttempts: 1,
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache_GetFallsThroughToLoaderOnFullMissThenServesFromLocal(t *testing.T) {
	_, rc := newTestRedis(t)
	c := New(Config{Redis: rc})

	calls := 0
	load := func(ctx context.Context, orderID string) (timeline.OrderHistory, error) {
		calls++
		return sampleHistory(orderID), nil
	}

	ctx := context.Background()
	h1, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)
	assert.Equal(t, "order-1", h1.OrderID)
	assert.Equal(t, 1, calls)

	h2, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, calls, "second Get must be served from the local LRU, not the loader")
}

func TestCache_GetServesFromRedisWhenLocalMisses(t *testing.T) {
	_, rc := newTestRedis(t)
	c := New(Config{Redis: rc})

	calls := 0
	load := func(ctx context.Context, orderID string) (timeline.OrderHistory, error) {
		calls++
		return sampleHistory(orderID), nil
	}

	ctx := context.Background()
	_, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)

	c.local.Delete("order-1")

	h, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)
	assert.Equal(t, "order-1", h.OrderID)
	assert.Equal(t, 1, calls, "Redis hit must not call the loader again")
}

func TestCache_InvalidateDropsBothLevels(t *testing.T) {
	_, rc := newTestRedis(t)
	c := New(Config{Redis: rc})

	ctx := context.Background()
	load := func(ctx context.Context, orderID string) (timeline.OrderHistory, error) {
		return sampleHistory(orderID), nil
	}
	_, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)

	c.Invalidate(ctx, "order-1")

	_, found := c.local.Get("order-1")
	assert.False(t, found)

	n, err := rc.Exists(ctx, c.key("order-1")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_WorksWithoutRedisConfigured(t *testing.T) {
	c := New(Config{})

	calls := 0
	load := func(ctx context.Context, orderID string) (timeline.OrderHistory, error) {
		calls++
		return sampleHistory(orderID), nil
	}

	ctx := context.Background()
	_, err := c.Get(ctx, "order-1", load)
	require.NoError(t, err)
	_, err = c.Get(ctx, "order-1", load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, "order-1")
	_, found := c.local.Get("order-1")
	assert.False(t, found)
}
