// Package readcache wraps OrderHistory lookups with a two-level cache: an
// in-process LRU (package cache) in front of Redis, so repeated polling of
// the same order's timeline (a realistic workload for a status page or a
// customer-support tool) does not re-run BuildHistory's full event replay
// on every request. Entries leave the cache only through an explicit
// Invalidate call or TTL expiry; the cache does not observe saga events and
// nothing is re-derived from Redis keyspace notifications.
package readcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ordersaga/cache"
	"ordersaga/logging"
	"ordersaga/timeline"
)

// client captures the subset of go-redis commands readcache relies on, kept
// narrow for easier substitution in tests.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Config configures a Cache.
type Config struct {
	Redis        redis.UniversalClient
	KeyPrefix    string
	RedisTTL     time.Duration
	LocalMaxSize int
	LocalTTL     time.Duration
	Logger       logging.ILogger
}

// Cache is a read-through two-level cache for timeline.OrderHistory, keyed
// by order id. A lookup checks the local LRU first, then Redis, and falls
// through to the caller's loader on a full miss; both levels are populated
// on the way back up.
type Cache struct {
	local     *cache.Cache[string, timeline.OrderHistory]
	redis     client
	keyPrefix string
	redisTTL  time.Duration
	logger    logging.ILogger
}

// New builds a Cache. A nil cfg.Redis is accepted for tests and for
// deployments that run without an L2; lookups then rely on the local LRU
// alone and Invalidate/Set become local-only no-ops for the Redis side.
func New(cfg Config) *Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ordersaga:history:"
	}
	if cfg.RedisTTL <= 0 {
		cfg.RedisTTL = 10 * time.Minute
	}
	if cfg.LocalMaxSize <= 0 {
		cfg.LocalMaxSize = 1000
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoopLogger()
	}

	var cl client
	if cfg.Redis != nil {
		cl = cfg.Redis
	}

	return &Cache{
		local: cache.New[string, timeline.OrderHistory](cache.Config{
			Name:    "order_history",
			MaxSize: cfg.LocalMaxSize,
			TTL:     cfg.LocalTTL,
		}),
		redis:     cl,
		keyPrefix: cfg.KeyPrefix,
		redisTTL:  cfg.RedisTTL,
		logger:    cfg.Logger.WithField("component", "readcache"),
	}
}

// Loader produces an OrderHistory on a full cache miss, typically
// timeline.BuildHistory fed by a Persistence Gateway read.
type Loader func(ctx context.Context, orderID string) (timeline.OrderHistory, error)

// Get returns orderID's history, consulting the local LRU, then Redis, then
// load as a last resort. A successful load (from Redis or load) repopulates
// every faster level above it.
func (c *Cache) Get(ctx context.Context, orderID string, load Loader) (timeline.OrderHistory, error) {
	if history, ok := c.local.Get(orderID); ok {
		return history, nil
	}

	if c.redis != nil {
		if history, ok := c.getRedis(ctx, orderID); ok {
			c.local.Set(orderID, history)
			return history, nil
		}
	}

	history, err := load(ctx, orderID)
	if err != nil {
		return timeline.OrderHistory{}, err
	}
	c.local.Set(orderID, history)
	c.setRedis(ctx, orderID, history)
	return history, nil
}

// Invalidate drops orderID from both cache levels. No component of this
// module calls it; until it is called (or the entry's TTL runs out), Get
// keeps returning the history cached before any newer saga event.
func (c *Cache) Invalidate(ctx context.Context, orderID string) {
	c.local.Delete(orderID)
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(orderID)).Err(); err != nil {
		c.logger.Warn(ctx, "redis invalidate failed", logging.String("orderId", orderID), logging.Error(err))
	}
}

func (c *Cache) getRedis(ctx context.Context, orderID string) (timeline.OrderHistory, bool) {
	raw, err := c.redis.Get(ctx, c.key(orderID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "redis get failed", logging.String("orderId", orderID), logging.Error(err))
		}
		return timeline.OrderHistory{}, false
	}
	var history timeline.OrderHistory
	if err := json.Unmarshal(raw, &history); err != nil {
		c.logger.Warn(ctx, "redis payload decode failed", logging.String("orderId", orderID), logging.Error(err))
		return timeline.OrderHistory{}, false
	}
	return history, true
}

func (c *Cache) setRedis(ctx context.Context, orderID string, history timeline.OrderHistory) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(history)
	if err != nil {
		c.logger.Warn(ctx, "redis payload encode failed", logging.String("orderId", orderID), logging.Error(err))
		return
	}
	if err := c.redis.Set(ctx, c.key(orderID), raw, c.redisTTL).Err(); err != nil {
		c.logger.Warn(ctx, "redis set failed", logging.String("orderId", orderID), logging.Error(err))
	}
}

func (c *Cache) key(orderID string) string {
	return c.keyPrefix + orderID
}
