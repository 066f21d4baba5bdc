package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Limiter admits or rejects a request for a client key.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) error
}

// MemoryLimiter is an in-process fixed-window limiter.
type MemoryLimiter struct {
	config   Config
	now      func() time.Time
	counters sync.Map // clientKey -> *windowCounter
}

type windowCounter struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	started     bool
}

// NewMemory creates a [MemoryLimiter]. A nil now uses time.Now.
func NewMemory(cfg Config, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{config: cfg, now: now}
}

// Allow records one request for clientKey.
func (l *MemoryLimiter) Allow(_ context.Context, clientKey string) error {
	v, ok := l.counters.Load(clientKey)
	if !ok {
		v, _ = l.counters.LoadOrStore(clientKey, &windowCounter{})
	}
	c := v.(*windowCounter)

	now := l.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || now.Sub(c.windowStart) >= l.config.Window {
		c.windowStart = now
		c.count = 0
		c.started = true
	}
	c.count++

	if c.count > l.config.MaxRequests {
		return ErrRateLimited
	}
	return nil
}

// Len reports how many client keys have a counter.
func (l *MemoryLimiter) Len() int {
	n := 0
	l.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// RedisLimiter is a fixed-window limiter shared between processes.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// NewRedis creates a [RedisLimiter] writing keys as "<prefix>:<clientKey>".
func NewRedis(redisClient redis.UniversalClient, prefix string, cfg Config) *RedisLimiter {
	if prefix == "" {
		prefix = "acrl"
	}
	return &RedisLimiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// Allow records one request for clientKey.
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) error {
	count, err := l.incrementWithTTL(ctx, l.prefix+":"+clientKey, l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRequests) {
		return ErrRateLimited
	}
	return nil
}

// incrementWithTTL bumps the window counter and starts its TTL in one
// MULTI/EXEC. EXPIRE NX only sets a TTL on a key that has none, so the
// window is never extended, and a counter left without a TTL heals on the
// next hit.
func (l *RedisLimiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return incr.Val(), nil
}
