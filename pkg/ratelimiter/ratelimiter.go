package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key inside a window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// New returns a Redis fixed-window limiter, or an in-process token bucket
// when rdb is nil.
func New(rdb *redis.Client, limit int, window time.Duration) Limiter {
	if rdb == nil {
		return NewMemoryLimiter(limit, window)
	}
	return NewRedisLimiter(rdb, limit, window)
}

type redisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("rate_limit:ip:%s", key)

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	res := Result{Limit: l.limit, Remaining: l.limit - int(count)}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if int(count) <= l.limit {
		res.Allowed = true
		return res, nil
	}

	ttl, err := l.rdb.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	res.RetryAfter = ttl
	return res, nil
}

type memoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    int
	every    rate.Limit
	window   time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows limit requests per window per key, refilling
// continuously.
func NewMemoryLimiter(limit int, window time.Duration) Limiter {
	if limit < 1 {
		limit = 1
	}
	return &memoryLimiter{
		limiters: make(map[string]*entry),
		limit:    limit,
		every:    rate.Every(window / time.Duration(limit)),
		window:   window,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.limit)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.sweep(now)
	l.mu.Unlock()

	res := Result{Limit: l.limit}
	if e.limiter.AllowN(now, 1) {
		res.Allowed = true
		res.Remaining = int(e.limiter.TokensAt(now))
		return res, nil
	}

	r := e.limiter.ReserveN(now, 1)
	res.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return res, nil
}

// sweep drops keys idle for a whole window. Caller holds mu.
func (l *memoryLimiter) sweep(now time.Time) {
	if len(l.limiters) < 1024 {
		return
	}
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.window {
			delete(l.limiters, k)
		}
	}
}
