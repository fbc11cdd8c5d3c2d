// Package quota enforces the per-user daily download ceiling.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the slice of the counter store the limiter needs. The production
// implementation is Redis; tests use an in-memory fake.
type Counter interface {
	// Incr atomically increments key, setting ttl on first use, and returns
	// the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Decr atomically decrements key.
	Decr(ctx context.Context, key string) error
	// Get returns the current value, 0 if the key does not exist.
	Get(ctx context.Context, key string) (int64, error)
}

// Limiter counts consumed jobs per (user, calendar day). Keys expire on their
// own; there is no reset logic.
type Limiter struct {
	c     Counter
	limit int64
}

func New(c Counter, limit int) *Limiter {
	return &Limiter{c: c, limit: int64(limit)}
}

func key(user int64, day string) string { return fmt.Sprintf("quota:%d:%s", user, day) }

func today() string { return time.Now().Format("20060102") }

// Consume takes one unit of today's allowance. It returns false, leaving the
// counter at the ceiling, once the ceiling is reached. Increment-then-undo
// keeps the check atomic under concurrent consumers.
func (l *Limiter) Consume(ctx context.Context, user int64) (bool, error) {
	k := key(user, today())
	n, err := l.c.Incr(ctx, k, 24*time.Hour)
	if err != nil {
		return false, err
	}
	if n > l.limit {
		if err := l.c.Decr(ctx, k); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Peek returns today's consumed count without mutating it.
func (l *Limiter) Peek(ctx context.Context, user int64) (int64, error) {
	return l.c.Get(ctx, key(user, today()))
}

// Remaining returns today's unused allowance, never negative.
func (l *Limiter) Remaining(ctx context.Context, user int64) (int64, error) {
	used, err := l.Peek(ctx, user)
	if err != nil {
		return 0, err
	}
	rem := l.limit - used
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}

// RedisCounter implements Counter on go-redis.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter { return &RedisCounter{rdb: rdb} }

func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = r.rdb.Expire(ctx, key, ttl).Err()
	}
	return n, nil
}

func (r *RedisCounter) Decr(ctx context.Context, key string) error {
	return r.rdb.Decr(ctx, key).Err()
}

func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
