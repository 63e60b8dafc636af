// README: Fixed-window request limiter with counters in Redis so limits hold across instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

func New(rdb *redis.Client, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit", now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Key is the counter key for client in the window containing t.
func (l *Limiter) Key(client string, t time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, client, t.UnixNano()/int64(l.window))
}

// Allow counts one request for client. The counter expires with its window.
func (l *Limiter) Allow(ctx context.Context, client string) (Decision, error) {
	now := l.now()
	key := l.Key(client, now)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	if int(n) > l.limit {
		windowStart := now.Truncate(l.window)
		return Decision{Allowed: false, RetryAfter: windowStart.Add(l.window).Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - int(n)}, nil
}
