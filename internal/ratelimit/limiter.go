// Package ratelimit throttles the OTP endpoints per client key. With Redis
// configured the window is shared across instances; otherwise each instance
// falls back to an in-process limiter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts requests per key in a fixed window.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate limit key: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire rate limit key: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

// LocalLimiter keeps a token bucket per key. Buckets idle for several windows
// get dropped so the map does not grow with every address ever seen.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*localClient
	limit   int
	window  time.Duration
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*localClient),
		limit:   limit,
		window:  window,
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[key]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.clients[key] = c
	}
	c.lastSeen = now

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > 3*l.window {
			delete(l.clients, key)
		}
	}

	return c.limiter.Allow(), nil
}
