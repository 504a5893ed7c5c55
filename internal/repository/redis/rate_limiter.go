// Package redis holds the Redis-backed adapters. The only one today is the
// per-provider scrape rate limiter; the counter store is shared by every
// scheduler worker and by the API's manual triggers.
package redis

import (
	"context"
	"log"
	"time"

	"github.com/gomodule/redigo/redis"
)

const rateLimitKeyPrefix = "scraper:rate_limit:"

// ConnPool is the slice of *redis.Pool the limiter needs. Tests substitute
// a fake returning a scripted connection.
type ConnPool interface {
	Get() redis.Conn
}

// NewPool returns a redigo pool for the given address.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		MaxActive:   16,
		IdleTimeout: 120 * time.Second,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(time.Second),
				redis.DialWriteTimeout(time.Second),
			)
		},
	}
}

// RateLimiter enforces a fixed window of at most Requests per Window per
// provider, counted in Redis with atomic INCR. When Redis is unreachable it
// fails open: the scraping pipeline keeps running without enforcement.
type RateLimiter struct {
	pool     ConnPool
	requests int
	window   time.Duration
}

func NewRateLimiter(pool ConnPool, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{pool: pool, requests: requests, window: window}
}

func (l *RateLimiter) Allow(ctx context.Context, provider string) bool {
	conn := l.pool.Get()
	if conn == nil {
		return true
	}
	defer conn.Close()
	if err := conn.Err(); err != nil {
		log.Printf("ratelimit: %s: redis unavailable (%v), failing open", provider, err)
		return true
	}

	key := rateLimitKeyPrefix + provider

	count, err := redis.Int(redis.DoContext(conn, ctx, "INCR", key))
	if err != nil {
		log.Printf("ratelimit: %s: INCR failed (%v), failing open", provider, err)
		return true
	}
	if count == 1 {
		// First hit in this window starts the clock.
		if _, err := redis.DoContext(conn, ctx, "EXPIRE", key, int(l.window.Seconds())); err != nil {
			log.Printf("ratelimit: %s: EXPIRE failed (%v), failing open", provider, err)
			return true
		}
	}
	return count <= l.requests
}
