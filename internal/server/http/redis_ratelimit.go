package httpx

import (
	"context"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/logging"
	redis "github.com/redis/go-redis/v9"
)

const redisRateWindow = time.Minute

type redisRateLimiter struct {
	client  *redis.Client
	log     logging.Logger
	prefix  string
	limit   int
	timeout time.Duration
}

// NewRedisRateLimiter shares a fixed one-minute window per key across every
// server instance pointing at addr. The window admits as many attempts as
// a full token bucket of the same perMinute and burst can within a minute.
// It fails when Redis cannot be reached.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db, perMinute, burst int, log logging.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &redisRateLimiter{
		client:  client,
		log:     log,
		prefix:  "saltgate:ratelimit:",
		limit:   redisWindowLimit(perMinute, burst),
		timeout: 250 * time.Millisecond,
	}, nil
}

// redisWindowLimit is the attempt cap of one window. Zero disables limiting.
func redisWindowLimit(perMinute, burst int) int {
	if perMinute <= 0 {
		return 0
	}
	if burst <= 0 {
		burst = 1
	}
	return perMinute + burst
}

// Allow fails open: a Redis error lets the attempt through.
func (rl *redisRateLimiter) Allow(ctx context.Context, key string) RateDecision {
	if rl.limit <= 0 {
		return RateDecision{Allowed: true}
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.log.Error(ctx, "redis rate limiter error", "op", "incr", "error", err)
		return RateDecision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, redisRateWindow).Err(); err != nil {
			rl.log.Error(ctx, "redis rate limiter error", "op", "expire", "error", err)
		}
	}
	if int(counter) <= rl.limit {
		return RateDecision{Allowed: true}
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = redisRateWindow
	}
	return RateDecision{Allowed: false, RetryAfter: ttl}
}

func (rl *redisRateLimiter) Close() error {
	return rl.client.Close()
}
