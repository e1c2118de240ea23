package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimiterSweepInterval = 5 * time.Minute
	rateLimiterIdleTTL       = 10 * time.Minute
)

// RateLimiter decides whether one more attempt under key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) RateDecision
	Close() error
}

type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// memoryRateLimiter keeps one token bucket per key.
type memoryRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*bucket
	stopCh  chan struct{}
	once    sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewMemoryRateLimiter allows burst attempts at once per key, refilled at
// perMinute attempts a minute. perMinute <= 0 disables limiting.
func NewMemoryRateLimiter(perMinute, burst int) RateLimiter {
	return newMemoryRateLimiter(perMinute, burst, time.Now)
}

func newMemoryRateLimiter(perMinute, burst int, now func() time.Time) *memoryRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &memoryRateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     now,
		entries: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
	}
	if perMinute <= 0 {
		rl.limit = rate.Inf
	}
	go rl.sweepLoop()
	return rl
}

func (rl *memoryRateLimiter) Allow(_ context.Context, key string) RateDecision {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.entries[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return RateDecision{Allowed: false, RetryAfter: time.Minute}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return RateDecision{Allowed: false, RetryAfter: delay}
	}
	return RateDecision{Allowed: true}
}

func (rl *memoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *memoryRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.entries {
		if now.Sub(b.lastSeen) > rateLimiterIdleTTL {
			delete(rl.entries, key)
		}
	}
}

func (rl *memoryRateLimiter) Close() error {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
	return nil
}
