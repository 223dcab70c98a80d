package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per key with an equal burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Cleanup drops limiters idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup drops idle limiters every interval until Stop is called.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) {
	go func() {
		defer close(rl.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(maxIdle)
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimit rejects clients over budget with 429. A zero budget disables it.
// The returned stop func ends the limiter's cleanup loop.
func RateLimit(perMinute int, skip ...string) (fiber.Handler, func()) {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }, func() {}
	}
	rl := NewRateLimiter(perMinute)
	rl.StartCleanup(5*time.Minute, 10*time.Minute)

	return func(c *fiber.Ctx) error {
		for _, p := range skip {
			if c.Path() == p {
				return c.Next()
			}
		}
		if !rl.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		}
		return c.Next()
	}, rl.Stop
}
