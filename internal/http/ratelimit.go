package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter enforces per-client request rate limits using token bucket.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters sync.Map // key → *limiterEntry
	r        rate.Limit
	burst    int
	logger   *slog.Logger
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter.
// rpm is requests per minute, burst is the max burst allowed.
// If rpm <= 0, the rate limiter is effectively disabled (always allows).
func NewRateLimiter(rpm, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	rl := &RateLimiter{logger: logger}
	rl.SetLimits(rpm, burst)
	return rl
}

// SetLimits changes the rate for new and existing clients.
func (rl *RateLimiter) SetLimits(rpm, burst int) {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(0)
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60.0)
	}

	rl.mu.Lock()
	rl.r, rl.burst = r, burst
	rl.mu.Unlock()

	rl.limiters.Range(func(_, value any) bool {
		e := value.(*limiterEntry)
		e.limiter.SetLimit(r)
		e.limiter.SetBurst(burst)
		return true
	})
}

// Allow checks if a request from the given key is allowed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	entry := rl.getOrCreate(key)
	if !entry.limiter.Allow() {
		rl.logger.Warn("security.rate_limited", "key", key)
		return false
	}
	entry.lastSeen = time.Now()
	return true
}

// Enabled returns true if the rate limiter is active.
func (rl *RateLimiter) Enabled() bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.r > 0
}

func (rl *RateLimiter) getOrCreate(key string) *limiterEntry {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	rl.mu.RLock()
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rl.r, rl.burst),
		lastSeen: time.Now(),
	}
	rl.mu.RUnlock()
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry)
}

// CleanupLoop drops idle clients every five minutes until ctx is done.
func (rl *RateLimiter) CleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-10 * time.Minute))
		}
	}
}

func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		if entry.lastSeen.Before(cutoff) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// middleware limits by client IP.
func (rl *RateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		c.Next()
	}
}
