package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Per-user token bucket. Every menu press costs one feed request, so a user
// hammering the keyboard is slowed down before the feed is.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained number of updates per user.
	RequestsPerMinute int

	// BurstSize is the number of updates a user may send at once.
	BurstSize int

	// IdleTTL drops buckets of users who were quiet for this long.
	IdleTTL time.Duration

	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         5,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter implements per-user rate limiting.
type RateLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultRateLimitConfig().RequestsPerMinute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	return &RateLimiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[int64]*bucket),
	}
}

// Check consumes one token of the user's bucket.
func (rl *RateLimiter) Check(telegramID int64) RateLimitResult {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[telegramID]
	if !ok {
		every := time.Minute / time.Duration(rl.config.RequestsPerMinute)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), rl.config.BurstSize)}
		rl.buckets[telegramID] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return RateLimitResult{Allowed: true}
	}
	r.CancelAt(now)
	return RateLimitResult{Allowed: false, RetryAfter: delay}
}

// Run drops idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	interval := rl.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	threshold := rl.now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.buckets {
		if b.lastSeen.Before(threshold) {
			delete(rl.buckets, id)
		}
	}
}

// Len returns the number of tracked users.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
