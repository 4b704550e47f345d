package gtasks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays well below the Tasks API per-user quota.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}

// defaultBackoff applies when a 429 response carries no Retry-After.
const defaultBackoff = 30 * time.Second

// maxBackoff caps the wait requested by a Retry-After header.
const maxBackoff = 5 * time.Minute

// cancelPollInterval is how often a blocked Wait checks for cancellation.
const cancelPollInterval = 100 * time.Millisecond

// RateLimiter provides rate limiting for Google Tasks requests.
// It uses a token bucket algorithm with a backoff window after 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with DefaultRateLimit.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError. When
// cancelled reports true while waiting, Wait returns domain.ErrSyncCancelled
// within cancelPollInterval.
func (r *RateLimiter) Wait(ctx context.Context, cancelled func() bool) error {
	if r.Allow() {
		return nil
	}

	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	if cancelled != nil {
		go pollCancelled(ctx, stop, cancelled)
	}

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-timer.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		return err
	}
	return nil
}

func pollCancelled(ctx context.Context, stop context.CancelCauseFunc, cancelled func() bool) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cancelled() {
				stop(domain.ErrSyncCancelled)
				return
			}
		}
	}
}

// RecordRateLimitError records a rate limit error and sets a backoff period.
func (r *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	backoff := defaultBackoff
	if retryAfterSeconds > 0 {
		backoff = min(time.Duration(retryAfterSeconds)*time.Second, maxBackoff)
	}
	r.retryAt = time.Now().Add(backoff)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
