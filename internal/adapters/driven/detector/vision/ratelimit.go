package vision

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is how long to pause after a 429 without Retry-After.
const DefaultBackoff = 20 * time.Second

// RateLimiter paces model requests with a token bucket and pauses all
// requests after the API reports rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given burst.
// A non-positive rate disables pacing.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// Backoff pauses requests for d, or DefaultBackoff when d <= 0.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultBackoff
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(d)
}
