package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket guarding a webhook endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows burst requests immediately, then refills at requestsPerSecond.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a token is available or ctx is done.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
