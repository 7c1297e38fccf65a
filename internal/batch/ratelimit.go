package batch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitOptions configures a RateLimiter. Exactly one of the two targets
// must be positive.
type RateLimitOptions struct {
	RequestsPerSecond float64
	RequestsPerMinute float64
	// Burst is the token bucket capacity. Values below 1 are raised to 1 so a
	// limiter can always make progress.
	Burst int
}

// RateLimiter is a token bucket: tokens accumulate at the configured rate up
// to the burst cap, and Wait suspends the caller until one is available.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter from a requests-per-second or
// requests-per-minute target.
func NewRateLimiter(opts RateLimitOptions) (*RateLimiter, error) {
	var perSecond float64
	switch {
	case opts.RequestsPerSecond > 0 && opts.RequestsPerMinute > 0:
		return nil, fmt.Errorf("requests per second and per minute are mutually exclusive")
	case opts.RequestsPerSecond > 0:
		perSecond = opts.RequestsPerSecond
	case opts.RequestsPerMinute > 0:
		perSecond = opts.RequestsPerMinute / 60
	default:
		return nil, fmt.Errorf("a positive rate target is required")
	}

	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}, nil
}

// Wait blocks until a token is available or the context is done. The
// suspension is timer-based, never a spin loop.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a token is available right now, consuming it if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
