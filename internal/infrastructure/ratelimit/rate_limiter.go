package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter caps backend calls per second. A qps of 0 or less disables
// the limit.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	// Token bucket sized to the QPS so short bursts pass.
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(qps), qps)}
}

// Wait blocks until a token is available or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now, without blocking.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetQPS changes the limit at runtime.
func (r *RateLimiter) SetQPS(qps int) {
	if qps <= 0 {
		r.limiter.SetLimit(rate.Inf)
		r.limiter.SetBurst(1)
		return
	}
	r.limiter.SetLimit(rate.Limit(qps))
	r.limiter.SetBurst(qps)
}

// QPS returns the current limit, 0 meaning unlimited.
func (r *RateLimiter) QPS() int {
	limit := r.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return int(limit)
}
