package apiclient

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures executor-level rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	// A value <= 0 disables rate limiting.
	RequestsPerSecond float64

	// Burst is the maximum number of requests allowed in a burst.
	// Values below 1 are raised to 1.
	Burst int

	// WaitOnLimit determines behavior when the limit is hit.
	// If true, calls wait for a token (respecting ctx).
	// If false, calls immediately fail with ErrRateLimited.
	WaitOnLimit bool
}

// DefaultRateLimitConfig returns 100 requests per second with a burst of 10,
// waiting for tokens.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// rateLimitExecutor decorates an Executor with a token bucket.
type rateLimitExecutor struct {
	next    Executor
	limiter *rate.Limiter
	wait    bool
}

// RateLimit wraps next with a token bucket limiter.
//
// Hijacked calls never reach the executor and so never consume tokens.
//
//	exec := apiclient.RateLimit(apiclient.NewHTTPExecutor(nil), apiclient.RateLimitConfig{
//	    RequestsPerSecond: 5,
//	    Burst:             1,
//	})
func RateLimit(next Executor, cfg RateLimitConfig) Executor {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &rateLimitExecutor{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// Execute implements Executor.
func (e *rateLimitExecutor) Execute(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	if e.wait {
		if err := e.limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			// Wait also fails when the deadline is too close to ever get a token.
			return nil, ErrRateLimited
		}
	} else if !e.limiter.Allow() {
		return nil, ErrRateLimited
	}

	return e.next.Execute(ctx, req)
}
