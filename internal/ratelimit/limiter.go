// Package ratelimit gates outbound DoH queries with a jittered token bucket.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// jitterFactor is the maximum relative jitter applied to a wait.
const jitterFactor = 0.20

// Limiter wraps a token-bucket rate limiter and adds ±20% jitter to wait intervals.
// A nil *Limiter never blocks.
type Limiter struct {
	inner *rate.Limiter
}

// New creates a Limiter with the given queries-per-second rate and burst capacity.
// rps <= 0 disables limiting.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(rps), max(burst, 1))}
}

// Wait reserves a token and sleeps until it becomes available, adding ±20%
// random jitter to the delay. Returns ctx.Err() if the context is cancelled
// before the token is granted.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	res := l.inner.Reserve()
	if !res.OK() {
		return ctx.Err()
	}

	delay := res.Delay()
	if delay <= 0 {
		return ctx.Err()
	}

	jitter := time.Duration(float64(delay) * jitterFactor * (rand.Float64()*2 - 1)) //nolint:gosec // non-cryptographic random is fine for jitter
	delay = max(0, delay+jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
