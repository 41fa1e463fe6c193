// Package ratelimit provides a shared request quota on top of golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is safe for concurrent use; share one instance across workers to
// enforce a provider-wide quota.
type Limiter struct {
	limiter *rate.Limiter
	perMin  int
}

// New creates a limiter allowing requestsPerMinute, with a burst of 10% of the
// rate (at least one).
func New(requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		perMin:  requestsPerMinute,
	}
}

// NewWithBurst creates a limiter with an explicit per-second rate and burst.
func NewWithBurst(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		perMin:  int(requestsPerSecond * 60),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now, consuming a token if so.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// PerMinute returns the configured quota.
func (l *Limiter) PerMinute() int {
	return l.perMin
}
