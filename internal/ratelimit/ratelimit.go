// Package ratelimit provides a token-bucket limiter used to cap how many
// slide tasks start per second, keeping the pipeline inside provider
// request quotas.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket: capacity tokens, refilled continuously at
// refillRate tokens per second.
type Limiter struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
}

// New creates a limiter allowing ratePerSecond acquisitions per second
// with a burst of up to burst. A ratePerSecond of zero or less disables
// limiting.
func New(ratePerSecond float64, burst int) *Limiter {
	if ratePerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		capacity:   float64(burst),
		tokens:     float64(burst),
		refillRate: ratePerSecond,
		lastRefill: time.Now(),
	}
}

func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.refillRate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.lastRefill = now
}

// Allow reports whether a token is available, consuming it if so.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(time.Now())
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is done. A nil
// limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()
		now := time.Now()
		l.refill(now)
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
