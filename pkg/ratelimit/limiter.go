package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outbound requests.
type Limiter interface {
	// Allow takes a token if one is available.
	Allow() bool
	// Wait blocks until a token is available or ctx is done.
	Wait(ctx context.Context) error
	// Reset refills the limiter.
	Reset()
}

// TokenBucket holds up to capacity tokens and refills them evenly over
// refillPeriod.
type TokenBucket struct {
	capacity     float64
	tokens       float64
	refillPeriod time.Duration
	lastRefill   time.Time
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket allows capacity requests per refillPeriod, with bursts up
// to capacity.
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return newTokenBucket(capacity, refillPeriod, time.Now)
}

func newTokenBucket(capacity int, refillPeriod time.Duration, now func() time.Time) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:     float64(capacity),
		tokens:       float64(capacity),
		refillPeriod: refillPeriod,
		lastRefill:   now(),
		now:          now,
	}
}

// PerMinute is NewTokenBucket(n, time.Minute).
func PerMinute(n int) *TokenBucket {
	return NewTokenBucket(n, time.Minute)
}

// Allow takes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is taken or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		timer := time.NewTimer(tb.untilNext())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset refills the bucket to capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

// Tokens reports the tokens currently available.
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(tb.tokens)
}

// untilNext estimates how long until a whole token is available.
func (tb *TokenBucket) untilNext() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	missing := 1 - tb.tokens
	if missing <= 0 {
		return 0
	}
	d := time.Duration(missing * float64(tb.refillPeriod) / tb.capacity)
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 || tb.refillPeriod <= 0 {
		return
	}

	tb.tokens += elapsed.Seconds() / tb.refillPeriod.Seconds() * tb.capacity
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Allow() bool                   { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
