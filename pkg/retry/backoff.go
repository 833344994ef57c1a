package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	apperrors "mediafetch/pkg/errors"
)

// BackoffStrategy computes the delay before a retry
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds randomness to avoid thundering herd (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	mult := eb.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	delay := float64(eb.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ErrorAwareBackoff switches strategy on the type of the failure.
type ErrorAwareBackoff struct {
	Default   BackoffStrategy
	RateLimit BackoffStrategy
}

// NextDelay uses the default strategy.
func (b *ErrorAwareBackoff) NextDelay(attempt int) time.Duration {
	return b.Default.NextDelay(attempt)
}

// DelayFor picks the strategy matching err.
func (b *ErrorAwareBackoff) DelayFor(attempt int, err error) time.Duration {
	var apiErr *apperrors.Error
	if b.RateLimit != nil && errors.As(err, &apiErr) && apiErr.Type == apperrors.ErrorTypeRateLimit {
		return b.RateLimit.NextDelay(attempt)
	}
	return b.Default.NextDelay(attempt)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
