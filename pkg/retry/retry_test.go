package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediafetch/pkg/config"
	errs "mediafetch/pkg/errors"
	"mediafetch/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt yet"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	var retried []int
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		OnRetry:     func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) },
	}

	err := Do(context.Background(), op, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	persistent := errors.New("persistent error")
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewTestLogger(),
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return persistent
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, persistent)
	assert.Equal(t, 3, attempts)
	assert.True(t, cfg.Logger.(*logger.TestLogger).HasMessage("max retry attempts exceeded"))
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := errs.FromStatus(401, "authentication required")

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return authError
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}})

	assert.Equal(t, authError, err)
	assert.Equal(t, 1, attempts, "auth errors must not be retried")
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errs.FromStatus(503, "unavailable")
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Hour}})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errs.FromStatus(500, "boom")
		}
		return "page", nil
	}, &Config{MaxAttempts: 2, Backoff: &ConstantBackoff{Delay: time.Millisecond}})

	require.NoError(t, err)
	assert.Equal(t, "page", got)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limit", errs.FromStatus(429, "slow down"), true},
		{"server", errs.FromStatus(502, "bad gateway"), true},
		{"not found", errs.FromStatus(404, "gone"), false},
		{"network", &errs.Error{Type: errs.ErrorTypeNetwork}, true},
		{"plain", errors.New("eof"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestFromConfigRateLimitUsesMaxDelay(t *testing.T) {
	cfg := FromConfig(config.RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}, nil)

	assert.Equal(t, 4, cfg.MaxAttempts)
	eb, ok := cfg.Backoff.(*ErrorAwareBackoff)
	require.True(t, ok)

	assert.Equal(t, 2*time.Second, eb.DelayFor(1, errs.FromStatus(429, "")))
	assert.LessOrEqual(t, eb.DelayFor(1, errs.FromStatus(500, "")), 11*time.Millisecond)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
