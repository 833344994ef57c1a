package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tb := newTokenBucket(5, time.Second, clock.Now)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// one token refills every 200ms
	clock.Advance(200 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.Advance(10 * time.Second)
	assert.Equal(t, 5, tb.Tokens(), "refill is capped at capacity")

	for tb.Allow() {
	}
	tb.Reset()
	assert.Equal(t, 5, tb.Tokens())
}

func TestTokenBucketMinimumCapacity(t *testing.T) {
	tb := NewTokenBucket(0, time.Second)
	assert.True(t, tb.Allow())
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(10, 200*time.Millisecond)
	for tb.Allow() {
	}

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitHonorsCancellation(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
	assert.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
