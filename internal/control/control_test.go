package control

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediafetch/pkg/logger"
)

func TestFlag(t *testing.T) {
	var f Flag
	assert.False(t, f.IsSet())
	f.Raise()
	assert.True(t, f.IsSet())
	f.Clear()
	assert.False(t, f.IsSet())
	f.Raise()
	f.Reset()
	assert.False(t, f.IsSet())
}

func TestSequenceMatcher(t *testing.T) {
	m := NewSequenceMatcher("ss")

	feed := func(s string) int {
		hits := 0
		for i := 0; i < len(s); i++ {
			if m.Feed(s[i]) {
				hits++
			}
		}
		return hits
	}

	assert.Equal(t, 0, feed("abcs"))
	assert.Equal(t, 1, feed("s"))
	// buffer cleared on match: a third 's' does not re-trigger
	assert.Equal(t, 0, feed("s"))
	assert.Equal(t, 1, feed("s"))
	assert.Equal(t, 2, feed("ssss"))
	assert.Equal(t, 0, feed("sxsx"))

	// long noise is trimmed without losing a trailing match
	assert.Equal(t, 1, feed("xxxxxxxxxxxxxxxxxxxxxxxxss"))

	empty := NewSequenceMatcher("")
	assert.False(t, empty.Feed('s'))
}

func TestDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runCtx, terminate := context.WithCancel(context.Background())
	defer terminate()

	events := make(chan Event, 2)
	var flag Flag
	var mu sync.Mutex
	var seen []Event

	done := make(chan struct{})
	go func() {
		Dispatch(ctx, events, &flag, terminate, func(ev Event) {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
		})
		close(done)
	}()

	events <- Cancel
	require.Eventually(t, flag.IsSet, time.Second, 5*time.Millisecond)
	assert.NoError(t, runCtx.Err())

	events <- Terminate
	require.Eventually(t, func() bool { return runCtx.Err() != nil }, time.Second, 5*time.Millisecond)

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch did not return after events closed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Event{Cancel, Terminate}, seen)
}

func TestMerge(t *testing.T) {
	a := NewChan(1)
	b := NewChan(1)
	merged := Merge(context.Background(), a, nil, b)

	assert.True(t, a.Send(Cancel))
	assert.True(t, b.Send(Terminate))

	got := map[Event]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-merged:
			got[ev] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for merged event")
		}
	}
	assert.True(t, got[Cancel])
	assert.True(t, got[Terminate])

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	assert.False(t, a.Send(Cancel), "send after close must not panic")

	select {
	case _, ok := <-merged:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("merged channel not closed")
	}
}

func TestMergeStopsWithContext(t *testing.T) {
	a := NewChan(4)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	merged := Merge(ctx, a)

	// fill the output buffer so further forwards would block
	require.True(t, a.Send(Terminate))
	require.Eventually(t, func() bool { return len(merged) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, a.Send(Terminate))

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-merged:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("merged channel still open after the context ended")
		}
	}
}

func TestKeyListener(t *testing.T) {
	pr, pw := io.Pipe()
	l := NewKeyListener(pr, "ss", logger.NewNopLogger())

	go func() {
		pw.Write([]byte("hello s"))
		pw.Write([]byte("s"))
		pw.Write([]byte{ctrlC})
		pw.Close()
	}()

	var got []Event
	for ev := range l.Events() {
		got = append(got, ev)
	}
	assert.Equal(t, []Event{Cancel, Terminate}, got)
	assert.NoError(t, l.Close())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "cancel", Cancel.String())
	assert.Equal(t, "terminate", Terminate.String())
	assert.Equal(t, "unknown", Event(9).String())
}
