// Package control carries user and OS control input to a running fetch.
//
// Listeners turn raw input (typed key sequences, OS signals, TUI keys) into
// Events. Dispatch consumes them: Cancel raises the shared skip Flag polled by
// the transfer in flight, Terminate cancels the run context.
package control

import (
	"context"
	"sync"
	"sync/atomic"
)

// Event is a control request.
type Event int

const (
	// Cancel skips the transfer in flight.
	Cancel Event = iota
	// Terminate stops the whole run.
	Terminate
)

func (e Event) String() string {
	switch e {
	case Cancel:
		return "cancel"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Flag is the skip request shared between the control dispatcher and the
// active transfer.
type Flag struct {
	raised atomic.Bool
}

// Raise requests cancellation of the current transfer.
func (f *Flag) Raise() { f.raised.Store(true) }

// IsSet reports whether cancellation was requested.
func (f *Flag) IsSet() bool { return f.raised.Load() }

// Clear lowers the flag after the request has been honored.
func (f *Flag) Clear() { f.raised.Store(false) }

// Reset lowers the flag before a new transfer starts. It is Clear under a
// name that reads better at call sites.
func (f *Flag) Reset() { f.Clear() }

// Listener produces control events until closed.
type Listener interface {
	Events() <-chan Event
	Close() error
}

// Merge fans several listeners into one channel. The result is closed once
// every listener's channel is closed or ctx is done.
func Merge(ctx context.Context, listeners ...Listener) <-chan Event {
	out := make(chan Event, len(listeners))
	var wg sync.WaitGroup
	for _, l := range listeners {
		if l == nil {
			continue
		}
		wg.Add(1)
		go func(ch <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(l.Events())
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Dispatch applies events until ctx is done or events is closed. Cancel
// raises flag, Terminate calls terminate. onEvent, when non-nil, is invoked
// after each event is applied.
func Dispatch(ctx context.Context, events <-chan Event, flag *Flag, terminate context.CancelFunc, onEvent func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev {
			case Cancel:
				flag.Raise()
			case Terminate:
				if terminate != nil {
					terminate()
				}
			}
			if onEvent != nil {
				onEvent(ev)
			}
		}
	}
}

// Chan is a Listener fed programmatically, used by the TUI and tests.
type Chan struct {
	ch   chan Event
	once sync.Once
}

// NewChan returns a Listener whose events are supplied through Send.
func NewChan(buffer int) *Chan {
	return &Chan{ch: make(chan Event, buffer)}
}

// Send delivers ev without blocking; it reports false if the buffer is full
// or the listener is closed.
func (c *Chan) Send(ev Event) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c.ch <- ev:
		return true
	default:
		return false
	}
}

func (c *Chan) Events() <-chan Event { return c.ch }

func (c *Chan) Close() error {
	c.once.Do(func() { close(c.ch) })
	return nil
}
