package control

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalListener turns SIGINT and SIGTERM into Terminate events.
type SignalListener struct {
	sigs   chan os.Signal
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewSignalListener starts listening for termination signals.
func NewSignalListener() *SignalListener {
	l := &SignalListener{
		sigs:   make(chan os.Signal, 2),
		events: make(chan Event, 2),
		done:   make(chan struct{}),
	}
	signal.Notify(l.sigs, os.Interrupt, syscall.SIGTERM)
	go l.loop()
	return l
}

func (l *SignalListener) loop() {
	defer close(l.events)
	for {
		select {
		case <-l.done:
			return
		case <-l.sigs:
			select {
			case l.events <- Terminate:
			default:
			}
		}
	}
}

func (l *SignalListener) Events() <-chan Event { return l.events }

// Close stops signal delivery and restores default handling.
func (l *SignalListener) Close() error {
	l.once.Do(func() {
		signal.Stop(l.sigs)
		close(l.done)
	})
	return nil
}
