package control

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"mediafetch/pkg/logger"
)

// ErrNotTerminal is returned when keyboard control is requested on a
// non-interactive input.
var ErrNotTerminal = errors.New("input is not a terminal")

const ctrlC = 0x03

// SequenceMatcher detects a typed key sequence in a stream of bytes.
type SequenceMatcher struct {
	seq string
	buf []byte
	max int
}

// NewSequenceMatcher matches seq; only the last few bytes typed are kept.
func NewSequenceMatcher(seq string) *SequenceMatcher {
	max := len(seq)
	if max < 10 {
		max = 10
	}
	return &SequenceMatcher{seq: seq, max: max}
}

// Feed appends b and reports whether the sequence was just completed.
// A match clears the buffer so the same keystrokes never match twice.
func (m *SequenceMatcher) Feed(b byte) bool {
	if m.seq == "" {
		return false
	}
	m.buf = append(m.buf, b)
	if strings.HasSuffix(string(m.buf), m.seq) {
		m.buf = m.buf[:0]
		return true
	}
	if len(m.buf) > m.max {
		m.buf = append(m.buf[:0], m.buf[len(m.buf)-m.max:]...)
	}
	return false
}

// KeyListener watches typed input for the skip sequence.
type KeyListener struct {
	in      io.Reader
	matcher *SequenceMatcher
	events  chan Event
	done    chan struct{}
	once    sync.Once
	restore func() error
	logger  logger.Logger
}

// NewKeyListener reads keystrokes from r. The reader is expected to return
// periodically (with or without data) so Close can stop the loop promptly.
func NewKeyListener(r io.Reader, sequence string, log logger.Logger) *KeyListener {
	l := &KeyListener{
		in:      r,
		matcher: NewSequenceMatcher(sequence),
		events:  make(chan Event, 4),
		done:    make(chan struct{}),
		logger:  logger.OrDefault(log).WithField("component", "keyboard"),
	}
	go l.loop()
	return l
}

// NewTerminalKeyListener switches f into unbuffered, no-echo input and
// listens for sequence. The terminal mode is restored by Close.
func NewTerminalKeyListener(f *os.File, sequence string, log logger.Logger) (*KeyListener, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	restore, err := enterKeyMode(fd)
	if err != nil {
		return nil, err
	}
	l := NewKeyListener(keyReader(f), sequence, log)
	l.restore = restore
	return l, nil
}

func (l *KeyListener) loop() {
	defer close(l.events)
	buf := make([]byte, 16)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		n, err := l.in.Read(buf)
		for _, b := range buf[:n] {
			if b == ctrlC {
				l.emit(Terminate)
				continue
			}
			if l.matcher.Feed(b) {
				l.logger.Info("Skip requested from keyboard")
				l.emit(Cancel)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.logger.WithError(err).Warn("Keyboard listener stopped")
			}
			return
		}
	}
}

func (l *KeyListener) emit(ev Event) {
	select {
	case l.events <- ev:
	case <-l.done:
	}
}

func (l *KeyListener) Events() <-chan Event { return l.events }

// Close stops the listener and restores the terminal mode.
func (l *KeyListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.restore != nil {
			err = l.restore()
		}
	})
	return err
}
