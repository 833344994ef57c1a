//go:build !linux

package control

import (
	"io"
	"os"

	"golang.org/x/term"
)

// enterKeyMode falls back to raw mode. Ctrl-C then arrives as a byte and is
// translated to Terminate by the listener.
func enterKeyMode(fd int) (func() error, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error {
		return term.Restore(fd, state)
	}, nil
}

func keyReader(f *os.File) io.Reader {
	return f
}
