//go:build linux

package control

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// enterKeyMode puts the terminal in cbreak mode: no line buffering, no echo,
// signals still generated.
func enterKeyMode(fd int) (func() error, error) {
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	cbreak := *old
	cbreak.Lflag &^= unix.ICANON | unix.ECHO
	cbreak.Cc[unix.VMIN] = 1
	cbreak.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &cbreak); err != nil {
		return nil, err
	}

	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, old)
	}, nil
}

// pollReader waits at most 100ms for input so the listener loop can observe
// Close between keystrokes.
type pollReader struct {
	fd int
}

func keyReader(f *os.File) io.Reader {
	return &pollReader{fd: int(f.Fd())}
}

func (r *pollReader) Read(b []byte) (int, error) {
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 100)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	n, err = unix.Read(r.fd, b)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
