// Package shell relays an interactive remote shell to the local terminal.
//
// Two strategies exist. RawRelay puts the terminal in raw mode and multiplexes
// both directions in one select loop; it is used on POSIX hosts. ThreadedRelay
// copies remote output on a background goroutine while the caller's goroutine
// forwards keystrokes; it is used on Windows where console input cannot be
// polled alongside the network stream.
package shell

import (
	"errors"
	"io"
	"net"
	"os"
	"runtime"
)

const (
	// RawNotice is printed by RawRelay when the remote shell exits.
	RawNotice = "\r\nShell terminated.\r\n"
	// ThreadedNotice is printed by ThreadedRelay when the remote shell exits.
	ThreadedNotice = "\r\nShell terminated. Press Enter to quit.\r\n"

	remoteReadSize = 1024
)

// Relay moves bytes between a remote shell channel and the local terminal
// until one side ends.
type Relay interface {
	Relay(ch io.ReadWriter) error
}

// New returns the relay strategy suited to the running operating system.
func New(t Terminal) Relay {
	return newForOS(runtime.GOOS, t)
}

func newForOS(goos string, t Terminal) Relay {
	if goos == "windows" {
		return &ThreadedRelay{Terminal: t}
	}

	return &RawRelay{Terminal: t}
}

// isTimeout reports whether err is a read deadline expiring rather than the
// stream failing.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
