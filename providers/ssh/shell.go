package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ruffel/mbl"
	"golang.org/x/term"
)

const (
	defaultTermWidth  = 80
	defaultTermHeight = 24
)

// Shell starts an interactive login shell on a pty and returns its channel.
// Output from the shell (stderr included, the pty merges them) is read from
// the channel, and keystrokes are written to it. The channel is closed when
// ctx is done.
func (s *Session) Shell(ctx context.Context) (mbl.Channel, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}

	session, err := c.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open shell session: %w", err)
	}

	w, h := terminalSize()

	if err := session.RequestPty("xterm", h, w, buildTerminalModes()); err != nil {
		_ = session.Close()

		return nil, fmt.Errorf("request for pty failed: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()

		return nil, fmt.Errorf("failed to open shell stdin: %w", err)
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()

		return nil, fmt.Errorf("failed to open shell stdout: %w", err)
	}

	if err := session.Shell(); err != nil {
		_ = session.Close()

		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s.log.Debugf("shell started (%dx%d)", w, h)

	ch := &shellChannel{Reader: stdout, Writer: stdin, session: session}
	context.AfterFunc(ctx, func() { _ = ch.Close() })

	return ch, nil
}

func terminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultTermWidth, defaultTermHeight
	}

	return w, h
}

type shellChannel struct {
	io.Reader
	io.Writer

	session remoteSession
	once    sync.Once
	err     error
}

// Close ends the remote shell. Calling it more than once is safe.
func (c *shellChannel) Close() error {
	c.once.Do(func() {
		c.err = c.session.Close()
	})

	return c.err
}
