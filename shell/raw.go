package shell

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// RawRelay multiplexes remote output and local keystrokes in a single loop
// with the local terminal in raw mode.
//
// Local input is read on a separate goroutine. If the Terminal has a
// SetReadDeadline method that works, Relay interrupts that read before
// returning. Otherwise the goroutine stays blocked on the terminal after
// Relay returns and consumes the next byte of input.
type RawRelay struct {
	Terminal Terminal
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type chunk struct {
	data []byte
	err  error
}

// pump reads r into out until a non-timeout error, then sends that error and stops.
func pump(r io.Reader, size int, out chan<- chunk, done <-chan struct{}) {
	for {
		buf := make([]byte, size)

		n, err := r.Read(buf)
		if err != nil && isTimeout(err) {
			if n == 0 {
				select {
				case <-done:
					return
				default:
				}

				continue
			}

			err = nil
		}

		select {
		case out <- chunk{data: buf[:n], err: err}:
		case <-done:
			return
		}

		if err != nil {
			return
		}
	}
}

// Relay runs until the remote shell closes (printing RawNotice) or local
// input ends. The terminal mode is restored before it returns.
func (r *RawRelay) Relay(ch io.ReadWriter) (err error) {
	restore, err := r.Terminal.MakeRaw()
	if err != nil {
		return fmt.Errorf("failed to set raw terminal mode: %w", err)
	}

	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			err = fmt.Errorf("failed to restore terminal: %w", rerr)
		}
	}()

	done := make(chan struct{})
	localExited := make(chan struct{})

	defer func() {
		close(done)
		r.stopLocal(localExited)
	}()

	remote := make(chan chunk)
	local := make(chan chunk)

	go pump(ch, remoteReadSize, remote, done)

	go func() {
		defer close(localExited)
		pump(r.Terminal, 1, local, done)
	}()

	for {
		select {
		case c := <-remote:
			if len(c.data) > 0 {
				if _, err := r.Terminal.Write(c.data); err != nil {
					return err
				}
			}

			if errors.Is(c.err, io.EOF) {
				_, _ = io.WriteString(r.Terminal, RawNotice)

				return nil
			}

			if c.err != nil {
				return c.err
			}
		case c := <-local:
			if len(c.data) > 0 {
				if _, err := ch.Write(c.data); err != nil {
					return err
				}
			}

			if errors.Is(c.err, io.EOF) {
				return nil
			}

			if c.err != nil {
				return c.err
			}
		}
	}
}

// stopLocal interrupts a pending local read and waits for the local pump to
// exit, when the terminal supports read deadlines.
func (r *RawRelay) stopLocal(exited <-chan struct{}) {
	d, ok := r.Terminal.(readDeadliner)
	if !ok || d.SetReadDeadline(time.Now()) != nil {
		return
	}

	<-exited

	_ = d.SetReadDeadline(time.Time{})
}
