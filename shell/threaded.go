package shell

import (
	"errors"
	"io"
	"sync/atomic"
)

// ThreadedRelay copies remote output on a background goroutine and forwards
// local input one byte at a time on the calling goroutine.
type ThreadedRelay struct {
	Terminal Terminal
}

// Relay runs until local input ends. When the remote shell exits first
// ThreadedNotice is printed and the next keystroke ends the relay. Ending
// local input closes the channel without printing the notice.
func (r *ThreadedRelay) Relay(ch io.ReadWriter) error {
	done := make(chan error, 1)

	var localClosed atomic.Bool

	go func() {
		_, err := io.Copy(r.Terminal, ch)
		if localClosed.Load() {
			done <- nil

			return
		}

		if err == nil || isTimeout(err) {
			_, _ = io.WriteString(r.Terminal, ThreadedNotice)
			err = nil
		}

		done <- err
	}()

	buf := make([]byte, 1)

	for {
		n, err := r.Terminal.Read(buf)
		if n > 0 {
			if _, werr := ch.Write(buf[:n]); werr != nil {
				// The remote side has gone; the output goroutine is finishing.
				return <-done
			}
		}

		if errors.Is(err, io.EOF) {
			localClosed.Store(true)

			if c, ok := ch.(io.Closer); ok {
				_ = c.Close()
			}

			return <-done
		}

		if err != nil {
			return err
		}
	}
}
