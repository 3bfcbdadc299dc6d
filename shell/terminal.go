package shell

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Terminal is the local side of a relay.
type Terminal interface {
	io.Reader
	io.Writer

	// MakeRaw switches the terminal to raw mode and returns a func that
	// restores the previous state.
	MakeRaw() (restore func() error, err error)
}

// StdTerminal is the process's own stdin and stdout.
type StdTerminal struct {
	in  *os.File
	out *os.File
}

var _ Terminal = (*StdTerminal)(nil)

// NewStdTerminal returns a Terminal over os.Stdin and os.Stdout.
func NewStdTerminal() *StdTerminal {
	return &StdTerminal{in: os.Stdin, out: os.Stdout}
}

func (s *StdTerminal) Read(p []byte) (int, error) {
	return s.in.Read(p)
}

func (s *StdTerminal) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// SetReadDeadline forwards to stdin. It fails when stdin is a blocking file,
// which is the usual case for a terminal.
func (s *StdTerminal) SetReadDeadline(t time.Time) error {
	return s.in.SetReadDeadline(t)
}

// MakeRaw puts stdin in raw mode. It does nothing when stdin is not a
// terminal, e.g. when input is piped.
func (s *StdTerminal) MakeRaw() (func() error, error) {
	fd := int(s.in.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	return func() error { return term.Restore(fd, state) }, nil
}
