package mbl

import (
	"errors"
	"fmt"
)

// ErrSessionClosed indicates that an operation was attempted on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// DefaultCommandErrorMessage is used by CommandError when the remote command
// wrote nothing to stderr.
const DefaultCommandErrorMessage = "remote command returned a non-zero exit code"

// ConnectionError is returned once every connection attempt to a device has failed.
// The session is unusable afterwards.
type ConnectionError struct {
	Address  string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s after %d attempt(s): %v", e.Address, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError represents a command that could not be submitted to the device
// at all (session could not be opened, connection lost, timeout), as opposed to
// one that ran and failed.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("the command `%s` failed to execute, the error was: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CommandError represents a command that ran to completion with a non-zero exit code.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   []byte
	Message  string
}

// NewCommandError builds a CommandError whose message is the captured stderr,
// or DefaultCommandErrorMessage when nothing was captured.
func NewCommandError(command string, exitCode int, stderr []byte) *CommandError {
	msg := DefaultCommandErrorMessage
	if len(stderr) > 0 {
		msg = string(stderr)
	}

	return &CommandError{
		Command:  command,
		ExitCode: exitCode,
		Stderr:   stderr,
		Message:  msg,
	}
}

func (e *CommandError) Error() string {
	return e.Message
}

// ValidationError reports a file transfer whose integrity check failed.
// No transfer verifies checksums yet.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transfer validation failed for %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
