// Package mbl manages embedded devices over SSH.
//
// # Core Interfaces
//
// - Session: one authenticated connection to a Device (see providers/ssh).
// - Channel: the byte stream of an interactive remote shell.
//
// # Output
//
// Remote output is always captured into the returned Result. Pass
// WithWriteout to also stream it line by line while the command runs, and
// WithCheck to turn a non-zero exit code into a *CommandError.
//
// For the common "run it and tell me if it failed" cases, use the Executor wrapper.
package mbl

import (
	"context"
	"io"
)

// Session is a live connection to a single device.
type Session interface {
	io.Closer

	// Run executes a command on the device and waits for it to finish.
	// Transport failures are reported as *TransportError. With WithCheck a
	// non-zero exit code is reported as *CommandError.
	Run(ctx context.Context, cmd *Command, opts ...RunOption) (*Result, error)

	// Put copies a local file (or directory, with WithRecursive) to the device.
	Put(ctx context.Context, localPath, remotePath string, opts ...FileOption) error

	// Get copies a remote file (or directory, with WithRecursive) from the device.
	Get(ctx context.Context, remotePath, localPath string, opts ...FileOption) error

	// Shell starts an interactive shell on a remote pseudo-terminal.
	// The caller owns the returned Channel and must Close it.
	Shell(ctx context.Context) (Channel, error)
}

// Channel is a bidirectional byte stream to a remote shell.
// Reads return io.EOF once the remote side has closed.
type Channel interface {
	io.ReadWriteCloser
}
