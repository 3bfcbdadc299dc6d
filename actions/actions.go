// Package actions implements the operations the mbl command line offers on a
// connected device. Each action takes an open mbl.Session and writes its
// user-facing output to the given writer.
package actions

import (
	"context"
	"fmt"
	"io"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/shell"
)

// Run executes cmd on the device, streaming its output to out. A non-zero
// exit status is returned as a *mbl.CommandError. opts may add sudo or a
// timeout; checking and streaming to out always apply.
func Run(ctx context.Context, s mbl.Session, cmd *mbl.Command, out io.Writer, opts ...mbl.RunOption) (*mbl.Result, error) {
	opts = append(opts, mbl.WithCheck(), mbl.WithWriteout(out))

	return mbl.NewExecutor(s).Run(ctx, cmd, opts...)
}

// Put copies localPath to remotePath on the device named host.
func Put(ctx context.Context, s mbl.Session, host, localPath, remotePath string, out io.Writer, opts ...mbl.FileOption) error {
	_, _ = fmt.Fprintf(out, "Putting %s on device: %s\n\n", localPath, host)

	opts = append([]mbl.FileOption{mbl.WithProgress(mbl.NewProgressPrinter(out))}, opts...)
	if err := s.Put(ctx, localPath, remotePath, opts...); err != nil {
		return err
	}

	_, _ = fmt.Fprint(out, "\n\nCompleted without error.\n")

	return nil
}

// Get copies remotePath from the device named host to localPath.
func Get(ctx context.Context, s mbl.Session, host, remotePath, localPath string, out io.Writer, opts ...mbl.FileOption) error {
	_, _ = fmt.Fprintf(out, "Getting %s from device: %s\n\n", remotePath, host)

	opts = append([]mbl.FileOption{mbl.WithProgress(mbl.NewProgressPrinter(out))}, opts...)
	if err := s.Get(ctx, remotePath, localPath, opts...); err != nil {
		return err
	}

	_, _ = fmt.Fprint(out, "\n\nCompleted without error.\n")

	return nil
}

// Shell opens an interactive shell on the device and relays it until either
// side closes.
func Shell(ctx context.Context, s mbl.Session, relay shell.Relay) error {
	ch, err := s.Shell(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = ch.Close() }()

	return relay.Relay(ch)
}
