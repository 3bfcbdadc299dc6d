package mbl

import (
	"context"
)

// Executor runs commands on a Session for callers that only care whether a
// command succeeded, or that want its output captured.
type Executor struct {
	session Session
}

// NewExecutor creates a new Executor with the given session.
func NewExecutor(session Session) *Executor {
	return &Executor{session: session}
}

// Run executes a command and returns its captured result.
func (e *Executor) Run(ctx context.Context, cmd *Command, opts ...RunOption) (*Result, error) {
	return e.session.Run(ctx, cmd, opts...)
}

// Check runs a command and returns a *CommandError if it exits non-zero.
func (e *Executor) Check(ctx context.Context, cmd *Command, opts ...RunOption) error {
	_, err := e.session.Run(ctx, cmd, append(opts, WithCheck())...)

	return err
}

// RunBuffered runs a command with output capture only, discarding any writer
// set with WithWriteout.
func (e *Executor) RunBuffered(ctx context.Context, cmd *Command, opts ...RunOption) (*Result, error) {
	return e.session.Run(ctx, cmd, append(opts, WithWriteout(nil))...)
}

// Put copies a local file or directory to the device.
// It delegates directly to the underlying Session.
func (e *Executor) Put(ctx context.Context, localPath, remotePath string, opts ...FileOption) error {
	return e.session.Put(ctx, localPath, remotePath, opts...)
}

// Get copies a remote file or directory from the device.
// It delegates directly to the underlying Session.
func (e *Executor) Get(ctx context.Context, remotePath, localPath string, opts ...FileOption) error {
	return e.session.Get(ctx, remotePath, localPath, opts...)
}

// ApplySudo returns cmd wrapped in "sudo -n" according to cfg. The command is
// returned unchanged when cfg is nil.
func ApplySudo(cmd *Command, cfg *SudoConfig) *Command {
	if cfg == nil {
		return cmd
	}

	args := []string{"-n"}

	if cfg.User != "" {
		args = append(args, "-u", cfg.User)
	}

	if cfg.PreserveEnv {
		args = append(args, "-E")
	}

	args = append(args, cfg.CustomFlags...)
	args = append(args, "--")

	newCmd := *cmd
	if len(cmd.Args) == 0 {
		// A raw script needs a shell to interpret it under sudo.
		newCmd.Args = append(args, "sh", "-c", cmd.Cmd)
	} else {
		newCmd.Args = append(append(args, cmd.Cmd), cmd.Args...)
	}

	newCmd.Cmd = "sudo"

	return &newCmd
}
