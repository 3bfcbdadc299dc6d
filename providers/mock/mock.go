package mock

import (
	"context"
	"io"

	"github.com/ruffel/mbl"
	"github.com/stretchr/testify/mock"
)

// Session implements a mock mbl.Session using testify/mock.
//
// Run is recorded as ("Run", ctx, cmd, mbl.RunConfig) and transfers as
// ("Put"/"Get", ctx, src, dst, mbl.FileConfig), so expectations can match on
// the resolved options rather than on option closures.
type Session struct {
	mock.Mock
}

var _ mbl.Session = (*Session)(nil)

// New creates a new mock session.
func New() *Session {
	return &Session{}
}

// Run mocks running a command to completion.
func (m *Session) Run(ctx context.Context, cmd *mbl.Command, opts ...mbl.RunOption) (*mbl.Result, error) {
	args := m.Called(ctx, cmd, mbl.NewRunConfig(opts...))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*mbl.Result), args.Error(1)
}

// Put mocks copying a file to the device.
func (m *Session) Put(ctx context.Context, localPath, remotePath string, opts ...mbl.FileOption) error {
	args := m.Called(ctx, localPath, remotePath, mbl.NewFileConfig(opts...))

	return args.Error(0)
}

// Get mocks copying a file from the device.
func (m *Session) Get(ctx context.Context, remotePath, localPath string, opts ...mbl.FileOption) error {
	args := m.Called(ctx, remotePath, localPath, mbl.NewFileConfig(opts...))

	return args.Error(0)
}

// Shell mocks opening an interactive shell.
func (m *Session) Shell(ctx context.Context) (mbl.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(mbl.Channel), args.Error(1)
}

// Close mocks closing the session.
func (m *Session) Close() error {
	args := m.Called()

	return args.Error(0)
}

// Channel implements a mock mbl.Channel using testify/mock.
type Channel struct {
	mock.Mock
}

var _ mbl.Channel = (*Channel)(nil)

// Read mocks reading remote shell output.
func (m *Channel) Read(p []byte) (int, error) {
	args := m.Called(p)

	return args.Int(0), args.Error(1)
}

// Write mocks sending keystrokes to the remote shell.
func (m *Channel) Write(p []byte) (int, error) {
	args := m.Called(p)

	return args.Int(0), args.Error(1)
}

// Close mocks closing the shell.
func (m *Channel) Close() error {
	args := m.Called()

	return args.Error(0)
}

// WriteOutput is a helper to simulate remote output for a mocked Run: the
// content is written to the writer passed with mbl.WithWriteout, if any.
// Usage: session.On("Run", ...).Run(WriteOutput("output\n")).Return(result, nil).
func WriteOutput(content string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		cfg, ok := args.Get(2).(mbl.RunConfig)
		if ok && cfg.Writeout != nil {
			_, _ = io.WriteString(cfg.Writeout, content)
		}
	}
}
