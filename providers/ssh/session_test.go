package ssh

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ruffel/mbl"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

type exitStatusError int

func (e exitStatusError) Error() string   { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatusError) ExitStatus() int { return int(e) }

// fakeRemote is a scripted remote session.
type fakeRemote struct {
	stdout   string
	stderr   string
	waitErr  error
	startErr error
	hang     bool // Output and Wait block until Close

	mu      sync.Mutex
	started string
	signals []ssh.Signal
	closed  chan struct{}
	once    sync.Once
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{closed: make(chan struct{})}
}

type hangingReader struct{ closed <-chan struct{} }

func (r hangingReader) Read([]byte) (int, error) {
	<-r.closed

	return 0, io.EOF
}

func (f *fakeRemote) reader(s string) io.Reader {
	if f.hang {
		return hangingReader{closed: f.closed}
	}

	return strings.NewReader(s)
}

func (f *fakeRemote) StdinPipe() (io.WriteCloser, error) { return nopWriteCloser{io.Discard}, nil }
func (f *fakeRemote) StdoutPipe() (io.Reader, error)     { return f.reader(f.stdout), nil }
func (f *fakeRemote) StderrPipe() (io.Reader, error)     { return f.reader(f.stderr), nil }

func (f *fakeRemote) RequestPty(string, int, int, ssh.TerminalModes) error { return nil }
func (f *fakeRemote) RequestSubsystem(string) error                        { return nil }
func (f *fakeRemote) Shell() error                                         { return nil }

func (f *fakeRemote) Start(cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.started = cmd

	return f.startErr
}

func (f *fakeRemote) Wait() error {
	if f.hang {
		<-f.closed

		return io.EOF
	}

	return f.waitErr
}

func (f *fakeRemote) Signal(sig ssh.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signals = append(f.signals, sig)

	return nil
}

func (f *fakeRemote) Close() error {
	f.once.Do(func() { close(f.closed) })

	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type fakeConn struct {
	remote     *fakeRemote
	sessionErr error

	mu     sync.Mutex
	closes int
}

func (c *fakeConn) NewSession() (remoteSession, error) {
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}

	return c.remote, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++

	return nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return logrus.NewEntry(l)
}

// testOptions isolates a session from the user's ~/.ssh directory.
func testOptions(t *testing.T) []Option {
	t.Helper()

	dir := t.TempDir()

	return []Option{
		WithInsecureSkipVerify(true),
		WithSSHConfigPath(filepath.Join(dir, "config")),
		WithKnownHostsPath(filepath.Join(dir, "known_hosts")),
		WithLogger(quietLogger()),
	}
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()

	s, err := newSession(mbl.Device{Address: "10.0.0.1", Username: "root"}, append(testOptions(t), opts...)...)
	require.NoError(t, err)

	s.config.DisableAgent = true
	s.config.DefaultIdentityFiles = []string{}

	return s
}

// connectedSession returns a session already holding c.
func connectedSession(t *testing.T, c conn) *Session {
	t.Helper()

	s := newTestSession(t)
	s.client = c

	return s
}

func TestConnect_Retry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		limit      int
		failures   int
		wantDials  int
		wantSleeps int
		wantErr    bool
	}{
		{name: "first attempt", limit: 3, failures: 0, wantDials: 1, wantSleeps: 0},
		{name: "second attempt", limit: 3, failures: 1, wantDials: 2, wantSleeps: 1},
		{name: "last attempt", limit: 3, failures: 2, wantDials: 3, wantSleeps: 2},
		{name: "single attempt fails", limit: 1, failures: 1, wantDials: 1, wantSleeps: 0, wantErr: true},
		{name: "two attempts fail", limit: 2, failures: 2, wantDials: 2, wantSleeps: 1, wantErr: true},
		{name: "five attempts fail", limit: 5, failures: 5, wantDials: 5, wantSleeps: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(t, WithRetry(tt.limit, 2*time.Second))

			var (
				dials  int
				sleeps []time.Duration
			)

			s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) {
				dials++
				if dials <= tt.failures {
					return nil, errors.New("connection refused")
				}

				return &fakeConn{}, nil
			}
			s.sleep = func(_ context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)

				return nil
			}

			err := s.connect(context.Background())

			assert.Equal(t, tt.wantDials, dials)
			assert.Len(t, sleeps, tt.wantSleeps)

			for _, d := range sleeps {
				assert.Equal(t, 2*time.Second, d)
			}

			if !tt.wantErr {
				require.NoError(t, err)

				return
			}

			var connErr *mbl.ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.Equal(t, tt.limit, connErr.Attempts)
			assert.Equal(t, "10.0.0.1:22", connErr.Address)
			assert.Contains(t, err.Error(), "connection refused")
		})
	}
}

func TestConnect_SleepCanceled(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, WithRetry(3, time.Hour))
	s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) {
		return nil, errors.New("no route to host")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.connect(ctx)

	var connErr *mbl.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 1, connErr.Attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnect_NoAuthFallback(t *testing.T) {
	t.Parallel()

	authErr := errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none], no supported methods remain")

	t.Run("falls back to default keys", func(t *testing.T) {
		t.Parallel()

		s := newTestSession(t, WithRetry(1, 0))
		s.config.DefaultIdentityFiles = []string{writeTestKey(t, t.TempDir())}

		var authLens []int

		s.dial = func(_ context.Context, _ string, cfg *ssh.ClientConfig) (conn, error) {
			authLens = append(authLens, len(cfg.Auth))
			if len(cfg.Auth) == 0 {
				return nil, authErr
			}

			return &fakeConn{}, nil
		}

		require.NoError(t, s.connect(context.Background()))
		assert.Equal(t, []int{0, 1}, authLens)
	})

	t.Run("none accepted", func(t *testing.T) {
		t.Parallel()

		s := newTestSession(t, WithRetry(1, 0))

		dials := 0
		s.dial = func(_ context.Context, _ string, cfg *ssh.ClientConfig) (conn, error) {
			dials++
			assert.Empty(t, cfg.Auth)

			return &fakeConn{}, nil
		}

		require.NoError(t, s.connect(context.Background()))
		assert.Equal(t, 1, dials)
	})

	t.Run("no fallback keys", func(t *testing.T) {
		t.Parallel()

		s := newTestSession(t, WithRetry(1, 0))

		dials := 0
		s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) {
			dials++

			return nil, authErr
		}

		err := s.connect(context.Background())
		require.ErrorIs(t, err, authErr)
		assert.Equal(t, 1, dials)
	})

	t.Run("network failure is not retried with keys", func(t *testing.T) {
		t.Parallel()

		s := newTestSession(t, WithRetry(1, 0))
		s.config.DefaultIdentityFiles = []string{writeTestKey(t, t.TempDir())}

		dials := 0
		s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) {
			dials++

			return nil, errors.New("i/o timeout")
		}

		require.Error(t, s.connect(context.Background()))
		assert.Equal(t, 1, dials)
	})
}

func TestSession_CloseIdempotent(t *testing.T) {
	t.Parallel()

	c := &fakeConn{}
	s := connectedSession(t, c)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, c.closes)

	_, err := s.Run(context.Background(), mbl.NewCommand("true"))
	require.ErrorIs(t, err, mbl.ErrSessionClosed)

	local := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o600))
	require.ErrorIs(t, s.Put(context.Background(), local, "/tmp/payload"), mbl.ErrSessionClosed)
}

func TestSession_Scoped(t *testing.T) {
	t.Parallel()

	t.Run("returns fn error and closes once", func(t *testing.T) {
		t.Parallel()

		c := &fakeConn{}
		s := newTestSession(t, WithRetry(1, 0))
		s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) { return c, nil }

		fnErr := errors.New("boom")
		err := s.scoped(context.Background(), func(*Session) error { return fnErr })

		require.ErrorIs(t, err, fnErr)
		assert.Equal(t, 1, c.closes)
	})

	t.Run("closes on panic", func(t *testing.T) {
		t.Parallel()

		c := &fakeConn{}
		s := newTestSession(t, WithRetry(1, 0))
		s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) { return c, nil }

		assert.Panics(t, func() {
			_ = s.scoped(context.Background(), func(*Session) error { panic("boom") })
		})
		assert.Equal(t, 1, c.closes)
	})

	t.Run("connect failure skips fn", func(t *testing.T) {
		t.Parallel()

		s := newTestSession(t, WithRetry(1, 0))
		s.dial = func(context.Context, string, *ssh.ClientConfig) (conn, error) {
			return nil, errors.New("connection refused")
		}

		called := false
		err := s.scoped(context.Background(), func(*Session) error {
			called = true

			return nil
		})

		var connErr *mbl.ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.False(t, called)
	})
}

func TestSession_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stdout   string
		stderr   string
		waitErr  error
		opts     []mbl.RunOption
		wantCode int
		wantMsg  string // CommandError message, empty for success
	}{
		{name: "success", stdout: "hello\n", wantCode: 0},
		{name: "non-zero without check", waitErr: exitStatusError(7), stderr: "disk full", wantCode: 7},
		{
			name:     "check with stderr",
			waitErr:  exitStatusError(7),
			stderr:   "disk full",
			opts:     []mbl.RunOption{mbl.WithCheck()},
			wantCode: 7,
			wantMsg:  "disk full",
		},
		{
			name:     "check without stderr",
			waitErr:  exitStatusError(7),
			opts:     []mbl.RunOption{mbl.WithCheck()},
			wantCode: 7,
			wantMsg:  mbl.DefaultCommandErrorMessage,
		},
		{name: "check passes on zero", stdout: "ok\n", opts: []mbl.RunOption{mbl.WithCheck()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			remote := newFakeRemote()
			remote.stdout = tt.stdout
			remote.stderr = tt.stderr
			remote.waitErr = tt.waitErr

			s := connectedSession(t, &fakeConn{remote: remote})

			res, err := s.Run(context.Background(), mbl.NewCommand("df", "-h"), tt.opts...)
			require.NotNil(t, res)
			assert.Equal(t, tt.wantCode, res.ExitCode)
			assert.Equal(t, tt.stdout, string(res.Stdout))
			assert.Equal(t, tt.stderr, string(res.Stderr))
			assert.Equal(t, "df -h", remote.started)

			if tt.wantMsg == "" {
				require.NoError(t, err)

				return
			}

			var cmdErr *mbl.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, tt.wantCode, cmdErr.ExitCode)
			assert.Equal(t, tt.wantMsg, cmdErr.Error())
			assert.Equal(t, "df -h", cmdErr.Command)
		})
	}
}

func TestSession_Run_Writeout(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.stdout = "one\ntwo\nthree"
	remote.stderr = "warn\n"

	s := connectedSession(t, &fakeConn{remote: remote})

	var out bytes.Buffer

	res, err := s.Run(context.Background(), mbl.NewCommand("cat /proc/version"), mbl.WithWriteout(&out))
	require.NoError(t, err)

	// Streams interleave, but each stream keeps its own order.
	written := out.String()
	assert.Len(t, written, len("one\ntwo\nthree")+len("warn\n"))
	assert.Less(t, strings.Index(written, "one\n"), strings.Index(written, "two\n"))
	assert.Less(t, strings.Index(written, "two\n"), strings.Index(written, "three"))
	assert.Contains(t, written, "warn\n")
	assert.Equal(t, "one\ntwo\nthree", string(res.Stdout))
}

func TestSession_Run_Sudo(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	s := connectedSession(t, &fakeConn{remote: remote})

	_, err := s.Run(context.Background(), mbl.NewCommand("ls /root"), mbl.WithSudo())
	require.NoError(t, err)
	assert.Equal(t, "sudo -n -- sh -c 'ls /root'", remote.started)
}

func TestSession_Run_TransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("session cannot be opened", func(t *testing.T) {
		t.Parallel()

		s := connectedSession(t, &fakeConn{sessionErr: errors.New("channel open failed")})

		_, err := s.Run(context.Background(), mbl.NewCommand("uptime"))

		var transportErr *mbl.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "the command `uptime` failed to execute, the error was: channel open failed", err.Error())
	})

	t.Run("start fails", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.startErr = errors.New("EOF")
		s := connectedSession(t, &fakeConn{remote: remote})

		_, err := s.Run(context.Background(), mbl.NewCommand("uptime"), mbl.WithCheck())

		var transportErr *mbl.TransportError
		require.ErrorAs(t, err, &transportErr)
	})

	t.Run("connection lost", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.waitErr = &ssh.ExitMissingError{}
		s := connectedSession(t, &fakeConn{remote: remote})

		_, err := s.Run(context.Background(), mbl.NewCommand("uptime"))

		var transportErr *mbl.TransportError
		require.ErrorAs(t, err, &transportErr)
	})

	t.Run("timeout kills the remote process", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.hang = true
		s := connectedSession(t, &fakeConn{remote: remote})

		_, err := s.Run(context.Background(), mbl.NewCommand("sleep", "600"), mbl.WithTimeout(50*time.Millisecond))

		var transportErr *mbl.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		remote.mu.Lock()
		defer remote.mu.Unlock()
		assert.Contains(t, remote.signals, ssh.SIGKILL)
	})
}

func TestSession_Run_InvalidCommand(t *testing.T) {
	t.Parallel()

	s := connectedSession(t, &fakeConn{remote: newFakeRemote()})

	_, err := s.Run(context.Background(), mbl.NewCommand(" "))
	require.Error(t, err)
}

func TestConnect_AgentConnectionKeptUntilClose(t *testing.T) {
	t.Parallel()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keyring := agent.NewKeyring()
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: key}))

	s := newTestSession(t, WithRetry(3, time.Second))
	s.config.DisableAgent = false
	s.sleep = func(context.Context, time.Duration) error { return nil }

	var (
		agentDials int
		served     = make(chan struct{})
	)

	s.dialAgent = func() (net.Conn, error) {
		agentDials++

		client, server := net.Pipe()

		go func() {
			defer close(served)

			_ = agent.ServeAgent(keyring, server)
		}()

		return client, nil
	}

	authErr := errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none publickey], no supported methods remain")

	var authLens []int

	s.dial = func(_ context.Context, _ string, cfg *ssh.ClientConfig) (conn, error) {
		authLens = append(authLens, len(cfg.Auth))

		return nil, authErr
	}

	require.Error(t, s.connect(context.Background()))
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, authLens)
	assert.Equal(t, 1, agentDials, "one agent connection serves every attempt")

	select {
	case <-served:
		t.Fatal("agent connection closed before the session")
	default:
	}

	require.NoError(t, s.Close())

	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("agent connection still open after Close")
	}
}
