package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ruffel/mbl"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

var _ mbl.Session = (*Session)(nil)

// conn is the part of *ssh.Client a Session needs.
type conn interface {
	NewSession() (remoteSession, error)
	Close() error
}

// remoteSession is the part of *ssh.Session a Session needs.
type remoteSession interface {
	StdinPipe() (io.WriteCloser, error)
	StdoutPipe() (io.Reader, error)
	StderrPipe() (io.Reader, error)
	RequestPty(term string, h, w int, modes ssh.TerminalModes) error
	RequestSubsystem(subsystem string) error
	Shell() error
	Start(cmd string) error
	Wait() error
	Signal(sig ssh.Signal) error
	Close() error
}

type client struct {
	*ssh.Client
}

func (c client) NewSession() (remoteSession, error) {
	s, err := c.Client.NewSession()
	if err != nil {
		return nil, err
	}

	return s, nil
}

type dialFunc func(ctx context.Context, addr string, cfg *ssh.ClientConfig) (conn, error)

// dialTCP connects and runs the SSH handshake, bounding both by cfg.Timeout.
func dialTCP(ctx context.Context, addr string, cfg *ssh.ClientConfig) (conn, error) {
	d := net.Dialer{Timeout: cfg.Timeout}

	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		_ = nc.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	c, chans, reqs, err := ssh.NewClientConn(nc, addr, cfg)
	if err != nil {
		_ = nc.Close()

		return nil, err
	}

	_ = nc.SetDeadline(time.Time{})

	return client{ssh.NewClient(c, chans, reqs)}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Session is an authenticated SSH connection to one device.
// It is meant to be used by one flow at a time.
type Session struct {
	device mbl.Device
	config Config
	log    *logrus.Entry

	dial      dialFunc
	dialAgent func() (net.Conn, error)
	sleep     func(ctx context.Context, d time.Duration) error

	client    conn
	agent     agent.ExtendedAgent
	agentConn io.Closer
	mu        sync.Mutex
	closed    bool
}

func newSession(device mbl.Device, opts ...Option) (*Session, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}

	c := NewConfig(device)
	for _, o := range opts {
		o(&c)
	}

	c = c.WithDefaults()

	if c.PrivateKeyPath == "" {
		hostname := device.Hostname
		if hostname == "" {
			hostname = c.Host
		}

		identityFile, err := LookupIdentityFile(c.SSHConfigPath, hostname)
		if err != nil {
			return nil, err
		}

		c.PrivateKeyPath = identityFile
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		device: device,
		config: c,
		log:    c.Logger.WithField("device", c.Address()),
		dial:      dialTCP,
		dialAgent: dialAgent,
		sleep:     sleepContext,
	}, nil
}

// Connect establishes a new SSH connection to device, retrying failed attempts.
// If every attempt fails the error is a *mbl.ConnectionError.
func Connect(ctx context.Context, device mbl.Device, opts ...Option) (*Session, error) {
	s, err := newSession(device, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// WithSession connects to device, runs fn and closes the connection again,
// whether fn succeeds, fails or panics. It returns fn's error.
func WithSession(ctx context.Context, device mbl.Device, fn func(*Session) error, opts ...Option) error {
	s, err := newSession(device, opts...)
	if err != nil {
		return err
	}

	return s.scoped(ctx, fn)
}

func (s *Session) scoped(ctx context.Context, fn func(*Session) error) error {
	if err := s.connect(ctx); err != nil {
		return err
	}

	defer func() { _ = s.Close() }()

	return fn(s)
}

func (s *Session) connect(ctx context.Context) error {
	addr := s.config.Address()

	clientConfig, err := s.config.ToClientConfig()
	if err != nil {
		return err
	}

	var lastErr error

	for attempt := 1; attempt <= s.config.RetryLimit; attempt++ {
		if attempt > 1 {
			s.log.WithError(lastErr).Warnf("connection attempt %d/%d failed, retrying in %s",
				attempt-1, s.config.RetryLimit, s.config.RetryInterval)

			if err := s.sleep(ctx, s.config.RetryInterval); err != nil {
				return &mbl.ConnectionError{Address: addr, Attempts: attempt - 1, Err: err}
			}
		}

		s.log.Debugf("connecting as %s (attempt %d/%d)", s.config.User, attempt, s.config.RetryLimit)

		c, err := s.dialOnce(ctx, addr, clientConfig)
		if err == nil {
			s.mu.Lock()
			s.client = c
			s.mu.Unlock()

			s.log.Debug("connected")

			return nil
		}

		lastErr = err
	}

	return &mbl.ConnectionError{Address: addr, Attempts: s.config.RetryLimit, Err: lastErr}
}

// dialOnce makes one connection attempt. Without credentials it first offers
// only the "none" method and, if the device rejects that, falls back to agent
// and default identity keys.
func (s *Session) dialOnce(ctx context.Context, addr string, cfg *ssh.ClientConfig) (conn, error) {
	if len(cfg.Auth) > 0 {
		return s.dial(ctx, addr, cfg)
	}

	c, err := s.dial(ctx, addr, cfg)
	if err == nil || !isAuthFailure(err) {
		return c, err
	}

	fallback := s.fallbackAuth()
	if len(fallback) == 0 {
		return nil, err
	}

	s.log.Debug("device rejected unauthenticated login, trying agent and default keys")

	withKeys := *cfg
	withKeys.Auth = fallback

	return s.dial(ctx, addr, &withKeys)
}

// Device returns the device this session talks to.
func (s *Session) Device() mbl.Device {
	return s.device
}

// Close closes the underlying SSH connection and the agent connection, if
// one was opened. Calling it more than once is safe.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	var errs []error

	if s.client != nil {
		errs = append(errs, s.client.Close())
	}

	if s.agentConn != nil {
		errs = append(errs, s.agentConn.Close())
	}

	return errors.Join(errs...)
}

func (s *Session) conn() (conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, mbl.ErrSessionClosed
	}

	if s.client == nil {
		return nil, fmt.Errorf("ssh session to %s is not connected", s.config.Address())
	}

	return s.client, nil
}
