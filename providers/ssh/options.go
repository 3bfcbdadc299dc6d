package ssh

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option defines a functional option for the SSH provider.
type Option func(*Config)

// WithConfig returns an Option that sets multiple fields from a Config struct.
// Useful for tests or bulk configuration.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// WithRetry sets how many connection attempts are made and the pause between them.
// attempts below 1 are treated as 1.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(c *Config) {
		if attempts < 1 {
			attempts = 1
		}

		c.RetryLimit = attempts
		c.RetryInterval = interval
	}
}

// WithKeyPath sets the path to the private key file, bypassing ~/.ssh/config.
func WithKeyPath(path string) Option {
	return func(c *Config) {
		c.PrivateKeyPath = path
	}
}

// WithSSHConfigPath sets the SSH client config consulted for IdentityFile.
func WithSSHConfigPath(path string) Option {
	return func(c *Config) {
		c.SSHConfigPath = path
	}
}

// WithKnownHostsPath sets the known_hosts file used to persist host keys.
func WithKnownHostsPath(path string) Option {
	return func(c *Config) {
		c.KnownHostsPath = path
	}
}

// WithInsecureSkipVerify enables/disables host key checking.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// WithTimeout sets the connect and handshake timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithCommandTimeout sets the default remote command timeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CommandTimeout = d
	}
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
