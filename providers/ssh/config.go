package ssh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/ruffel/mbl"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

const (
	// DefaultRetryLimit is the number of connection attempts made before giving up.
	DefaultRetryLimit = 3
	// DefaultRetryInterval is the pause between two connection attempts.
	DefaultRetryInterval = 5 * time.Second
	// DefaultCommandTimeout bounds every remote command.
	DefaultCommandTimeout = 300 * time.Second
	// DefaultTimeout bounds TCP connect plus the SSH handshake. Embedded
	// devices are often slow to present their protocol banner.
	DefaultTimeout = 60 * time.Second
)

// Config holds all parameters required to establish an SSH connection.
type Config struct {
	// Connection details
	Host string // Address to dial
	Port int    // Port number (default 22)
	User string // Username to authenticate as

	// Authentication methods (tried in order)
	PrivateKeyPath string // Identity file, usually resolved from ~/.ssh/config
	Password       string // Password for authentication

	// Used only when neither a key nor a password is configured and the
	// device rejects the "none" method.
	DefaultIdentityFiles []string
	DisableAgent         bool

	// Connection settings
	Timeout        time.Duration // TCP connect + handshake timeout (default 60s)
	RetryLimit     int           // Connection attempts (default 3)
	RetryInterval  time.Duration // Pause between attempts (default 5s)
	CommandTimeout time.Duration // Remote command timeout (default 300s)

	// Host key handling. Unknown hosts are added to KnownHostsPath.
	SSHConfigPath      string              // Default ~/.ssh/config
	KnownHostsPath     string              // Default ~/.ssh/known_hosts
	HostKeyCheck       ssh.HostKeyCallback // Overrides KnownHostsPath when set
	InsecureSkipVerify bool                // If true, disables host key checking. Use ONLY for testing.

	Logger *logrus.Entry
}

// NewConfig creates a Config for device with safe defaults.
func NewConfig(device mbl.Device) Config {
	host := device.Address
	if host == "" {
		host = device.Hostname
	}

	return Config{
		Host:     host,
		Port:     device.Port,
		User:     device.Username,
		Password: device.Password,
	}.WithDefaults()
}

// WithDefaults sets default values for zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = mbl.DefaultPort
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.RetryLimit < 1 {
		c.RetryLimit = DefaultRetryLimit
	}

	if c.RetryInterval == 0 {
		c.RetryInterval = DefaultRetryInterval
	}

	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}

	home, _ := os.UserHomeDir()

	if c.SSHConfigPath == "" && home != "" {
		c.SSHConfigPath = filepath.Join(home, ".ssh", "config")
	}

	if c.KnownHostsPath == "" && home != "" {
		c.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
	}

	if c.DefaultIdentityFiles == nil && home != "" {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			c.DefaultIdentityFiles = append(c.DefaultIdentityFiles, filepath.Join(home, ".ssh", name))
		}
	}

	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host address cannot be empty")
	}

	if c.User == "" {
		return errors.New("configuration error: user cannot be empty")
	}

	if c.HostKeyCheck == nil && !c.InsecureSkipVerify && c.KnownHostsPath == "" {
		return errors.New("configuration error: no known_hosts path; set KnownHostsPath, HostKeyCheck or InsecureSkipVerify")
	}

	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return mbl.Device{Address: c.Host, Port: c.Port}.DialAddress()
}

// ToClientConfig converts the local Config struct to the underlying ssh.ClientConfig.
// Auth holds the identity key followed by the password; it is empty when no
// credentials are configured.
func (c Config) ToClientConfig() (*ssh.ClientConfig, error) {
	hostKeyCheck, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: hostKeyCheck,
		Timeout:         c.Timeout,
	}

	if keyAuth, err := loadPrivateKeyAuth(c.PrivateKeyPath); err != nil {
		return nil, err
	} else if keyAuth != nil {
		config.Auth = append(config.Auth, keyAuth)
	}

	if c.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(c.Password))
	}

	return config, nil
}

func (c Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	switch {
	case c.HostKeyCheck != nil:
		return c.HostKeyCheck, nil
	case c.InsecureSkipVerify:
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested
	default:
		return AcceptAndPersist(c.KnownHostsPath)
	}
}

// LookupIdentityFile returns the IdentityFile configured for host in the SSH
// client config at path. A missing config file is not an error.
func LookupIdentityFile(path, host string) (string, error) {
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse ssh config: %w", err)
	}

	identityFile, err := cfg.Get(host, "IdentityFile")
	if err != nil {
		return "", fmt.Errorf("failed to read IdentityFile for %s: %w", host, err)
	}

	if strings.HasPrefix(identityFile, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", identityFile, err)
		}

		identityFile = filepath.Join(home, identityFile[2:])
	}

	return identityFile, nil
}
