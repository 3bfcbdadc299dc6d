package mbl

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// DefaultPort is the SSH port used when a Device does not name one.
const DefaultPort = 22

// Device identifies a remote target.
//
// Hostname is the name used for SSH client config lookups. Address is what we
// actually dial and falls back to Hostname when empty.
type Device struct {
	Hostname string
	Address  string
	Port     int
	Username string
	Password string // Optional
}

// Validate checks that the device can be dialled.
func (d Device) Validate() error {
	if d.Hostname == "" && d.Address == "" {
		return errors.New("device error: hostname or address is required")
	}

	if d.Username == "" {
		return errors.New("device error: username is required")
	}

	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("device error: invalid port %d", d.Port)
	}

	return nil
}

// DialAddress returns the host:port pair used to connect to the device.
func (d Device) DialAddress() string {
	host := d.Address
	if host == "" {
		host = d.Hostname
	}

	port := d.Port
	if port == 0 {
		port = DefaultPort
	}

	return net.JoinHostPort(host, strconv.Itoa(port))
}

// String returns user@address.
func (d Device) String() string {
	return d.Username + "@" + d.DialAddress()
}

// Command configures a remote execution.
//
// A Command without Args is sent to the device verbatim, so Cmd may hold a
// whole shell script ("ls /tmp | wc -l"). When Args are present every token is
// POSIX shell quoted.
type Command struct {
	Cmd  string   // Binary name, path, or raw script when Args is empty
	Args []string // Arguments to pass to the binary
	Env  []string // Environment variables in "KEY=VALUE" format
	Dir  string   // Working directory for execution
}

// Validate checks that the command is well-formed.
// Returns an error if the command is nil or has an empty binary.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return errors.New("command binary cannot be empty")
	}

	return nil
}

// NewCommand creates a new Command with the given binary and arguments.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Cmd:  binary,
		Args: args,
	}
}

// String renders the command as it is sent to the remote shell.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Cmd
	}

	var b strings.Builder
	b.WriteString(Quote(c.Cmd))

	for _, arg := range c.Args {
		b.WriteString(" ")
		b.WriteString(Quote(arg))
	}

	return b.String()
}

// ParseCommand parses a shell command string into a Command struct using shlex.
// It handles quoted arguments correctly.
func ParseCommand(cmdStr string) (*Command, error) {
	parts, err := shlex.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}

// Quote returns a shell-escaped version of s. Strings made only of safe
// characters are returned unchanged.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	if strings.IndexFunc(s, unsafeShellRune) < 0 {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("@%+=:,./_-", r):
		return false
	default:
		return true
	}
}

// Result contains the outcome of a completed remote command.
type Result struct {
	ExitCode int           // Remote exit status (0 indicates success)
	Stdout   []byte        // Captured standard output
	Stderr   []byte        // Captured standard error
	Duration time.Duration // Time taken for execution
}

// Success returns true if the command completed with exit code 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Failed returns true if the command exited non-zero.
func (r *Result) Failed() bool {
	return !r.Success()
}
