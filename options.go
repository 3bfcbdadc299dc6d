package mbl

import (
	"io"
	"os"
	"time"
)

// RunConfig holds configuration derived from run options.
type RunConfig struct {
	Check      bool          // Non-zero exit becomes a *CommandError
	Writeout   io.Writer     // Streams output lines while the command runs
	Timeout    time.Duration // 0 means the session default
	SudoConfig *SudoConfig
}

// SudoConfig defines privilege escalation options.
type SudoConfig struct {
	User        string   // Target user (-u)
	PreserveEnv bool     // Preserve environment (-E)
	CustomFlags []string // Additional flags
}

// RunOption defines a functional option for execution.
type RunOption func(*RunConfig)

// SudoOption defines a functional option for sudo configuration.
type SudoOption func(*SudoConfig)

// NewRunConfig applies opts to a zero RunConfig.
func NewRunConfig(opts ...RunOption) RunConfig {
	var cfg RunConfig
	for _, o := range opts {
		o(&cfg)
	}

	return cfg
}

// WithCheck makes a non-zero remote exit code an error.
func WithCheck() RunOption {
	return func(c *RunConfig) {
		c.Check = true
	}
}

// WithWriteout streams remote stdout and stderr lines to w as they arrive.
func WithWriteout(w io.Writer) RunOption {
	return func(c *RunConfig) {
		c.Writeout = w
	}
}

// WithTimeout overrides the session's command timeout.
func WithTimeout(d time.Duration) RunOption {
	return func(c *RunConfig) {
		c.Timeout = d
	}
}

// WithSudo wraps the command in sudo.
func WithSudo(opts ...SudoOption) RunOption {
	return func(c *RunConfig) {
		if c.SudoConfig == nil {
			c.SudoConfig = &SudoConfig{}
		}
		for _, o := range opts {
			o(c.SudoConfig)
		}
	}
}

// WithSudoUser sets the target user.
func WithSudoUser(user string) SudoOption {
	return func(s *SudoConfig) {
		s.User = user
	}
}

// WithSudoPreserveEnv preserves the environment.
func WithSudoPreserveEnv() SudoOption {
	return func(s *SudoConfig) {
		s.PreserveEnv = true
	}
}

// FileConfig holds configuration for file transfers.
type FileConfig struct {
	Permissions os.FileMode // Destination perms override (0 means preserve)
	Recursive   bool        // Required to copy directories
	Quiet       bool        // Suppresses progress reporting
	Progress    ProgressFunc
}

// DefaultFileConfig returns defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{}
}

// NewFileConfig applies opts to the default FileConfig.
func NewFileConfig(opts ...FileOption) FileConfig {
	cfg := DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return cfg
}

// Reporter returns the progress callback to use for a transfer. It never
// returns nil; when progress is disabled the callback does nothing.
func (c FileConfig) Reporter() ProgressFunc {
	if c.Quiet || c.Progress == nil {
		return func(string, int64, int64) {}
	}

	return c.Progress
}

// FileOption defines a functional option for file transfers.
type FileOption func(*FileConfig)

// WithPermissions forces specific destination file mode.
func WithPermissions(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Permissions = mode
	}
}

// WithRecursive allows directories to be copied.
func WithRecursive() FileOption {
	return func(c *FileConfig) {
		c.Recursive = true
	}
}

// WithQuiet disables progress reporting when quiet is true.
func WithQuiet(quiet bool) FileOption {
	return func(c *FileConfig) {
		c.Quiet = quiet
	}
}

// WithProgress calls fn with progress updates.
func WithProgress(fn ProgressFunc) FileOption {
	return func(c *FileConfig) {
		c.Progress = fn
	}
}
