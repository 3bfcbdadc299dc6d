package ssh

import (
	"fmt"
	"strings"

	"github.com/ruffel/mbl"
	"golang.org/x/crypto/ssh"
)

// buildEnvPrefix constructs the environment variable prefix for remote commands.
// Embedded sshd builds usually refuse Setenv, so variables are exported inline.
// Entries whose key is not a shell identifier are dropped.
func buildEnvPrefix(envVars []string) string {
	var envPrefix strings.Builder

	for _, env := range envVars {
		k, v, found := strings.Cut(env, "=")
		if !found || !isShellName(k) {
			continue
		}

		fmt.Fprintf(&envPrefix, "export %s=%s; ", k, mbl.Quote(v))
	}

	return envPrefix.String()
}

func isShellName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

// buildDirPrefix constructs the directory change prefix for remote commands.
func buildDirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return fmt.Sprintf("cd %s && ", mbl.Quote(dir))
}

// buildTerminalModes returns the default terminal modes for a PTY.
func buildTerminalModes() ssh.TerminalModes {
	return ssh.TerminalModes{
		ssh.ECHO:          1,     // enable echoing
		ssh.TTY_OP_ISPEED: 14400, // input speed = 14.4kbaud
		ssh.TTY_OP_OSPEED: 14400, // output speed = 14.4kbaud
	}
}

// buildFullCommand constructs the complete command line sent to the device.
// Format: [exports] [cd dir &&] cmd
func buildFullCommand(cmd *mbl.Command) string {
	return buildEnvPrefix(cmd.Env) + buildDirPrefix(cmd.Dir) + cmd.String()
}
