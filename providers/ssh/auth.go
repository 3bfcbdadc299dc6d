package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// loadPrivateKeyAuth loads a private key from a file and returns an ssh.AuthMethod.
// Returns nil if the path is empty.
func loadPrivateKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	if keyPath == "" {
		return nil, nil //nolint:nilnil // Valid state: no key path provided, so no auth method returned
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// loadDefaultKeys returns signers for every default identity file that exists
// and parses without a passphrase.
func loadDefaultKeys(paths []string) []ssh.Signer {
	var signers []ssh.Signer

	for _, p := range paths {
		keyBytes, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			continue
		}

		signers = append(signers, signer)
	}

	return signers
}

// dialAgent connects to the SSH agent named by SSH_AUTH_SOCK.
func dialAgent() (net.Conn, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}

	return (&net.Dialer{Timeout: 500 * time.Millisecond}).DialContext(context.Background(), "unix", socket)
}

// agentSigners returns the agent's keys. The agent connection is opened on
// first use and kept until Close, since signing during every later handshake
// goes through it. Returns nil if no agent is reachable.
func (s *Session) agentSigners() []ssh.Signer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.agent == nil {
		c, err := s.dialAgent()
		if err != nil {
			s.log.WithError(err).Debug("ssh agent unavailable")

			return nil
		}

		s.agentConn = c
		s.agent = agent.NewClient(c)
	}

	signers, err := s.agent.Signers()
	if err != nil {
		return nil
	}

	return signers
}

// fallbackAuth is the standard key negotiation used after a device rejected
// the "none" method: agent keys first, then default identity files.
func (s *Session) fallbackAuth() []ssh.AuthMethod {
	var signers []ssh.Signer

	if !s.config.DisableAgent {
		signers = append(signers, s.agentSigners()...)
	}

	signers = append(signers, loadDefaultKeys(s.config.DefaultIdentityFiles)...)

	if len(signers) == 0 {
		return nil
	}

	return []ssh.AuthMethod{ssh.PublicKeys(signers...)}
}

// isAuthFailure reports whether err is the client giving up on authentication,
// as opposed to a network or handshake failure.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
