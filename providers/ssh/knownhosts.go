package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// AcceptAndPersist returns a HostKeyCallback that trusts hosts it has never
// seen and records their key in the known_hosts file at path, creating the
// file if needed. A host whose key differs from the recorded one is rejected.
//
// There is no interactive confirmation: the first key a device presents is
// trusted.
func AcceptAndPersist(path string) (ssh.HostKeyCallback, error) {
	if err := ensureKnownHosts(path); err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// Reload every time so keys persisted by earlier attempts are seen.
		check, err := knownhosts.New(path)
		if err != nil {
			return fmt.Errorf("failed to load known_hosts: %w", err)
		}

		err = check(hostname, remote, key)

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			return appendKnownHost(path, hostname, key)
		}

		return err
	}, nil
}

func ensureKnownHosts(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create known_hosts directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create known_hosts: %w", err)
	}

	return f.Close()
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts: %w", err)
	}

	defer func() { _ = f.Close() }()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to record host key for %s: %w", hostname, err)
	}

	return nil
}
