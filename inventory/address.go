package inventory

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ruffel/mbl"
)

// DefaultUser is the login used when an address names no user.
const DefaultUser = "root"

// ParseAddress parses "[user@]host[:port]" into a Device. IPv6 hosts with a
// port must be bracketed ("[fe80::1]:2222"). The host is used both as the
// dial address and as the name for SSH client config lookups.
func ParseAddress(address string) (mbl.Device, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return mbl.Device{}, errors.New("invalid address: empty")
	}

	user := DefaultUser

	if i := strings.LastIndex(address, "@"); i >= 0 {
		if i == 0 {
			return mbl.Device{}, fmt.Errorf("invalid address %q: empty user", address)
		}

		user = address[:i]
		address = address[i+1:]
	}

	host, port, err := splitHostPort(address)
	if err != nil {
		return mbl.Device{}, err
	}

	return mbl.Device{
		Hostname: host,
		Address:  host,
		Port:     port,
		Username: user,
	}, nil
}

func splitHostPort(address string) (string, int, error) {
	// A bare IPv6 address has several colons and no port.
	if strings.Count(address, ":") > 1 && !strings.HasPrefix(address, "[") {
		return address, mbl.DefaultPort, nil
	}

	if !strings.Contains(address, ":") {
		return address, mbl.DefaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// "[::1]" without a port
		if strings.HasPrefix(address, "[") && strings.HasSuffix(address, "]") {
			return strings.Trim(address, "[]"), mbl.DefaultPort, nil
		}

		return "", 0, fmt.Errorf("invalid address %q: %w", address, err)
	}

	if host == "" {
		return "", 0, fmt.Errorf("invalid address %q: empty host", address)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid address %q: bad port %q", address, portStr)
	}

	return host, port, nil
}
