// Package inventory resolves device names and addresses to mbl.Device values.
//
// Named devices live in a YAML file (by default ~/.mbl/devices.yaml); anything
// that is not a known name is parsed as a "[user@]host[:port]" address.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ruffel/mbl"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a named device is not in the inventory.
var ErrNotFound = errors.New("device not found in inventory")

// Entry is one named device as stored on disk.
type Entry struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type file struct {
	Devices map[string]Entry `yaml:"devices"`
}

// Store is a YAML-backed set of named devices.
type Store struct {
	path    string
	devices map[string]Entry
}

// DefaultPath returns ~/.mbl/devices.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}

	return filepath.Join(home, ".mbl", "devices.yaml"), nil
}

// Load reads the inventory at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, devices: map[string]Entry{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse inventory %s: %w", path, err)
	}

	for name, e := range f.Devices {
		s.devices[name] = e
	}

	return s, nil
}

// Save writes the inventory back to its file, creating the directory if needed.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	data, err := yaml.Marshal(file{Devices: s.devices})
	if err != nil {
		return fmt.Errorf("failed to serialize inventory: %w", err)
	}

	// Entries may hold passwords.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save inventory to %s: %w", s.path, err)
	}

	return nil
}

// Add stores device under name, replacing any existing entry.
func (s *Store) Add(name string, device mbl.Device) error {
	if name == "" {
		return errors.New("device name cannot be empty")
	}

	if err := device.Validate(); err != nil {
		return err
	}

	address := device.Address
	if address == "" {
		address = device.Hostname
	}

	port := device.Port
	if port == mbl.DefaultPort {
		port = 0
	}

	s.devices[name] = Entry{
		Address:  address,
		Port:     port,
		User:     device.Username,
		Password: device.Password,
	}

	return nil
}

// Remove deletes the named device.
func (s *Store) Remove(name string) error {
	if _, ok := s.devices[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(s.devices, name)

	return nil
}

// Lookup returns the named device.
func (s *Store) Lookup(name string) (mbl.Device, error) {
	e, ok := s.devices[name]
	if !ok {
		return mbl.Device{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	user := e.User
	if user == "" {
		user = DefaultUser
	}

	port := e.Port
	if port == 0 {
		port = mbl.DefaultPort
	}

	return mbl.Device{
		Hostname: name,
		Address:  e.Address,
		Port:     port,
		Username: user,
		Password: e.Password,
	}, nil
}

// Names returns the stored device names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.devices))
	for name := range s.devices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve returns the device stored as nameOrAddress, or else parses it as an address.
func (s *Store) Resolve(nameOrAddress string) (mbl.Device, error) {
	if _, ok := s.devices[nameOrAddress]; ok {
		return s.Lookup(nameOrAddress)
	}

	return ParseAddress(nameOrAddress)
}
