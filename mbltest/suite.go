package mbltest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ruffel/mbl"
)

// Standard categories for grouping tests.
const (
	CategoryCore       = "core"
	CategorySession    = "session"
	CategoryFilesystem = "filesystem"
	CategoryErrors     = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Name() string
}

// Factory returns a connected session for a single contract. Contracts may
// close the session they are given.
type Factory func(t *testing.T) mbl.Session

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Run         func(t T, s mbl.Session)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Verify is the standard Go test entry point for session implementations.
// Every contract gets its own session from newSession.
func Verify(t *testing.T, newSession Factory) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			s := newSession(t)

			defer func() { _ = s.Close() }()

			tc.Run(t, s)
		})
	}
}

// remoteDir returns a per-contract scratch directory on the device and makes sure it exists.
func remoteDir(t T, s mbl.Session) string {
	dir := "/tmp/mbl-test-" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	exec := mbl.NewExecutor(s)
	if err := exec.Check(t.Context(), mbl.NewCommand("mkdir", "-p", dir)); err != nil {
		t.Errorf("failed to create %s: %v", dir, err)
		t.FailNow()
	}

	return dir
}
