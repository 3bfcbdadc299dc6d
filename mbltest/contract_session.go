package mbltest

import (
	"path/filepath"

	"github.com/ruffel/mbl"
	"github.com/stretchr/testify/require"
)

func sessionContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategorySession,
			Name:        "close-idempotent",
			Description: "Closing a session multiple times is deterministic and non-fatal",
			Run: func(t T, s mbl.Session) {
				require.NoError(t, s.Close())
				require.NoError(t, s.Close())
			},
		},
		{
			Category:    CategorySession,
			Name:        "close-post-run-fails",
			Description: "Run fails with ErrSessionClosed after close",
			Run: func(t T, s mbl.Session) {
				require.NoError(t, s.Close())

				_, err := s.Run(t.Context(), mbl.NewCommand("echo mbl-contract"))
				require.ErrorIs(t, err, mbl.ErrSessionClosed)
			},
		},
		{
			Category:    CategorySession,
			Name:        "close-post-get-fails",
			Description: "Get fails after close",
			Run: func(t T, s mbl.Session) {
				require.NoError(t, s.Close())

				err := s.Get(t.Context(), "/etc/hostname", filepath.Join(t.TempDir(), "hostname"))
				require.ErrorIs(t, err, mbl.ErrSessionClosed)
			},
		},
		{
			Category:    CategorySession,
			Name:        "close-post-shell-fails",
			Description: "Shell fails after close",
			Run: func(t T, s mbl.Session) {
				require.NoError(t, s.Close())

				_, err := s.Shell(t.Context())
				require.ErrorIs(t, err, mbl.ErrSessionClosed)
			},
		},
	}
}
