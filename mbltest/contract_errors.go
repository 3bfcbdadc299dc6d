package mbltest

import (
	"fmt"

	"github.com/ruffel/mbl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	runExitErrorCode   = 13
	checkExitErrorCode = 23
)

func errorContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryErrors,
			Name:        "run-nonzero-without-check",
			Description: "Without check a non-zero exit is only reported in the result",
			Run: func(t T, s mbl.Session) {
				result, err := s.Run(t.Context(), mbl.NewCommand(fmt.Sprintf("exit %d", runExitErrorCode)))
				require.NoError(t, err)
				assert.Equal(t, runExitErrorCode, result.ExitCode)
				assert.True(t, result.Failed())
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "check-nonzero-returns-commanderror",
			Description: "With check a non-zero exit returns *mbl.CommandError carrying stderr",
			Run: func(t T, s mbl.Session) {
				_, err := s.Run(t.Context(), mbl.NewCommand(fmt.Sprintf("echo broken >&2; exit %d", checkExitErrorCode)), mbl.WithCheck())

				var cmdErr *mbl.CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, checkExitErrorCode, cmdErr.ExitCode)
				assert.Equal(t, "broken\n", cmdErr.Message)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "check-nonzero-without-stderr",
			Description: "A failing command that wrote nothing to stderr gets the generic message",
			Run: func(t T, s mbl.Session) {
				_, err := s.Run(t.Context(), mbl.NewCommand("false"), mbl.WithCheck())

				var cmdErr *mbl.CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, mbl.DefaultCommandErrorMessage, cmdErr.Error())
			},
		},
	}
}
