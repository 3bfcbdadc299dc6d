package mbltest

import (
	"bytes"
	"strings"

	"github.com/ruffel/mbl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryCore,
			Name:     "simple-echo",
			Run: func(t T, s mbl.Session) {
				exec := mbl.NewExecutor(s)
				result, err := exec.RunBuffered(t.Context(), mbl.NewCommand("echo", "hello"))
				require.NoError(t, err)
				require.NotNil(t, result)

				assert.Equal(t, "hello", strings.TrimSpace(string(result.Stdout)))
				assert.Equal(t, 0, result.ExitCode)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "raw-script",
			Description: "A command without args is interpreted by the remote shell",
			Run: func(t T, s mbl.Session) {
				result, err := s.Run(t.Context(), mbl.NewCommand("printf 'a\\nb\\nc\\n' | wc -l"))
				require.NoError(t, err)
				assert.Equal(t, "3", strings.TrimSpace(string(result.Stdout)))
			},
		},
		{
			Category:    CategoryCore,
			Name:        "args-are-quoted",
			Description: "Arguments reach the remote binary unchanged",
			Run: func(t T, s mbl.Session) {
				result, err := s.Run(t.Context(), mbl.NewCommand("echo", "it's", "$HOME", "a;b"))
				require.NoError(t, err)
				assert.Equal(t, "it's $HOME a;b\n", string(result.Stdout))
			},
		},
		{
			Category:    CategoryCore,
			Name:        "stdout-stderr-captured",
			Description: "stdout and stderr are captured separately",
			Run: func(t T, s mbl.Session) {
				result, err := s.Run(t.Context(), mbl.NewCommand("echo out; echo err >&2"))
				require.NoError(t, err)
				assert.Equal(t, "out\n", string(result.Stdout))
				assert.Equal(t, "err\n", string(result.Stderr))
			},
		},
		{
			Category:    CategoryCore,
			Name:        "writeout-streams-lines",
			Description: "Every output line reaches the writeout writer, in order, before Run returns",
			Run: func(t T, s mbl.Session) {
				var out bytes.Buffer

				_, err := s.Run(t.Context(), mbl.NewCommand("for i in 1 2 3 4 5; do echo line$i; done"), mbl.WithWriteout(&out))
				require.NoError(t, err)
				assert.Equal(t, "line1\nline2\nline3\nline4\nline5\n", out.String())
			},
		},
		{
			Category:    CategoryCore,
			Name:        "env-and-dir",
			Description: "Command Env and Dir are applied on the device",
			Run: func(t T, s mbl.Session) {
				cmd := &mbl.Command{Cmd: "echo $MBL_CONTRACT; pwd", Env: []string{"MBL_CONTRACT=yes"}, Dir: "/"}

				result, err := s.Run(t.Context(), cmd, mbl.WithCheck())
				require.NoError(t, err)
				assert.Equal(t, "yes\n/\n", string(result.Stdout))
			},
		},
	}
}
