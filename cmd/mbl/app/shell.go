package app

import (
	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/actions"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/ruffel/mbl/shell"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell on the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd.Context(), func(d mbl.Device, s *ssh.Session) error {
			logger.Debugf("opening shell on %s", d)

			return actions.Shell(cmd.Context(), s, shell.New(shell.NewStdTerminal()))
		})
	},
}
