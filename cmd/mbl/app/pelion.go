package app

import (
	"os"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/actions"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/spf13/cobra"
)

var pelionStatusCmd = &cobra.Command{
	Use:   "pelion-status",
	Short: "Check whether the device is provisioned for Pelion Device Management",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDevice(cmd.Context(), func(_ mbl.Device, s *ssh.Session) error {
			return actions.PelionStatus(cmd.Context(), mbl.NewExecutor(s), os.Stdout)
		})
	},
}
