package app

import (
	"os"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/actions"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/spf13/cobra"
)

var (
	putRecursive bool
	getRecursive bool
)

var putCmd = &cobra.Command{
	Use:   "put <src> <dst>",
	Short: "Copy a local file or directory to the device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd.Context(), func(d mbl.Device, s *ssh.Session) error {
			return actions.Put(cmd.Context(), s, displayName(d), args[0], args[1], os.Stdout, fileOptions(putRecursive)...)
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <src> <dst>",
	Short: "Copy a file or directory from the device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd.Context(), func(d mbl.Device, s *ssh.Session) error {
			return actions.Get(cmd.Context(), s, displayName(d), args[0], args[1], os.Stdout, fileOptions(getRecursive)...)
		})
	},
}

func init() {
	putCmd.Flags().BoolVarP(&putRecursive, "recursive", "r", false, "Copy directories recursively")
	getCmd.Flags().BoolVarP(&getRecursive, "recursive", "r", false, "Copy directories recursively")
}

func displayName(d mbl.Device) string {
	if d.Hostname != "" {
		return d.Hostname
	}

	return d.Address
}
