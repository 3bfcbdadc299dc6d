package app

import (
	"fmt"

	"github.com/ruffel/mbl/inventory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage the named device inventory",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List named devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := loadInventory()
		if err != nil {
			return err
		}

		names := store.Names()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render(`No devices stored. Add one with "mbl devices add <name> <address>".`))

			return nil
		}

		renderDevices(cmd, store, names)

		return nil
	},
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <name> <[user@]host[:port]>",
	Short: "Store a device under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadInventory()
		if err != nil {
			return err
		}

		device, err := inventory.ParseAddress(args[1])
		if err != nil {
			return err
		}

		device.Password = viper.GetString("password")

		if err := store.Add(args[0], device); err != nil {
			return err
		}

		if err := store.Save(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), doneStyle.Render(fmt.Sprintf("Added %s (%s)", args[0], device)))

		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadInventory()
		if err != nil {
			return err
		}

		if err := store.Remove(args[0]); err != nil {
			return err
		}

		if err := store.Save(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), doneStyle.Render("Removed "+args[0]))

		return nil
	},
}

func init() {
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)
}

func renderDevices(cmd *cobra.Command, store *inventory.Store, names []string) {
	out := cmd.OutOrStdout()
	t := newTable("NAME", names)

	fmt.Fprintln(out, t.header("NAME", "ADDRESS"))

	for _, n := range names {
		device, err := store.Lookup(n)
		if err != nil {
			continue
		}

		fmt.Fprintln(out, t.row(n, device.String()))
	}
}
