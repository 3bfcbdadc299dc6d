package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersionInfo sets the version information from main package.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "mbl version: %s\n", version)
		_, _ = fmt.Fprintf(out, "Build time: %s\n", buildTime)
		_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	},
}
