// Package app implements the mbl command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ruffel/mbl/providers/ssh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "mbl",
	Short: "Manage embedded Linux devices over SSH",
	Long: `mbl runs commands, copies files and opens shells on embedded Linux devices
reachable over SSH. A device is given as [user@]host[:port] or as a name
stored with "mbl devices add". Every flag can also be set through an MBL_
environment variable, e.g. MBL_ADDRESS or MBL_RETRY_INTERVAL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogging()
	},
}

var boundFlags = []string{"address", "password", "inventory", "quiet", "verbose", "retries", "retry-interval"}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("address", "a", "", "Device address ([user@]host[:port]) or inventory name")
	flags.String("password", "", "Password to authenticate with")
	flags.String("inventory", "", "Device inventory file (default ~/.mbl/devices.yaml)")
	flags.BoolP("quiet", "q", false, "Suppress file transfer progress")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Int("retries", ssh.DefaultRetryLimit, "Connection attempts before giving up")
	flags.Duration("retry-interval", ssh.DefaultRetryInterval, "Pause between connection attempts")

	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	viper.SetEnvPrefix("MBL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(pelionStatusCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogging() {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// Main runs the command line and returns the process exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitCodeError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))

	return 1
}

// exitCodeError ends the process with code without printing anything more,
// for commands that already reported their own failure.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
