package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/actions"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/spf13/cobra"
)

type runFlags struct {
	sudo            bool
	sudoUser        string
	sudoPreserveEnv bool
	dir             string
	env             []string
	timeout         time.Duration
	noShell         bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command on the device",
	Long: `Run a command on the device and stream its output.

A single argument is passed to the device shell as written, so pipes and
redirections work:

  mbl -a board run 'dmesg | tail -n 20'

Several arguments are quoted individually:

  mbl -a board run ls -l /opt/arm

With --no-shell a single argument is split into words instead, and no shell
syntax is interpreted:

  mbl -a board run --no-shell 'cat "/var/log/my file.log"'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command, err := runOpts.command(args)
		if err != nil {
			return err
		}

		return withDevice(cmd.Context(), func(_ mbl.Device, s *ssh.Session) error {
			_, err := actions.Run(cmd.Context(), s, command, os.Stdout, runOpts.runOptions()...)

			return err
		})
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.sudo, "sudo", false, "run the command with sudo -n")
	f.StringVar(&runOpts.sudoUser, "sudo-user", "", "run as this user (implies --sudo)")
	f.BoolVar(&runOpts.sudoPreserveEnv, "sudo-preserve-env", false, "keep the environment under sudo (implies --sudo)")
	f.StringVar(&runOpts.dir, "dir", "", "working directory on the device")
	f.StringArrayVarP(&runOpts.env, "env", "e", nil, "export KEY=VALUE for the command (repeatable)")
	f.DurationVar(&runOpts.timeout, "timeout", 0, "command timeout (0 keeps the session default)")
	f.BoolVar(&runOpts.noShell, "no-shell", false, "split a single argument into words instead of passing it to the shell")
}

// command builds the Command described by args and the flags.
func (r runFlags) command(args []string) (*mbl.Command, error) {
	base := commandFromArgs(args)

	if r.noShell && len(args) == 1 {
		parsed, err := mbl.ParseCommand(args[0])
		if err != nil {
			return nil, err
		}

		base = parsed
	}

	env := make(map[string]string, len(r.env))

	for _, kv := range r.env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}

		env[k] = v
	}

	return mbl.Cmd(base.Cmd).Args(base.Args...).Envs(env).Dir(r.dir).Build(), nil
}

func (r runFlags) runOptions() []mbl.RunOption {
	var opts []mbl.RunOption

	if r.timeout > 0 {
		opts = append(opts, mbl.WithTimeout(r.timeout))
	}

	if r.sudo || r.sudoUser != "" || r.sudoPreserveEnv {
		var sudo []mbl.SudoOption
		if r.sudoUser != "" {
			sudo = append(sudo, mbl.WithSudoUser(r.sudoUser))
		}

		if r.sudoPreserveEnv {
			sudo = append(sudo, mbl.WithSudoPreserveEnv())
		}

		opts = append(opts, mbl.WithSudo(sudo...))
	}

	return opts
}

func commandFromArgs(args []string) *mbl.Command {
	if len(args) == 1 {
		return mbl.NewCommand(args[0])
	}

	return mbl.NewCommand(args[0], args[1:]...)
}
