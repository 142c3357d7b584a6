// Command caprun runs a target command with policy-granted Linux
// capabilities.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victoralfred/caprun"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options are the launcher's own flags, parsed before the target
// command.
type options struct {
	role        string
	info        bool
	showVersion bool
}

// newRootCmd builds the CLI surface. Everything after the first
// positional argument belongs to the target command, never to caprun.
func newRootCmd(opts *options, runE func(c *cobra.Command, argv []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caprun [-r ROLE] [-i] [--] command [args...]",
		Short: "Run a command with policy-granted Linux capabilities",
		Long: `caprun resolves the invoking identity against a role-based policy,
applies the granted capability set to the process, sanitizes the
environment and search path, and replaces itself with the target
command.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}

	cmd.Flags().StringVarP(&opts.role, "role", "r", "", "restrict resolution to the named role")
	cmd.Flags().BoolVarP(&opts.info, "info", "i", false, "display resolved rights and exit")
	cmd.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "print the version and exit")

	// Option parsing stops at the first positional argument so that the
	// target command's own flags reach it untouched.
	cmd.Flags().SetInterspersed(false)

	// Bad flags show usage and exit zero, like help does.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), err)
		_ = c.Usage()
		return caprun.ErrUsage
	})

	return cmd
}

func run(args []string) int {
	opts := &options{}
	cmd := newRootCmd(opts, func(c *cobra.Command, argv []string) error {
		if opts.showVersion {
			fmt.Fprintf(c.OutOrStdout(), "caprun %s\n", caprun.Version())
			return nil
		}

		l, err := caprun.New(caprun.DefaultConfig())
		if err != nil {
			return err
		}

		if opts.info {
			return l.Info(context.Background(), c.OutOrStdout(), os.Getuid(), os.Getgid(), opts.role)
		}

		if len(argv) == 0 {
			_ = c.Usage()
			return caprun.ErrUsage
		}

		return l.Launch(context.Background(), caprun.Request{
			UID:      os.Getuid(),
			GID:      os.Getgid(),
			Command:  argv[0],
			Args:     argv[1:],
			Env:      os.Environ(),
			RoleHint: opts.role,
		})
	})

	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil && caprun.ExitCode(err) != 0 {
		// One diagnostic line per fatal path.
		fmt.Fprintf(os.Stderr, "caprun: %v\n", err)
	}
	return caprun.ExitCode(err)
}
