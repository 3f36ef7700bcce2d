package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tpacpi-labs/acpisetup/internal/platform"
	"github.com/tpacpi-labs/acpisetup/internal/setup"
)

// goos is the platform the gate checks. Tests override it.
var goos = runtime.GOOS

var (
	applyOnly bool
	userName  string
)

func init() {
	rootCmd.Flags().BoolVar(&applyOnly, "apply", false, "Only sync, build, and load the module")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "", "Owner of the module source (default $SUDO_USER, then the current user)")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if !platform.Supported(goos) {
		fmt.Fprintln(cmd.OutOrStdout(), platform.Notice)
		return nil
	}

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}

	mode := setup.Bootstrap
	var positional string
	if len(args) == 1 {
		positional = args[0]
		mode = setup.Apply
	}
	if applyOnly {
		mode = setup.Apply
	}

	user, err := env.user(positional, userName)
	if err != nil {
		return err
	}

	s := &setup.Setup{
		Installer: env.installer,
		Scheduler: env.scheduler,
		Source:    env.source,
		Builder:   env.builder,
		Out:       cmd.OutOrStdout(),
	}
	return s.Run(cmd.Context(), setup.Options{
		Mode:        mode,
		RepoPath:    env.repoPath(user),
		Artifacts:   env.artifacts(),
		CronEntry:   env.cronEntry(user),
		SyncOnApply: env.cfg.SyncOnApply,
	})
}
