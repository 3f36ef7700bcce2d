package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tpacpi-labs/acpisetup/internal/branding"
	"github.com/tpacpi-labs/acpisetup/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configPath string
	debug      bool
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [user]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` sets up the acpi_call kernel module for tpacpi-bat.

Without arguments it installs tpacpi-bat and itself into /usr/bin, registers
itself in root's crontab to run at every boot, clones the acpi_call source
into the user's home, and builds and loads the module.

With a user name (or --apply) it only syncs, builds, and loads the module.
This is what the reboot entry runs.

On systems other than Linux it does nothing.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), debug)
	},
	RunE: runSetup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default "+config.FilePath()+")")
	flags.BoolVar(&debug, "debug", false, "Log every executed command")
	flags.BoolVar(&dryRun, "dry-run", false, "Print commands instead of running them")
}

// Execute runs the root command with build info injected via ldflags.
// SIGINT and SIGTERM cancel the command that is currently running.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
