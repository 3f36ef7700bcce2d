package cli

import (
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/tpacpi-labs/acpisetup/internal/doctor"
)

var skipCrontab bool

func init() {
	doctorCmd.Flags().BoolVar(&skipCrontab, "skip-crontab", false, "Do not read root's crontab (avoids a sudo prompt)")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor [user]",
	Short: "Check tools, module source, loaded module, and reboot entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd)
		if err != nil {
			return err
		}

		var positional string
		if len(args) == 1 {
			positional = args[0]
		}
		user, err := env.user(positional, userName)
		if err != nil {
			return err
		}

		tools := doctor.RequiredTools
		if env.cfg.Sudo != "" {
			tools = append([]string{env.cfg.Sudo}, tools...)
		}

		c := &doctor.Checker{
			Out:      cmd.OutOrStdout(),
			Runner:   env.runner,
			Fs:       env.fs,
			LookPath: exec.LookPath,
		}
		if !skipCrontab {
			c.Scheduler = env.scheduler
		}

		return c.Run(cmd.Context(), doctor.Target{
			Tools:     tools,
			RepoPath:  env.repoPath(user),
			Module:    env.cfg.Module,
			CronEntry: env.cronEntry(user),
		})
	},
}
