package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tpacpi-labs/acpisetup/internal/kmod"
	"github.com/tpacpi-labs/acpisetup/internal/platform"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [user]",
	Short: "Show kernel, module source, and module state",
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
		path := env.repoPath(user)
		out := cmd.OutOrStdout()

		if info, err := platform.HostInfo(); err == nil {
			fmt.Fprintf(out, "Host:      %s (%s, %s)\n", info.Hostname, info.Platform, info.Arch)
			fmt.Fprintf(out, "Kernel:    %s\n", info.KernelRelease)
		} else {
			fmt.Fprintf(out, "Host:      unknown (%v)\n", err)
		}

		fmt.Fprintf(out, "Source:    %s\n", path)
		if ok, _ := env.source.IsCloned(path); ok {
			if head, err := env.source.Head(cmd.Context(), path); err == nil && head != "" {
				fmt.Fprintf(out, "HEAD:      %s\n", head)
			}
			if built, err := kmod.ReadStamp(env.fs, path); err == nil && built != "" {
				fmt.Fprintf(out, "Built for: %s\n", built)
			}
		} else {
			fmt.Fprintln(out, "           not cloned")
		}

		loaded, err := kmod.Loaded(env.fs, env.cfg.Module)
		switch {
		case err != nil:
			fmt.Fprintf(out, "Module:    %s (unknown: %v)\n", env.cfg.Module, err)
		case loaded:
			fmt.Fprintf(out, "Module:    %s loaded\n", env.cfg.Module)
		default:
			fmt.Fprintf(out, "Module:    %s not loaded\n", env.cfg.Module)
		}
		return nil
	},
}
