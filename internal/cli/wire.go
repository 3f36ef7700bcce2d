package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tpacpi-labs/acpisetup/internal/branding"
	"github.com/tpacpi-labs/acpisetup/internal/config"
	"github.com/tpacpi-labs/acpisetup/internal/crontab"
	"github.com/tpacpi-labs/acpisetup/internal/identity"
	"github.com/tpacpi-labs/acpisetup/internal/installer"
	"github.com/tpacpi-labs/acpisetup/internal/kmod"
	"github.com/tpacpi-labs/acpisetup/internal/platform"
	"github.com/tpacpi-labs/acpisetup/internal/repo"
	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// newFs returns the filesystem commands inspect. Tests replace it.
var newFs = afero.NewOsFs

// environment holds the collaborators built from the configuration.
type environment struct {
	cfg       *config.Config
	runner    runner.Runner
	fs        afero.Fs
	installer *installer.Installer
	scheduler *crontab.Crontab
	source    *repo.Git
	builder   *kmod.Builder
	resolver  identity.Resolver
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	clean, err := kmod.ParseCleanPolicy(cfg.Clean)
	if err != nil {
		return nil, err
	}

	fs := newFs()
	var r runner.Runner
	if dryRun {
		r = &runner.DryRun{Out: cmd.OutOrStdout(), Sudo: cfg.Sudo}
		fs = afero.NewReadOnlyFs(fs)
	} else {
		r = &runner.Exec{Sudo: cfg.Sudo, Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}

	return &environment{
		cfg:    cfg,
		runner: r,
		fs:     fs,
		installer: &installer.Installer{
			Runner:  r,
			BinDir:  cfg.BinDir,
			UnitDir: cfg.UnitDir,
		},
		scheduler: crontab.New(r),
		source:    repo.New(cfg.RepoURL, r, fs),
		builder: &kmod.Builder{
			Runner:        r,
			Fs:            fs,
			Module:        cfg.Module,
			Clean:         clean,
			KernelRelease: platform.KernelRelease,
			Logger:        slog.Default(),
		},
	}, nil
}

// user resolves the owner of the module source from the given candidates,
// then the config, then the default rule of identity.Resolver.
func (e *environment) user(candidates ...string) (string, error) {
	name, err := e.resolver.Resolve(append(candidates, e.cfg.User)...)
	if err != nil {
		return "", fmt.Errorf("resolving user: %w", err)
	}
	return name, nil
}

func (e *environment) repoPath(user string) string {
	return identity.RepoPath(e.cfg.HomeRoot, user, e.cfg.RepoDirName)
}

func (e *environment) artifacts() installer.Artifacts {
	return installer.Artifacts{
		Name:         branding.CLIName(),
		HelperScript: e.cfg.Helper,
		ServiceUnit:  e.cfg.ServiceUnit,
	}
}

// cronEntry is the reboot line for user. It passes the user name so the
// boot-time run, which happens as root, finds the right home directory.
func (e *environment) cronEntry(user string) string {
	return crontab.Entry(e.installer.BinaryPath(branding.CLIName()), user)
}
