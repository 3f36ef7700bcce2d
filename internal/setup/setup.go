// Package setup sequences the host setup: bootstrap install, reboot task
// registration, module source sync, and module build and load.
package setup

import (
	"context"
	"fmt"
	"io"

	"github.com/tpacpi-labs/acpisetup/internal/crontab"
	"github.com/tpacpi-labs/acpisetup/internal/installer"
	"github.com/tpacpi-labs/acpisetup/internal/repo"
)

// Mode selects which steps run.
type Mode int

const (
	// Bootstrap is the first run: install, register, clone, then build.
	Bootstrap Mode = iota
	// Apply is the run triggered at reboot: sync (optional) and build only.
	Apply
)

func (m Mode) String() string {
	switch m {
	case Bootstrap:
		return "bootstrap"
	case Apply:
		return "apply"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Installer installs the program artifacts.
type Installer interface {
	Install(ctx context.Context, a installer.Artifacts) error
}

// Builder builds and loads the module from a source directory.
type Builder interface {
	BuildAndLoad(ctx context.Context, dir string) error
}

// Options are the inputs of a single run.
type Options struct {
	Mode      Mode
	RepoPath  string
	Artifacts installer.Artifacts
	// CronEntry is the line registered in the superuser crontab.
	CronEntry string
	// SyncOnApply syncs the source before building in Apply mode.
	SyncOnApply bool
}

// Setup holds the collaborators of a run.
type Setup struct {
	Installer Installer
	Scheduler crontab.Scheduler
	Source    repo.Source
	Builder   Builder

	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// Run executes the steps selected by opts.Mode in order. The first failure
// aborts the run, except a failed sync in Apply mode; nothing already done
// is rolled back.
func (s *Setup) Run(ctx context.Context, opts Options) error {
	if opts.Mode == Bootstrap {
		s.progress("Installing %s", opts.Artifacts.Name)
		if err := s.Installer.Install(ctx, opts.Artifacts); err != nil {
			return err
		}

		s.progress("Registering reboot task")
		added, err := crontab.Register(ctx, s.Scheduler, opts.CronEntry)
		if err != nil {
			return err
		}
		if !added {
			s.progress("Reboot task already registered")
		}

		s.progress("Cloning module source into %s", opts.RepoPath)
		if _, err := s.Source.EnsureClonedAt(ctx, opts.RepoPath); err != nil {
			return err
		}
	}

	if opts.Mode == Bootstrap || opts.SyncOnApply {
		s.progress("Syncing module source")
		if err := s.Source.SyncToRemoteDefault(ctx, opts.RepoPath); err != nil {
			if opts.Mode == Bootstrap {
				return err
			}
			// At boot the network may not be up yet. The existing checkout
			// still builds for the new kernel.
			s.progress("Sync failed, building the existing checkout: %v", err)
		}
	}

	s.progress("Building and loading module")
	if err := s.Builder.BuildAndLoad(ctx, opts.RepoPath); err != nil {
		return err
	}

	s.progress("Done")
	return nil
}

func (s *Setup) progress(format string, args ...any) {
	if s.Out == nil {
		return
	}
	fmt.Fprintf(s.Out, "==> "+format+"\n", args...)
}
