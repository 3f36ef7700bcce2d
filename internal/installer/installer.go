// Package installer copies the program, its helper script, and optionally a
// systemd unit into system directories with elevated cp.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// Default install locations.
const (
	DefaultBinDir  = "/usr/bin"
	DefaultUnitDir = "/usr/lib/systemd/system"
)

// Artifacts names what gets installed.
type Artifacts struct {
	// Name is the file name of the installed binary.
	Name string
	// HelperScript is the path of the helper script to install.
	HelperScript string
	// ServiceUnit is the path of a systemd unit file; empty skips it.
	ServiceUnit string
}

// Installer performs the elevated copies.
type Installer struct {
	Runner  runner.Runner
	BinDir  string
	UnitDir string

	// Executable returns the path of the running binary; defaults to
	// os.Executable.
	Executable func() (string, error)

	Logger *slog.Logger
}

// BinaryPath returns where the binary called name is installed.
func (i *Installer) BinaryPath(name string) string {
	return filepath.Join(i.binDir(), name)
}

// Install copies the helper script, the running binary, and the optional unit
// file. The first failing copy aborts the rest.
func (i *Installer) Install(ctx context.Context, a Artifacts) error {
	if err := i.copy(ctx, a.HelperScript, i.binDir()); err != nil {
		return fmt.Errorf("installing helper script: %w", err)
	}

	self, err := i.executable()
	if err != nil {
		return fmt.Errorf("locating running binary: %w", err)
	}
	dst := i.BinaryPath(a.Name)
	if self == dst {
		i.logger().Info("binary already installed", "path", dst)
	} else if err := i.copyAs(ctx, self, dst); err != nil {
		return fmt.Errorf("installing %s: %w", a.Name, err)
	}

	if a.ServiceUnit != "" {
		if err := i.copy(ctx, a.ServiceUnit, i.unitDir()); err != nil {
			return fmt.Errorf("installing service unit: %w", err)
		}
	}
	return nil
}

func (i *Installer) copy(ctx context.Context, src, dstDir string) error {
	return i.copyAs(ctx, src, filepath.Join(dstDir, filepath.Base(src)))
}

func (i *Installer) copyAs(ctx context.Context, src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", src, err)
	}
	return i.Runner.Run(ctx, runner.Sudo("cp", abs, dst))
}

func (i *Installer) executable() (string, error) {
	exe := i.Executable
	if exe == nil {
		exe = os.Executable
	}
	path, err := exe()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path), nil
}

func (i *Installer) binDir() string {
	if i.BinDir == "" {
		return DefaultBinDir
	}
	return i.BinDir
}

func (i *Installer) unitDir() string {
	if i.UnitDir == "" {
		return DefaultUnitDir
	}
	return i.UnitDir
}

func (i *Installer) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.Default()
	}
	return i.Logger
}
