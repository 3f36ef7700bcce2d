package kmod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// StampFile records the kernel release of the last successful build. It
// lives in the .git directory so that git clean leaves it alone.
const StampFile = "acpisetup-kernel-release"

// Builder builds a module from source and loads it.
type Builder struct {
	Runner runner.Runner
	Fs     afero.Fs
	Module string
	Clean  CleanPolicy

	// KernelRelease returns the running kernel release. Only needed by
	// CleanAuto and the build stamp; nil disables both.
	KernelRelease func() (string, error)

	Logger *slog.Logger
}

// BuildAndLoad runs the build sequence inside dir and loads the module. The
// first failing step aborts the rest.
func (b *Builder) BuildAndLoad(ctx context.Context, dir string) error {
	clean, err := b.needsClean(dir)
	if err != nil {
		return err
	}

	type step struct {
		what string
		cmd  runner.Command
	}
	var steps []step
	if clean {
		steps = append(steps, step{"cleaning build artifacts", runner.Cmd("make", "clean")})
	}
	steps = append(steps,
		step{"building module", runner.Cmd("make")},
		step{"installing module", runner.Sudo("make", "install")},
		step{"refreshing module dependencies", runner.Sudo("depmod")},
		step{"loading module " + b.Module, runner.Sudo("modprobe", b.Module)},
	)

	for _, s := range steps {
		if err := b.Runner.Run(ctx, s.cmd.In(dir)); err != nil {
			return fmt.Errorf("%s: %w", s.what, err)
		}
	}

	b.writeStamp(dir)
	return nil
}

func (b *Builder) needsClean(dir string) (bool, error) {
	switch b.Clean {
	case CleanNever:
		return false, nil
	case CleanAuto:
		if b.KernelRelease == nil {
			return true, nil
		}
		current, err := b.KernelRelease()
		if err != nil {
			return false, fmt.Errorf("reading kernel release: %w", err)
		}
		last, err := ReadStamp(b.Fs, dir)
		if err != nil {
			return false, err
		}
		return last != current, nil
	default:
		return true, nil
	}
}

// ReadStamp returns the kernel release recorded for dir, or "" if none.
func ReadStamp(fs afero.Fs, dir string) (string, error) {
	data, err := afero.ReadFile(fs, StampPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading build stamp: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// StampPath returns the location of the build stamp for dir.
func StampPath(dir string) string {
	return filepath.Join(dir, ".git", StampFile)
}

// writeStamp is best effort: a missing stamp only costs an extra clean.
func (b *Builder) writeStamp(dir string) {
	if b.KernelRelease == nil {
		return
	}
	release, err := b.KernelRelease()
	if err == nil {
		err = afero.WriteFile(b.Fs, StampPath(dir), []byte(release+"\n"), 0644)
	}
	if err != nil {
		b.logger().Warn("could not record kernel release", "dir", dir, "err", err)
	}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
