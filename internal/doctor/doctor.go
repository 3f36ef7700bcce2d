// Package doctor diagnoses whether a host is ready for, and the result of, a
// setup run: required tools, git version, module source, loaded module, and
// the reboot entry.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/tpacpi-labs/acpisetup/internal/crontab"
	"github.com/tpacpi-labs/acpisetup/internal/kmod"
	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// MinGitVersion is the oldest git that supports every command sync uses.
const MinGitVersion = "1.8.0"

// RequiredTools are the programs a setup run invokes, besides the elevation
// program.
var RequiredTools = []string{"git", "make", "crontab", "depmod", "modprobe"}

// Status tags are rendered per call so color.NoColor changes take effect.
func tagOK() string   { return color.GreenString("[ OK ]") }
func tagMiss() string { return color.RedString("[MISS]") }
func tagFail() string { return color.RedString("[FAIL]") }
func tagWarn() string { return color.YellowString("[WARN]") }

// Target describes the expected state of the host.
type Target struct {
	Tools     []string
	RepoPath  string
	Module    string
	CronEntry string
}

// Checker runs the checks and reports each one on Out.
type Checker struct {
	Out      io.Writer
	Runner   runner.Runner
	Fs       afero.Fs
	LookPath func(string) (string, error)
	// Scheduler is consulted for the reboot entry; nil skips that check.
	Scheduler crontab.Scheduler
}

// Run performs all checks. Every failed check is reported and collected in
// the returned error; nil means the host is healthy.
func (c *Checker) Run(ctx context.Context, t Target) error {
	var result *multierror.Error

	fmt.Fprintln(c.Out, "Tool check:")
	for _, tool := range t.Tools {
		if err := c.checkTool(tool); err != nil {
			result = multierror.Append(result, err)
		}
	}

	fmt.Fprintln(c.Out, "Git check:")
	if err := c.checkGit(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	fmt.Fprintln(c.Out, "Module check:")
	if err := c.checkRepo(t.RepoPath); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.checkLoaded(t.Module); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Scheduler != nil {
		fmt.Fprintln(c.Out, "Crontab check:")
		if err := c.checkCrontab(ctx, t.CronEntry); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (c *Checker) checkTool(name string) error {
	path, err := c.lookPath(name)
	if err != nil {
		fmt.Fprintf(c.Out, "  %s %s not found in PATH\n", tagMiss(), name)
		return fmt.Errorf("%s not found in PATH", name)
	}
	fmt.Fprintf(c.Out, "  %s %s found at %s\n", tagOK(), name, path)
	return nil
}

func (c *Checker) checkGit(ctx context.Context) error {
	out, err := c.Runner.Output(ctx, runner.Cmd("git", "--version"))
	if err != nil {
		fmt.Fprintf(c.Out, "  %s git --version: %v\n", tagFail(), err)
		return fmt.Errorf("running git --version: %w", err)
	}

	v, err := ParseGitVersion(string(out))
	if err != nil {
		fmt.Fprintf(c.Out, "  %s %v\n", tagWarn(), err)
		return err
	}

	ok, err := AtLeast(v, MinGitVersion)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(c.Out, "  %s git %s is older than %s\n", tagFail(), v, MinGitVersion)
		return fmt.Errorf("git %s is older than %s", v, MinGitVersion)
	}
	fmt.Fprintf(c.Out, "  %s git %s\n", tagOK(), v)
	return nil
}

func (c *Checker) checkRepo(path string) error {
	ok, err := afero.DirExists(c.Fs, filepath.Join(path, ".git"))
	if err != nil {
		fmt.Fprintf(c.Out, "  %s %s: %v\n", tagFail(), path, err)
		return err
	}
	if !ok {
		fmt.Fprintf(c.Out, "  %s %s is not a git working copy\n", tagMiss(), path)
		fmt.Fprintln(c.Out, "         Run without arguments to clone it")
		return fmt.Errorf("module source %s missing", path)
	}
	fmt.Fprintf(c.Out, "  %s module source at %s\n", tagOK(), path)
	return nil
}

func (c *Checker) checkLoaded(module string) error {
	loaded, err := kmod.Loaded(c.Fs, module)
	if err != nil {
		fmt.Fprintf(c.Out, "  %s %v\n", tagWarn(), err)
		return err
	}
	if !loaded {
		fmt.Fprintf(c.Out, "  %s module %s is not loaded\n", tagMiss(), module)
		return fmt.Errorf("module %s not loaded", module)
	}
	fmt.Fprintf(c.Out, "  %s module %s is loaded\n", tagOK(), module)
	return nil
}

func (c *Checker) checkCrontab(ctx context.Context, entry string) error {
	ok, err := crontab.Has(ctx, c.Scheduler, entry)
	if err != nil {
		fmt.Fprintf(c.Out, "  %s %v\n", tagFail(), err)
		return err
	}
	if !ok {
		fmt.Fprintf(c.Out, "  %s %q is not registered\n", tagMiss(), entry)
		return fmt.Errorf("reboot entry missing")
	}
	fmt.Fprintf(c.Out, "  %s %q\n", tagOK(), entry)
	return nil
}

func (c *Checker) lookPath(name string) (string, error) {
	if c.LookPath == nil {
		return exec.LookPath(name)
	}
	return c.LookPath(name)
}

// ParseGitVersion extracts the version from "git --version" output, e.g.
// "git version 2.43.0" or "git version 2.39.3 (Apple Git-146)".
func ParseGitVersion(output string) (*semver.Version, error) {
	fields := strings.Fields(output)
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return nil, fmt.Errorf("unexpected git --version output %q", strings.TrimSpace(output))
	}

	// Keep major.minor.patch only; vendor builds append more components,
	// like "2.41.0.windows.1".
	parts := strings.SplitN(fields[2], ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}

	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, fmt.Errorf("parsing git version %q: %w", fields[2], err)
	}
	return v, nil
}

// AtLeast reports whether v is min or newer.
func AtLeast(v *semver.Version, min string) (bool, error) {
	c, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", min, err)
	}
	return c.Check(v), nil
}
