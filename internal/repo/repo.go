package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// ErrNotCloned is returned when syncing a path that holds no repository.
var ErrNotCloned = errors.New("repository not cloned")

// Source is a module source repository that can be materialized at a path.
type Source interface {
	// EnsureClonedAt clones the remote into path unless path exists. It
	// reports whether a clone happened.
	EnsureClonedAt(ctx context.Context, path string) (bool, error)
	// SyncToRemoteDefault discards local state at path and checks out the
	// tip of the remote's default branch.
	SyncToRemoteDefault(ctx context.Context, path string) error
}

// Git is the Source backed by the git program. Commands run unprivileged,
// each with its working directory set explicitly.
//
// Commands inside an existing working copy pass -c safe.directory=<path>:
// the reboot run is root and the checkout belongs to the user, which git
// otherwise refuses with "detected dubious ownership".
type Git struct {
	URL    string
	Remote string // defaults to "origin"
	Runner runner.Runner
	Fs     afero.Fs

	cloned map[string]bool
}

// New returns a Git source for url.
func New(url string, r runner.Runner, fs afero.Fs) *Git {
	return &Git{URL: url, Remote: "origin", Runner: r, Fs: fs}
}

// EnsureClonedAt implements Source.
func (g *Git) EnsureClonedAt(ctx context.Context, path string) (bool, error) {
	exists, err := afero.Exists(g.Fs, path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if exists {
		return false, nil
	}

	if err := g.Runner.Run(ctx, runner.Cmd("git", "clone", g.URL, path)); err != nil {
		return false, fmt.Errorf("cloning %s: %w", g.URL, err)
	}
	if g.cloned == nil {
		g.cloned = make(map[string]bool)
	}
	g.cloned[path] = true
	return true, nil
}

// SyncToRemoteDefault implements Source.
func (g *Git) SyncToRemoteDefault(ctx context.Context, path string) error {
	// A directory that is not a working copy itself may still sit inside
	// another repository, which reset and clean would then wipe.
	if ok, err := g.IsCloned(path); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotCloned)
	}

	steps := []struct {
		what string
		argv []string
	}{
		{"fetching", []string{"fetch", g.remote()}},
		{"resetting", []string{"reset", "--hard", "HEAD"}},
		{"cleaning", []string{"clean", "-fd"}},
	}
	for _, s := range steps {
		if err := g.Runner.Run(ctx, g.in(path, s.argv...)); err != nil {
			return fmt.Errorf("%s %s: %w", s.what, path, err)
		}
	}

	branch, err := g.DefaultBranch(ctx, path)
	if err != nil {
		return err
	}

	if err := g.Runner.Run(ctx, g.in(path, "checkout", "--force", branch)); err != nil {
		return fmt.Errorf("checking out %s: %w", branch, err)
	}
	return nil
}

// DefaultBranch returns the remote-tracking ref of the remote's default
// branch, e.g. "origin/master". If the remote HEAD is not known locally it is
// queried from the remote first.
func (g *Git) DefaultBranch(ctx context.Context, path string) (string, error) {
	headRef := "refs/remotes/" + g.remote() + "/HEAD"
	symref := g.in(path, "symbolic-ref", "--short", headRef)

	out, err := g.Runner.Output(ctx, symref)
	if err != nil {
		setHead := g.in(path, "remote", "set-head", g.remote(), "--auto")
		if err := g.Runner.Run(ctx, setHead); err != nil {
			return "", fmt.Errorf("resolving default branch of %s: %w", g.remote(), err)
		}
		if out, err = g.Runner.Output(ctx, symref); err != nil {
			return "", fmt.Errorf("resolving default branch of %s: %w", g.remote(), err)
		}
	}

	branch := strings.TrimSpace(string(out))
	if branch == "" {
		// Dry runs produce no output; the symbolic ref still names the tip.
		return g.remote() + "/HEAD", nil
	}
	return branch, nil
}

// Head returns the abbreviated commit checked out at path.
func (g *Git) Head(ctx context.Context, path string) (string, error) {
	out, err := g.Runner.Output(ctx, g.in(path, "rev-parse", "--short", "HEAD"))
	if err != nil {
		return "", fmt.Errorf("reading HEAD of %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsCloned reports whether path looks like a git working copy.
func (g *Git) IsCloned(path string) (bool, error) {
	if g.cloned[path] {
		return true, nil
	}
	ok, err := afero.Exists(g.Fs, filepath.Join(path, ".git"))
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return ok, nil
}

// in returns the git command args running inside the working copy at path.
func (g *Git) in(path string, args ...string) runner.Command {
	argv := append([]string{"git", "-c", "safe.directory=" + SafeDirectory(path)}, args...)
	return runner.Cmd(argv...).In(path)
}

// SafeDirectory returns the form of path git matches safe.directory against:
// absolute, with symlinks resolved when path exists.
func SafeDirectory(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	return path
}

func (g *Git) remote() string {
	if g.Remote == "" {
		return "origin"
	}
	return g.Remote
}
