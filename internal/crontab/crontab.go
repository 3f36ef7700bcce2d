// Package crontab keeps the reboot entry in the superuser's crontab.
package crontab

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

// Scheduler reads and replaces a scheduled-task table.
type Scheduler interface {
	List(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, lines []string) error
}

// Entry returns the reboot line that runs bin with args.
func Entry(bin string, args ...string) string {
	return "@reboot " + strings.Join(append([]string{bin}, args...), " ")
}

// Ensure returns lines with entry appended, unless a line already equals
// entry exactly. The boolean reports whether entry was appended.
func Ensure(lines []string, entry string) ([]string, bool) {
	if slices.Contains(lines, entry) {
		return lines, false
	}
	return append(slices.Clone(lines), entry), true
}

// Register makes sure entry is present exactly once in the table of s. The
// table is only written when entry was missing.
func Register(ctx context.Context, s Scheduler, entry string) (bool, error) {
	lines, err := s.List(ctx)
	if err != nil {
		return false, fmt.Errorf("listing crontab: %w", err)
	}

	lines, added := Ensure(lines, entry)
	if !added {
		return false, nil
	}

	if err := s.Replace(ctx, lines); err != nil {
		return false, fmt.Errorf("writing crontab: %w", err)
	}
	return true, nil
}

// Has reports whether the table of s contains entry.
func Has(ctx context.Context, s Scheduler, entry string) (bool, error) {
	lines, err := s.List(ctx)
	if err != nil {
		return false, fmt.Errorf("listing crontab: %w", err)
	}
	return slices.Contains(lines, entry), nil
}

// Format renders lines as crontab content. crontab requires a newline
// before EOF.
func Format(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Parse splits crontab content into lines.
func Parse(content string) []string {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// Crontab is the Scheduler backed by the crontab(1) program, run elevated so
// it edits the superuser's table.
type Crontab struct {
	Runner runner.Runner
}

// New returns a Crontab that runs through r.
func New(r runner.Runner) *Crontab {
	return &Crontab{Runner: r}
}

// List returns the current table. A missing table is an empty one.
func (c *Crontab) List(ctx context.Context) ([]string, error) {
	out, err := c.Runner.Output(ctx, runner.Sudo("crontab", "-l"))
	if err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) && strings.Contains(exitErr.Stderr, "no crontab for") {
			return nil, nil
		}
		return nil, err
	}
	return Parse(string(out)), nil
}

// Replace installs lines as the new table, fed to "crontab -" over stdin.
func (c *Crontab) Replace(ctx context.Context, lines []string) error {
	cmd := runner.Sudo("crontab", "-")
	cmd.Stdin = strings.NewReader(Format(lines))
	return c.Runner.Run(ctx, cmd)
}
