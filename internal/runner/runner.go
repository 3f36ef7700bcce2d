package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// ErrEmptyCommand is returned when a command has no program name. It is
// detected before anything is spawned.
var ErrEmptyCommand = errors.New("empty command")

// Runner runs external commands to completion.
type Runner interface {
	// Run executes cmd, streaming its output to the runner's writers.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// Command describes a single external program invocation.
type Command struct {
	Argv     []string
	Dir      string    // working directory; empty means the caller's
	Elevated bool      // run with superuser privileges
	Stdin    io.Reader // optional input
}

// Cmd is a shorthand for an unprivileged command.
func Cmd(argv ...string) Command {
	return Command{Argv: argv}
}

// Sudo is a shorthand for an elevated command.
func Sudo(argv ...string) Command {
	return Command{Argv: argv, Elevated: true}
}

// In returns a copy of c that runs in dir.
func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

// String returns the shell-quoted argv, without any elevation prefix.
func (c Command) String() string {
	return shellescape.QuoteCommand(c.Argv)
}

// Validate rejects commands without a program name.
func (c Command) Validate() error {
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		return ErrEmptyCommand
	}
	return nil
}

// ExpandArgv returns the argv that is actually executed. Elevated commands
// are prefixed with the sudo program unless sudo is empty.
func (c Command) ExpandArgv(sudo string) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.Elevated || sudo == "" {
		return c.Argv, nil
	}
	argv := make([]string, 0, len(c.Argv)+1)
	argv = append(argv, sudo)
	return append(argv, c.Argv...), nil
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr string // captured standard error, only set by Output
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", shellescape.QuoteCommand(e.Argv), e.Code)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
