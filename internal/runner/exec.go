package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Exec runs commands with os/exec.
type Exec struct {
	// Sudo is the program used for elevated commands, usually "sudo".
	// When empty, elevated commands run without a prefix.
	Sudo string

	// Stdout and Stderr can be set for testing; defaults to os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

// stderrTail is how much of a streamed command's standard error is kept
// for its *ExitError.
const stderrTail = 4 << 10

// Run executes cmd and waits for it. Output is streamed; the end of standard
// error is also kept and attached to the returned *ExitError.
func (e *Exec) Run(ctx context.Context, cmd Command) error {
	c, argv, err := e.command(ctx, cmd)
	if err != nil {
		return err
	}

	tail := &tailBuffer{max: stderrTail}
	c.Stdout = e.stdout()
	c.Stderr = io.MultiWriter(e.stderr(), tail)

	return wrapExitError(argv, c.Run(), tail.String())
}

// Output executes cmd and returns what it wrote to standard output. Standard
// error is captured and attached to the returned *ExitError.
func (e *Exec) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c, argv, err := e.command(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err = c.Run()

	return stdout.Bytes(), wrapExitError(argv, err, stderr.String())
}

func (e *Exec) command(ctx context.Context, cmd Command) (*exec.Cmd, []string, error) {
	argv, err := cmd.ExpandArgv(e.Sudo)
	if err != nil {
		return nil, nil, err
	}

	e.logger().Debug("exec", "cmd", shellescape.QuoteCommand(argv), "dir", cmd.Dir)

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin

	return c, argv, nil
}

func (e *Exec) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Exec) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Exec) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func wrapExitError(argv []string, err error, stderr string) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Argv:   argv,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr),
			Err:    err,
		}
	}

	return fmt.Errorf("%s: %w", shellescape.QuoteCommand(argv), err)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
