package runner

import (
	"context"
	"fmt"
	"io"

	"al.essio.dev/pkg/shellescape"
)

// DryRun prints commands instead of executing them. Output always returns
// empty output.
type DryRun struct {
	Out  io.Writer
	Sudo string
}

func (d *DryRun) Run(_ context.Context, cmd Command) error {
	return d.print(cmd)
}

func (d *DryRun) Output(_ context.Context, cmd Command) ([]byte, error) {
	return nil, d.print(cmd)
}

func (d *DryRun) print(cmd Command) error {
	argv, err := cmd.ExpandArgv(d.Sudo)
	if err != nil {
		return err
	}

	line := shellescape.QuoteCommand(argv)
	if cmd.Dir != "" {
		line = fmt.Sprintf("(cd %s && %s)", shellescape.Quote(cmd.Dir), line)
	}
	if cmd.Stdin != nil {
		line += " < (stdin)"
	}

	_, err = fmt.Fprintf(d.Out, "+ %s\n", line)
	return err
}
