package runner

import (
	"context"
	"io"
	"strings"
)

// Call is a command seen by a Recorder.
type Call struct {
	Line  string // argv joined by spaces, prefixed with "sudo " when elevated
	Dir   string
	Input string
}

// Recorder is a Runner that records commands without executing them.
// Outputs and Errors are keyed by the argv joined with spaces, without any
// elevation prefix.
type Recorder struct {
	Calls   []Call
	Outputs map[string]string
	Errors  map[string]error
}

func (r *Recorder) Run(ctx context.Context, cmd Command) error {
	_, err := r.Output(ctx, cmd)
	return err
}

func (r *Recorder) Output(_ context.Context, cmd Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	key := strings.Join(cmd.Argv, " ")
	call := Call{Line: key, Dir: cmd.Dir}
	if cmd.Elevated {
		call.Line = "sudo " + key
	}
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return nil, err
		}
		call.Input = string(data)
	}
	r.Calls = append(r.Calls, call)

	if err := r.Errors[key]; err != nil {
		return nil, err
	}
	return []byte(r.Outputs[key]), nil
}

// Lines returns the recorded command lines in order.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = c.Line
	}
	return lines
}
