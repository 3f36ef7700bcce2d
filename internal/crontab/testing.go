package crontab

import "context"

// Memory is an in-memory Scheduler. Writes counts calls to Replace.
type Memory struct {
	Lines  []string
	Writes int
}

func (m *Memory) List(context.Context) ([]string, error) {
	return m.Lines, nil
}

func (m *Memory) Replace(_ context.Context, lines []string) error {
	m.Lines = lines
	m.Writes++
	return nil
}
