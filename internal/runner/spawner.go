package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"itrun/internal/process"
	"itrun/internal/queue"
)

// CommandSpawner runs each test as `<Runner...> <entry path> <PortFlag> [HostFlag]`,
// e.g. `mongo tests/insert.js --port=8000`.
type CommandSpawner struct {
	Runner   []string
	PortFlag string
	HostFlag string
	Dir      string
	Env      []string
	Stdout   io.Writer
	Stderr   io.Writer
	// LogDir, when set, receives a <test name>.log file per test.
	LogDir string
}

// Args returns the argument list passed to Runner[0] for entry.
func (s *CommandSpawner) Args(entry queue.TestEntry, target Target) []string {
	args := append([]string(nil), s.Runner[1:]...)
	args = append(args, entry.Path)
	if s.PortFlag != "" {
		args = append(args, fmt.Sprintf(s.PortFlag, target.Port))
	}
	if s.HostFlag != "" {
		args = append(args, fmt.Sprintf(s.HostFlag, target.Host))
	}
	return args
}

// Spawn implements Spawner.
func (s *CommandSpawner) Spawn(ctx context.Context, entry queue.TestEntry, target Target) (Process, error) {
	if len(s.Runner) == 0 || strings.TrimSpace(s.Runner[0]) == "" {
		return nil, fmt.Errorf("%w: no test runner configured", process.ErrSpawn)
	}

	opts := process.Options{
		Name:   entry.Name,
		Dir:    s.Dir,
		Env:    s.Env,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
	if s.LogDir != "" {
		opts.LogFile = filepath.Join(s.LogDir, entry.Name+".log")
	}

	h, err := process.Spawn(ctx, s.Runner[0], s.Args(entry, target), opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}
