package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"itrun/pkg/logging"
)

// ErrSpawn is wrapped by every error returned from Spawn.
var ErrSpawn = errors.New("failed to spawn process")

const defaultShutdownTimeout = 10 * time.Second

// Options controls how a process is launched.
type Options struct {
	// Name identifies the process in logs; defaults to the command.
	Name string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the orchestrator's own environment.
	Env []string
	// Stdout and Stderr default to os.Stdout and os.Stderr, so the child
	// inherits the orchestrator's streams.
	Stdout io.Writer
	Stderr io.Writer
	// LogFile, when set, additionally receives both streams with ANSI escapes removed.
	LogFile string
	// ShutdownTimeout is the grace period between SIGTERM and SIGKILL.
	ShutdownTimeout time.Duration
}

// Handle is a running or exited child process.
type Handle struct {
	name            string
	cmd             *exec.Cmd
	logFile         *LogFile
	shutdownTimeout time.Duration

	done     chan struct{}
	exitCode int
	waitErr  error

	mu         sync.Mutex
	terminated bool
}

// Spawn starts command with args and returns immediately.
// A command that cannot be found or started is reported as an error wrapping ErrSpawn.
func Spawn(ctx context.Context, command string, args []string, opts Options) (*Handle, error) {
	name := opts.Name
	if name == "" {
		name = command
	}

	path, err := exec.LookPath(resolveCommand(command, opts.Dir))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	configureProcessGroup(cmd)

	h := &Handle{
		name:            name,
		cmd:             cmd,
		shutdownTimeout: opts.ShutdownTimeout,
		done:            make(chan struct{}),
		exitCode:        -1,
	}
	if h.shutdownTimeout <= 0 {
		h.shutdownTimeout = defaultShutdownTimeout
	}
	// CommandContext would otherwise only send SIGKILL to the direct child.
	cmd.Cancel = func() error { return h.signal(syscall.SIGTERM) }
	cmd.WaitDelay = h.shutdownTimeout

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	if opts.LogFile != "" {
		logFile, err := OpenLogFile(opts.LogFile)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrSpawn, name, err)
		}
		h.logFile = logFile
		stdout = io.MultiWriter(stdout, logFile)
		stderr = io.MultiWriter(stderr, logFile)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logging.Debug("Process", "Starting %s: %s %v", name, path, args)

	if err := cmd.Start(); err != nil {
		h.closeLogFile()
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, name, err)
	}

	logging.Debug("Process", "Started %s (PID: %d)", name, cmd.Process.Pid)

	go h.reap()

	return h, nil
}

// resolveCommand makes a relative command path such as ./server absolute
// against dir, where the child will run. Bare names are left for PATH lookup.
func resolveCommand(command, dir string) string {
	if dir == "" || filepath.IsAbs(command) || !strings.ContainsAny(command, `/`+string(filepath.Separator)) {
		return command
	}
	resolved, err := filepath.Abs(filepath.Join(dir, command))
	if err != nil {
		return command
	}
	return resolved
}

// reap waits for the child exactly once and records its outcome.
func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.closeLogFile()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		h.exitCode = 0
	case errors.As(err, &exitErr):
		h.exitCode = exitErr.ExitCode()
		if h.exitCode < 0 {
			// Killed by a signal; report the conventional 128+signal code.
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				h.exitCode = 128 + int(status.Signal())
			}
		}
	default:
		h.waitErr = err
	}

	logging.Debug("Process", "%s exited with code %d", h.name, h.exitCode)
	close(h.done)
}

func (h *Handle) closeLogFile() {
	if h.logFile == nil {
		return
	}
	if err := h.logFile.Close(); err != nil {
		logging.Warn("Process", "Failed to close log file for %s: %v", h.name, err)
	}
}

// Wait blocks until the process exits and returns its exit code.
// The error is non-nil only when the exit status could not be determined.
// Wait may be called any number of times.
func (h *Handle) Wait() (int, error) {
	<-h.done
	if h.waitErr != nil {
		return -1, fmt.Errorf("waiting for %s: %w", h.name, h.waitErr)
	}
	return h.exitCode, nil
}

// Done is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the process has exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Pid returns the operating system process ID.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Name returns the display name given at spawn time.
func (h *Handle) Name() string {
	return h.name
}

// Terminate asks the process to stop, escalating to SIGKILL after the
// shutdown timeout. Terminating an exited process is a no-op.
func (h *Handle) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated || h.Exited() {
		h.terminated = true
		return nil
	}
	h.terminated = true

	logging.Debug("Process", "Terminating %s (PID: %d)", h.name, h.Pid())

	if err := h.signal(syscall.SIGTERM); err != nil {
		if h.Exited() {
			return nil
		}
		logging.Debug("Process", "SIGTERM failed for %s, using SIGKILL: %v", h.name, err)
		return h.kill()
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(h.shutdownTimeout):
		logging.Warn("Process", "Graceful shutdown timeout for %s, forcing kill", h.name)
		return h.kill()
	}
}

func (h *Handle) kill() error {
	if err := h.signal(syscall.SIGKILL); err != nil && !h.Exited() {
		return fmt.Errorf("failed to kill %s: %w", h.name, err)
	}
	<-h.done
	return nil
}
