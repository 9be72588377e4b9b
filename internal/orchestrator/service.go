package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"itrun/internal/config"
	"itrun/internal/process"
)

// Service is the running service under test.
type Service interface {
	// Exited reports whether the service process has already exited.
	Exited() bool
	// Terminate stops the service. Calling it more than once is safe.
	Terminate() error
}

// ServiceStarter launches the service under test.
type ServiceStarter interface {
	Start(ctx context.Context) (Service, error)
}

// ProcessServiceStarter starts the service as a child process built from
// config.ServiceConfig, e.g. `go run main/test-server.go -port=8000 -logLevel=1`.
type ProcessServiceStarter struct {
	Config config.ServiceConfig
	// Env is appended to the inherited environment.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
	// LogDir, when set, receives service.log.
	LogDir string
}

// Args returns the argument list passed to Config.Command[0].
func (s *ProcessServiceStarter) Args() []string {
	var args []string
	if len(s.Config.Command) > 1 {
		args = append(args, s.Config.Command[1:]...)
	}
	args = append(args, s.Config.Args...)
	if s.Config.PortFlag != "" {
		args = append(args, fmt.Sprintf(s.Config.PortFlag, s.Config.Port))
	}
	if s.Config.LogLevelFlag != "" {
		args = append(args, fmt.Sprintf(s.Config.LogLevelFlag, s.Config.LogLevel))
	}
	return args
}

// Start implements ServiceStarter.
func (s *ProcessServiceStarter) Start(ctx context.Context) (Service, error) {
	if len(s.Config.Command) == 0 {
		return nil, fmt.Errorf("%w: no service command configured", process.ErrSpawn)
	}

	opts := process.Options{
		Name:            "service",
		Dir:             s.Config.Dir,
		Env:             s.Env,
		Stdout:          s.Stdout,
		Stderr:          s.Stderr,
		ShutdownTimeout: s.Config.ShutdownTimeout,
	}
	if s.LogDir != "" {
		opts.LogFile = filepath.Join(s.LogDir, "service.log")
	}

	h, err := process.Spawn(ctx, s.Config.Command[0], s.Args(), opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}
