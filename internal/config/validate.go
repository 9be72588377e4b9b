package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that the configuration can drive a run.
// All problems are reported together.
func (c RunnerConfig) Validate() error {
	var errs []error

	if len(c.Service.Command) == 0 || strings.TrimSpace(c.Service.Command[0]) == "" {
		errs = append(errs, fmt.Errorf("service.command must name an executable"))
	}
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service.port must be between 1 and 65535, got %d", c.Service.Port))
	}
	if c.Service.LogLevel < 0 || c.Service.LogLevel > 5 {
		errs = append(errs, fmt.Errorf("service.logLevel must be between 0 and 5, got %d", c.Service.LogLevel))
	}
	if c.Service.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("service.shutdownTimeout must not be negative"))
	}

	switch c.Readiness.Mode {
	case ReadinessDelay:
		if c.Readiness.WarmUp < 0 {
			errs = append(errs, fmt.Errorf("readiness.warmUp must not be negative"))
		}
	case ReadinessProbe:
		if c.Readiness.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("readiness.timeout must be positive in probe mode"))
		}
		if c.Readiness.InitialBackoff <= 0 {
			errs = append(errs, fmt.Errorf("readiness.initialBackoff must be positive in probe mode"))
		}
		if c.Readiness.MaxBackoff < c.Readiness.InitialBackoff {
			errs = append(errs, fmt.Errorf("readiness.maxBackoff must not be lower than readiness.initialBackoff"))
		}
	default:
		errs = append(errs, fmt.Errorf("readiness.mode must be %q or %q, got %q", ReadinessDelay, ReadinessProbe, c.Readiness.Mode))
	}

	if strings.TrimSpace(c.Tests.Suffix) == "" {
		errs = append(errs, fmt.Errorf("tests.suffix must not be empty"))
	}
	if len(c.Tests.Runner) == 0 || strings.TrimSpace(c.Tests.Runner[0]) == "" {
		errs = append(errs, fmt.Errorf("tests.runner must name an executable"))
	}
	if !strings.Contains(c.Tests.PortFlag, "%d") {
		errs = append(errs, fmt.Errorf("tests.portFlag must contain %%d, got %q", c.Tests.PortFlag))
	}

	switch c.Output {
	case OutputText, OutputQuiet, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output must be text, quiet or json, got %q", c.Output))
	}

	return errors.Join(errs...)
}
