package orchestrator

import (
	"errors"
	"fmt"

	"itrun/internal/exitcodes"
	"itrun/internal/runner"
)

// Stage names the setup step that failed.
type Stage string

const (
	StageServiceStart Stage = "service start"
	StageReadiness    Stage = "readiness"
	StageDiscovery    Stage = "test discovery"
)

// FatalSetupError aborts the run before any test is dispatched.
type FatalSetupError struct {
	Stage Stage
	Err   error
}

func (e *FatalSetupError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *FatalSetupError) Unwrap() error {
	return e.Err
}

// IsFatalSetupError reports whether err is, or wraps, a *FatalSetupError.
func IsFatalSetupError(err error) bool {
	var fatal *FatalSetupError
	return errors.As(err, &fatal)
}

// ExitCode converts the result of Run into a process exit status.
// It is exitcodes.Success if and only if there is no error and no test failed.
func ExitCode(summary *runner.RunSummary, err error) int {
	if err != nil || summary == nil {
		return exitcodes.RuntimeErr
	}
	if summary.Failed > 0 {
		return exitcodes.TestFailure
	}
	return exitcodes.Success
}
