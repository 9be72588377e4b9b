// Package runner drains a test queue against a running service, one test at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itrun/internal/queue"
	"itrun/pkg/logging"

	"github.com/google/uuid"
)

// ErrRunAborted is wrapped when the runner stops before the queue is exhausted.
var ErrRunAborted = errors.New("test run aborted")

// SequentialRunner dispatches queue entries strictly one after another:
// entry N+1 is never spawned before entry N's subprocess has exited.
type SequentialRunner struct {
	spawner  Spawner
	reporter Reporter
	state    State
	now      func() time.Time
}

// New creates a SequentialRunner. A nil reporter discards progress events.
func New(spawner Spawner, reporter Reporter) *SequentialRunner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &SequentialRunner{
		spawner:  spawner,
		reporter: reporter,
		state:    StateIdle,
		now:      time.Now,
	}
}

// State returns the current state of the runner.
func (r *SequentialRunner) State() State {
	return r.state
}

// Run drains q and returns the summary of every dispatched test.
// A test that fails to launch is recorded as failed and the run continues.
// An invalid entry or a cancelled context aborts the run; the partial summary
// is returned together with an error wrapping ErrRunAborted.
func (r *SequentialRunner) Run(ctx context.Context, q Queue, target Target) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:        uuid.New().String(),
		Target:       target,
		StartTime:    r.now(),
		FailingNames: []string{},
		Results:      []TestRunResult{},
	}

	r.state = StateIdle
	r.reporter.ReportStart(target)

	runErr := r.drain(ctx, q, target, summary)

	r.state = StateDone
	summary.EndTime = r.now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	r.reporter.ReportSummary(*summary)

	return summary, runErr
}

func (r *SequentialRunner) drain(ctx context.Context, q Queue, target Target, summary *RunSummary) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d test(s): %w", ErrRunAborted, summary.Run, err)
		}

		entry, ok := q.Next()
		if !ok {
			logging.Debug("Runner", "Queue exhausted after %d test(s)", summary.Run)
			return nil
		}
		if entry.Path == "" {
			return fmt.Errorf("%w: queue returned an entry without a path (name %q)", ErrRunAborted, entry.Name)
		}

		result := r.runOne(ctx, entry, target)
		summary.record(result)
		r.reporter.ReportTestResult(result)
	}
}

// runOne dispatches a single entry and blocks until its subprocess has exited.
func (r *SequentialRunner) runOne(ctx context.Context, entry queue.TestEntry, target Target) TestRunResult {
	r.state = StateDispatching
	r.reporter.ReportTestStart(entry)

	result := TestRunResult{
		Entry:     entry,
		ExitCode:  -1,
		StartTime: r.now(),
	}

	logging.Debug("Runner", "Dispatching %s", entry.Path)

	proc, err := r.spawner.Spawn(ctx, entry, target)
	if err != nil {
		logging.Error("Runner", err, "Failed to launch %s", entry.Name)
		result.Error = err.Error()
		return r.finish(result)
	}

	r.state = StateAwaitingExit
	code, err := proc.Wait()
	result.ExitCode = code
	if err != nil {
		logging.Error("Runner", err, "Failed to wait for %s", entry.Name)
		result.Error = err.Error()
		return r.finish(result)
	}

	result.Passed = code == 0
	if !result.Passed {
		logging.Debug("Runner", "%s exited with code %d", entry.Name, code)
	}
	return r.finish(result)
}

func (r *SequentialRunner) finish(result TestRunResult) TestRunResult {
	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}

type nopReporter struct{}

func (nopReporter) ReportStart(Target)              {}
func (nopReporter) ReportTestStart(queue.TestEntry) {}
func (nopReporter) ReportTestResult(TestRunResult)  {}
func (nopReporter) ReportSummary(RunSummary)        {}
