package runner

import (
	"context"
	"net"
	"strconv"
	"time"

	"itrun/internal/queue"
)

// State is a SequentialRunner state.
type State int

const (
	// StateIdle is the state before the first entry is requested.
	StateIdle State = iota
	// StateDispatching means a test subprocess is being launched.
	StateDispatching
	// StateAwaitingExit means the runner is blocked on the current test subprocess.
	StateAwaitingExit
	// StateDone means the queue is exhausted or the run was aborted.
	StateDone
)

// String makes State satisfy the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDispatching:
		return "Dispatching"
	case StateAwaitingExit:
		return "AwaitingExit"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Target is the address of the running service that every test connects to.
type Target struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// TestRunResult is the outcome of one dispatched test.
type TestRunResult struct {
	Entry     queue.TestEntry `json:"entry"`
	ExitCode  int             `json:"exit_code"`
	Passed    bool            `json:"passed"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Duration  time.Duration   `json:"duration"`
	// Error is set when the test could not be launched or awaited.
	Error string `json:"error,omitempty"`
}

// RunSummary aggregates every TestRunResult of one invocation.
type RunSummary struct {
	RunID        string          `json:"run_id"`
	Target       Target          `json:"target"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Duration     time.Duration   `json:"duration"`
	Run          int             `json:"run"`
	Failed       int             `json:"failed"`
	FailingNames []string        `json:"failing_names"`
	Results      []TestRunResult `json:"results"`
}

// Passed reports whether no dispatched test failed.
func (s *RunSummary) Passed() bool {
	return s.Failed == 0
}

// record appends a result and updates the counters.
func (s *RunSummary) record(result TestRunResult) {
	s.Results = append(s.Results, result)
	s.Run++
	if !result.Passed {
		s.Failed++
		s.FailingNames = append(s.FailingNames, result.Entry.Name)
	}
}

// Queue yields test entries in order until it returns false.
type Queue interface {
	Next() (queue.TestEntry, bool)
}

// Process is a launched test subprocess.
type Process interface {
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Spawner launches the subprocess for one test entry.
type Spawner interface {
	Spawn(ctx context.Context, entry queue.TestEntry, target Target) (Process, error)
}

// Reporter receives progress events from the runner.
type Reporter interface {
	// ReportStart is called once before the first entry is requested
	ReportStart(target Target)
	// ReportTestStart is called right before a test is dispatched
	ReportTestStart(entry queue.TestEntry)
	// ReportTestResult is called when a test has exited or failed to launch
	ReportTestResult(result TestRunResult)
	// ReportSummary is called once the run is finished
	ReportSummary(summary RunSummary)
}
