package orchestrator

import (
	"context"

	"itrun/internal/config"
	"itrun/internal/queue"
	"itrun/internal/readiness"
	"itrun/internal/runner"
	"itrun/pkg/logging"
)

// TestRunner drains a queue against the service. *runner.SequentialRunner implements it.
type TestRunner interface {
	Run(ctx context.Context, q runner.Queue, target runner.Target) (*runner.RunSummary, error)
}

// GateFactory creates the readiness gate for a started service. alive reports
// whether the service process is still running.
type GateFactory func(alive func() bool) (readiness.Gate, error)

// Options configures an Orchestrator.
type Options struct {
	Starter ServiceStarter
	NewGate GateFactory
	Runner  TestRunner
	// Suffix selects test entries, config.DefaultTestSuffix if empty.
	Suffix string
	Target runner.Target
}

// Orchestrator runs the service, the readiness gate and the test runner in order.
type Orchestrator struct {
	starter ServiceStarter
	newGate GateFactory
	runner  TestRunner
	suffix  string
	target  runner.Target
}

// New creates an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = config.DefaultTestSuffix
	}
	newGate := opts.NewGate
	if newGate == nil {
		newGate = func(func() bool) (readiness.Gate, error) {
			return readiness.DelayGate{WarmUp: config.DefaultWarmUp}, nil
		}
	}
	return &Orchestrator{
		starter: opts.Starter,
		newGate: newGate,
		runner:  opts.Runner,
		suffix:  suffix,
		target:  opts.Target,
	}
}

// Run executes the tests in testDir against a freshly started service.
// Setup failures are returned as *FatalSetupError with a nil summary. Once the
// service has started it is terminated before Run returns, whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, testDir string) (*runner.RunSummary, error) {
	logging.Info("Orchestrator", "Starting service for %s", o.target.Address())
	svc, err := o.starter.Start(ctx)
	if err != nil {
		return nil, &FatalSetupError{Stage: StageServiceStart, Err: err}
	}
	defer o.teardown(svc)

	// Fail before the warm-up when there is nothing to run
	if err := queue.CheckDir(testDir); err != nil {
		return nil, &FatalSetupError{Stage: StageDiscovery, Err: err}
	}

	gate, err := o.newGate(func() bool { return !svc.Exited() })
	if err != nil {
		return nil, &FatalSetupError{Stage: StageReadiness, Err: err}
	}
	if err := gate.AwaitReady(ctx); err != nil {
		return nil, &FatalSetupError{Stage: StageReadiness, Err: err}
	}
	logging.Debug("Orchestrator", "Service considered ready")

	q, err := queue.Build(testDir, o.suffix)
	if err != nil {
		return nil, &FatalSetupError{Stage: StageDiscovery, Err: err}
	}
	logging.Info("Orchestrator", "Found %d test(s) matching %q in %s", q.Len(), o.suffix, testDir)

	return o.runner.Run(ctx, q, o.target)
}

// teardown stops the service. Errors are logged and never change the run outcome.
func (o *Orchestrator) teardown(svc Service) {
	logging.Debug("Orchestrator", "Terminating service")
	if err := svc.Terminate(); err != nil {
		logging.Error("Orchestrator", err, "Failed to terminate service")
	}
}
