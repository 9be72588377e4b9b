package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"itrun/internal/config"
	"itrun/internal/exitcodes"
	"itrun/internal/process"
	"itrun/internal/queue"
	"itrun/internal/readiness"
	"itrun/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStarter struct {
	mock.Mock
}

func (m *mockStarter) Start(ctx context.Context) (Service, error) {
	args := m.Called(ctx)
	svc, _ := args.Get(0).(Service)
	return svc, args.Error(1)
}

type fakeService struct {
	terminations atomic.Int32
	exited       atomic.Bool
	terminateErr error
}

func (s *fakeService) Exited() bool { return s.exited.Load() }

func (s *fakeService) Terminate() error {
	s.terminations.Add(1)
	s.exited.Store(true)
	return s.terminateErr
}

type gateFunc func(ctx context.Context) error

func (f gateFunc) AwaitReady(ctx context.Context) error { return f(ctx) }

func readyGate(func() bool) (readiness.Gate, error) {
	return gateFunc(func(context.Context) error { return nil }), nil
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, q runner.Queue, target runner.Target) (*runner.RunSummary, error) {
	args := m.Called(q, target)
	summary, _ := args.Get(0).(*runner.RunSummary)
	return summary, args.Error(1)
}

// codeSpawner exits every test immediately with a per-name code.
type codeSpawner struct {
	codes      map[string]int
	dispatched []string
	svc        *fakeService
}

type exitedProcess int

func (p exitedProcess) Wait() (int, error) { return int(p), nil }

func (s *codeSpawner) Spawn(_ context.Context, entry queue.TestEntry, _ runner.Target) (runner.Process, error) {
	if s.svc != nil && s.svc.Exited() {
		return nil, errors.New("service terminated before test dispatch")
	}
	s.dispatched = append(s.dispatched, entry.Name)
	return exitedProcess(s.codes[entry.Name]), nil
}

var target = runner.Target{Host: "localhost", Port: 8000}

func testDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("exit 0\n"), 0644))
	}
	return dir
}

func startedService(svc *fakeService) *mockStarter {
	starter := &mockStarter{}
	starter.On("Start", mock.Anything).Return(svc, nil).Once()
	return starter
}

func TestRun_MixedResults(t *testing.T) {
	svc := &fakeService{}
	spawner := &codeSpawner{codes: map[string]int{"a.js": 0, "c.js": 1}, svc: svc}

	o := New(Options{
		Starter: startedService(svc),
		NewGate: readyGate,
		Runner:  runner.New(spawner, nil),
		Suffix:  ".js",
		Target:  target,
	})

	summary, err := o.Run(context.Background(), testDir(t, "a.js", "b.mongo", "c.js"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.js", "c.js"}, spawner.dispatched)
	assert.Equal(t, 2, summary.Run)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"c.js"}, summary.FailingNames)
	assert.Equal(t, int32(1), svc.terminations.Load())
	assert.Equal(t, exitcodes.TestFailure, ExitCode(summary, err))
}

func TestRun_AllPassed(t *testing.T) {
	svc := &fakeService{}
	spawner := &codeSpawner{svc: svc}

	o := New(Options{Starter: startedService(svc), NewGate: readyGate, Runner: runner.New(spawner, nil), Target: target})

	summary, err := o.Run(context.Background(), testDir(t, "a.js", "b.js"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Run)
	assert.Equal(t, exitcodes.Success, ExitCode(summary, err))
	assert.Equal(t, int32(1), svc.terminations.Load())
}

func TestRun_DirectoryMissingIsFatalAndTerminatesService(t *testing.T) {
	svc := &fakeService{}
	r := &mockRunner{}

	o := New(Options{Starter: startedService(svc), NewGate: readyGate, Runner: r, Target: target})

	summary, err := o.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Nil(t, summary)

	var fatal *FatalSetupError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, StageDiscovery, fatal.Stage)
	assert.ErrorIs(t, err, queue.ErrDirectoryNotFound)
	assert.True(t, IsFatalSetupError(err))

	r.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.Equal(t, int32(1), svc.terminations.Load())
	assert.Equal(t, exitcodes.RuntimeErr, ExitCode(summary, err))
}

func TestRun_DirectoryMissingSkipsWarmUp(t *testing.T) {
	svc := &fakeService{}
	gateCreated := false

	o := New(Options{
		Starter: startedService(svc),
		NewGate: func(func() bool) (readiness.Gate, error) {
			gateCreated = true
			return readiness.DelayGate{WarmUp: 10 * time.Second}, nil
		},
		Runner: &mockRunner{},
		Target: target,
	})

	start := time.Now()
	_, err := o.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, queue.ErrDirectoryNotFound)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, gateCreated, "readiness is not awaited without a test directory")
	assert.Equal(t, int32(1), svc.terminations.Load())
}

func TestRun_ServiceStartFailure(t *testing.T) {
	starter := &mockStarter{}
	starter.On("Start", mock.Anything).Return(nil, process.ErrSpawn).Once()
	gateCalled := false

	o := New(Options{
		Starter: starter,
		NewGate: func(func() bool) (readiness.Gate, error) {
			gateCalled = true
			return nil, nil
		},
		Runner: &mockRunner{},
		Target: target,
	})

	summary, err := o.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Nil(t, summary)

	var fatal *FatalSetupError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, StageServiceStart, fatal.Stage)
	assert.ErrorIs(t, err, process.ErrSpawn)
	assert.False(t, gateCalled)
	starter.AssertExpectations(t)
}

func TestRun_ReadinessFailure(t *testing.T) {
	svc := &fakeService{}
	r := &mockRunner{}

	o := New(Options{
		Starter: startedService(svc),
		NewGate: func(func() bool) (readiness.Gate, error) {
			return gateFunc(func(context.Context) error {
				return readiness.ErrServiceNotReady
			}), nil
		},
		Runner: r,
		Target: target,
	})

	_, err := o.Run(context.Background(), testDir(t, "a.js"))
	var fatal *FatalSetupError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, StageReadiness, fatal.Stage)
	assert.ErrorIs(t, err, readiness.ErrServiceNotReady)
	r.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.Equal(t, int32(1), svc.terminations.Load())
}

func TestRun_GateFactoryError(t *testing.T) {
	svc := &fakeService{}
	o := New(Options{
		Starter: startedService(svc),
		NewGate: func(func() bool) (readiness.Gate, error) {
			return nil, errors.New("unknown readiness mode")
		},
		Runner: &mockRunner{},
		Target: target,
	})

	_, err := o.Run(context.Background(), t.TempDir())
	assert.True(t, IsFatalSetupError(err))
	assert.Equal(t, int32(1), svc.terminations.Load())
}

func TestRun_GateSeesServiceLiveness(t *testing.T) {
	svc := &fakeService{}
	var alive func() bool

	o := New(Options{
		Starter: startedService(svc),
		NewGate: func(a func() bool) (readiness.Gate, error) {
			alive = a
			return gateFunc(func(context.Context) error { return nil }), nil
		},
		Runner: runner.New(&codeSpawner{}, nil),
		Target: target,
	})

	_, err := o.Run(context.Background(), testDir(t))
	require.NoError(t, err)
	require.NotNil(t, alive)
	assert.False(t, alive(), "service is terminated after Run")
}

func TestRun_RunnerErrorStillTerminatesService(t *testing.T) {
	svc := &fakeService{}
	partial := &runner.RunSummary{Run: 1}
	r := &mockRunner{}
	r.On("Run", mock.Anything, target).Return(partial, runner.ErrRunAborted).Once()

	o := New(Options{Starter: startedService(svc), NewGate: readyGate, Runner: r, Target: target})

	summary, err := o.Run(context.Background(), testDir(t, "a.js"))
	assert.ErrorIs(t, err, runner.ErrRunAborted)
	assert.False(t, IsFatalSetupError(err))
	assert.Same(t, partial, summary)
	assert.Equal(t, int32(1), svc.terminations.Load())
	assert.Equal(t, exitcodes.RuntimeErr, ExitCode(summary, err))
	r.AssertExpectations(t)
}

func TestRun_TeardownErrorDoesNotChangeResult(t *testing.T) {
	svc := &fakeService{terminateErr: errors.New("signal: operation not permitted")}
	o := New(Options{Starter: startedService(svc), NewGate: readyGate, Runner: runner.New(&codeSpawner{}, nil), Target: target})

	summary, err := o.Run(context.Background(), testDir(t, "a.js"))
	require.NoError(t, err)
	assert.Equal(t, exitcodes.Success, ExitCode(summary, err))
	assert.Equal(t, int32(1), svc.terminations.Load())
}

func TestRun_DefaultSuffixAndGate(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.MatchedBy(func(q runner.Queue) bool {
		return q.(*queue.Queue).Len() == 1
	}), target).Return(&runner.RunSummary{Run: 1}, nil).Once()

	o := New(Options{Starter: startedService(&fakeService{}), Runner: r, Target: target})
	assert.Equal(t, config.DefaultTestSuffix, o.suffix)

	gate, err := o.newGate(func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, readiness.DelayGate{WarmUp: config.DefaultWarmUp}, gate)

	o.newGate = readyGate
	_, err = o.Run(context.Background(), testDir(t, "a.js", "b.txt"))
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitcodes.Success, ExitCode(&runner.RunSummary{}, nil))
	assert.Equal(t, exitcodes.Success, ExitCode(&runner.RunSummary{Run: 3}, nil))
	assert.Equal(t, exitcodes.TestFailure, ExitCode(&runner.RunSummary{Run: 3, Failed: 1}, nil))
	assert.Equal(t, exitcodes.RuntimeErr, ExitCode(nil, nil))
	assert.Equal(t, exitcodes.RuntimeErr, ExitCode(nil, &FatalSetupError{Stage: StageDiscovery, Err: queue.ErrDirectoryNotFound}))
}

func TestFatalSetupError_Message(t *testing.T) {
	err := &FatalSetupError{Stage: StageServiceStart, Err: errors.New("exec: \"go\": not found")}
	assert.Equal(t, "service start failed: exec: \"go\": not found", err.Error())
}

func TestRun_WithRealProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}

	dir := t.TempDir()
	tests := filepath.Join(dir, "tests")
	require.NoError(t, os.Mkdir(tests, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tests, "a.js"), []byte("exit 0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tests, "c.js"), []byte("exit 3\n"), 0644))

	pidFile := filepath.Join(dir, "service.pid")
	starter := &ProcessServiceStarter{
		Config: config.ServiceConfig{
			Command:         []string{"/bin/sh", "-c", "echo $$ > " + pidFile + "; exec sleep 30", "service"},
			ShutdownTimeout: time.Second,
		},
	}
	o := New(Options{
		Starter: starter,
		NewGate: func(alive func() bool) (readiness.Gate, error) {
			return readiness.DelayGate{WarmUp: 50 * time.Millisecond}, nil
		},
		Runner: runner.New(&runner.CommandSpawner{Runner: []string{"/bin/sh"}, PortFlag: "--port=%d"}, nil),
		Suffix: ".js",
		Target: target,
	})

	start := time.Now()
	summary, err := o.Run(context.Background(), tests)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second, "service must be terminated, not awaited")

	assert.Equal(t, 2, summary.Run)
	assert.Equal(t, []string{"c.js"}, summary.FailingNames)
	assert.Equal(t, 3, summary.Results[1].ExitCode)
	assert.FileExists(t, pidFile)
}
