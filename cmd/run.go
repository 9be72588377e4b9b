package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itrun/internal/color"
	"itrun/internal/config"
	"itrun/internal/exitcodes"
	"itrun/internal/orchestrator"
	"itrun/internal/readiness"
	"itrun/internal/reporting"
	"itrun/internal/runner"
	"itrun/pkg/logging"

	"github.com/spf13/cobra"
)

// runFlags holds the command line overrides for the loaded configuration.
type runFlags struct {
	configPath   string
	port         int
	logLevel     int
	service      []string
	runner       []string
	suffix       string
	readiness    string
	warmUp       time.Duration
	readyTimeout time.Duration
	envFile      string
	report       string
	logDir       string
	output       string
	verbose      bool
	debug        bool
	noColor      bool
}

var flags runFlags

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Explicit config file, applied after the user and project files")
	fs.IntVar(&f.port, "port", config.DefaultPort, "Port the service listens on and every test connects to")
	fs.IntVar(&f.logLevel, "log-level", config.DefaultServiceLogLevel, "Service log verbosity passed as -logLevel")
	fs.StringArrayVar(&f.service, "service", nil, "Service command and arguments, one flag per word (default: go run main/test-server.go)")
	fs.StringArrayVar(&f.runner, "runner", nil, "Test runner command and arguments, one flag per word (default: mongo)")
	fs.StringVar(&f.suffix, "suffix", config.DefaultTestSuffix, "File name suffix that marks a test")
	fs.StringVar(&f.readiness, "readiness", string(config.ReadinessDelay), "Readiness mode: delay (fixed warm-up) or probe (TCP connect)")
	fs.DurationVar(&f.warmUp, "warm-up", config.DefaultWarmUp, "Warm-up interval for the delay readiness mode")
	fs.DurationVar(&f.readyTimeout, "ready-timeout", config.DefaultReadyTimeout, "Give up on the probe readiness mode after this long")
	fs.StringVar(&f.envFile, "env-file", "", "Dotenv file with extra environment for the service and the tests")
	fs.StringVar(&f.report, "report", "", "Directory to write a JSON report into")
	fs.StringVar(&f.logDir, "log-dir", "", "Directory for per-test and service log files")
	fs.StringVar(&f.output, "output", string(config.OutputText), "Output format: text, quiet or json")

	cmd.PersistentFlags().BoolVar(&f.verbose, "verbose", false, "Enable verbose test output")
	cmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

// apply overrides cfg with every flag that was set explicitly.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.RunnerConfig) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("port") {
		cfg.Service.Port = f.port
	}
	if changed("log-level") {
		cfg.Service.LogLevel = f.logLevel
	}
	if changed("service") {
		cfg.Service.Command = f.service
	}
	if changed("runner") {
		cfg.Tests.Runner = f.runner
	}
	if changed("suffix") {
		cfg.Tests.Suffix = f.suffix
	}
	if changed("readiness") {
		cfg.Readiness.Mode = config.ReadinessMode(f.readiness)
	}
	if changed("warm-up") {
		cfg.Readiness.WarmUp = f.warmUp
	}
	if changed("ready-timeout") {
		cfg.Readiness.Timeout = f.readyTimeout
	}
	if changed("env-file") {
		cfg.EnvFile = f.envFile
	}
	if changed("report") {
		cfg.ReportPath = f.report
	}
	if changed("log-dir") {
		cfg.LogDir = f.logDir
	}
	if changed("output") {
		cfg.Output = config.OutputFormat(f.output)
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.debug {
		cfg.Debug = true
	}
}

// loadConfig merges the config files with the flags and validates the result.
func loadConfig(cmd *cobra.Command) (config.RunnerConfig, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return cfg, err
	}
	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runTests(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logging.Warn("CLI", "Received interrupt signal, stopping tests...")
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return &exitCodeError{code: exitcodes.RuntimeErr, err: err}
	}
	if cfg.Debug {
		logging.InitForCLI(logging.LevelDebug, os.Stderr)
	}

	o, err := newOrchestrator(cfg, cmd)
	if err != nil {
		return &exitCodeError{code: exitcodes.RuntimeErr, err: err}
	}

	testDir := args[0]
	summary, runErr := o.Run(ctx, testDir)

	if summary != nil && cfg.ReportPath != "" {
		path, err := reporting.SaveReport(cfg.ReportPath, *summary)
		if err != nil {
			logging.Error("CLI", err, "Failed to save report")
		} else {
			logging.Info("CLI", "Report saved to %s", path)
		}
	}

	code := orchestrator.ExitCode(summary, runErr)
	if code == exitcodes.Success {
		return nil
	}
	return &exitCodeError{code: code, err: runErr}
}

// newOrchestrator wires the service starter, readiness gate, runner and reporter for cfg.
func newOrchestrator(cfg config.RunnerConfig, cmd *cobra.Command) (*orchestrator.Orchestrator, error) {
	var fileEnv map[string]string
	if cfg.EnvFile != "" {
		var err error
		fileEnv, err = config.LoadEnvFile(cfg.EnvFile)
		if err != nil {
			return nil, err
		}
	}

	target := runner.Target{Host: cfg.Service.Host, Port: cfg.Service.Port}

	color.Setup(os.Stdout, flags.noColor || cfg.Output != config.OutputText)
	reporter := reporting.New(cfg.Output, cmd.OutOrStdout(), cfg.Verbose)

	starter := &orchestrator.ProcessServiceStarter{
		Config: cfg.Service,
		Env:    config.Environ(fileEnv, cfg.Service.Env),
		LogDir: cfg.LogDir,
	}
	spawner := &runner.CommandSpawner{
		Runner:   cfg.Tests.Runner,
		PortFlag: cfg.Tests.PortFlag,
		HostFlag: cfg.Tests.HostFlag,
		Env:      config.Environ(fileEnv, cfg.Tests.Env),
		LogDir:   cfg.LogDir,
	}
	if cfg.Output == config.OutputJSON {
		// Keep stdout parseable, the forwarded output goes to stderr instead.
		starter.Stdout = os.Stderr
		spawner.Stdout = os.Stderr
	}

	return orchestrator.New(orchestrator.Options{
		Starter: starter,
		NewGate: func(alive func() bool) (readiness.Gate, error) {
			return readiness.New(cfg.Readiness, target.Address(), alive)
		},
		Runner: runner.New(spawner, reporter),
		Suffix: cfg.Tests.Suffix,
		Target: target,
	}), nil
}
