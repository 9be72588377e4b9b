package config

import (
	"time"
)

// ReadinessMode selects how the orchestrator decides the service is ready.
type ReadinessMode string

const (
	// ReadinessDelay waits a fixed warm-up interval.
	ReadinessDelay ReadinessMode = "delay"
	// ReadinessProbe dials the service port with exponential backoff.
	ReadinessProbe ReadinessMode = "probe"
)

// OutputFormat selects the reporter used for test progress and summary.
type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputQuiet OutputFormat = "quiet"
	OutputJSON  OutputFormat = "json"
)

// RunnerConfig is the top-level configuration structure for itrun.
type RunnerConfig struct {
	Service   ServiceConfig   `yaml:"service"`
	Readiness ReadinessConfig `yaml:"readiness"`
	Tests     TestsConfig     `yaml:"tests"`

	EnvFile    string       `yaml:"envFile,omitempty"`    // Optional dotenv file passed to all subprocesses
	LogDir     string       `yaml:"logDir,omitempty"`     // Optional directory for per-process log files
	ReportPath string       `yaml:"reportPath,omitempty"` // Optional directory for the JSON run report
	Output     OutputFormat `yaml:"output,omitempty"`     // text, quiet or json
	Verbose    bool         `yaml:"verbose,omitempty"`
	Debug      bool         `yaml:"debug,omitempty"`
}

// ServiceConfig defines how to launch the long-running service under test.
type ServiceConfig struct {
	Command         []string          `yaml:"command,omitempty"`         // Executable and leading arguments, e.g. ["go", "run", "main/test-server.go"]
	Args            []string          `yaml:"args,omitempty"`            // Extra arguments appended after the command
	Host            string            `yaml:"host,omitempty"`            // Host the tests connect to (default: localhost)
	Port            int               `yaml:"port,omitempty"`            // Port passed to the service and to every test
	LogLevel        int               `yaml:"logLevel"`                  // Service log verbosity, 0 (critical) to 5 (debug)
	PortFlag        string            `yaml:"portFlag,omitempty"`        // fmt pattern for the port argument
	LogLevelFlag    string            `yaml:"logLevelFlag,omitempty"`    // fmt pattern for the log level argument
	Dir             string            `yaml:"dir,omitempty"`             // Working directory for the service
	Env             map[string]string `yaml:"env,omitempty"`             // Extra environment variables
	ShutdownTimeout time.Duration     `yaml:"shutdownTimeout,omitempty"` // Grace period between SIGTERM and SIGKILL
}

// ReadinessConfig defines how long to wait before dispatching tests.
type ReadinessConfig struct {
	Mode           ReadinessMode `yaml:"mode,omitempty"`
	WarmUp         time.Duration `yaml:"warmUp,omitempty"`         // Fixed delay for ReadinessDelay
	Timeout        time.Duration `yaml:"timeout,omitempty"`        // Overall probe deadline for ReadinessProbe
	InitialBackoff time.Duration `yaml:"initialBackoff,omitempty"` // First probe retry delay
	MaxBackoff     time.Duration `yaml:"maxBackoff,omitempty"`     // Upper bound for the probe retry delay
}

// TestsConfig defines which directory entries are tests and how to run them.
type TestsConfig struct {
	Suffix   string            `yaml:"suffix,omitempty"`   // Recognized test-file suffix, e.g. ".js"
	Runner   []string          `yaml:"runner,omitempty"`   // Executable and leading arguments, e.g. ["mongo"]
	PortFlag string            `yaml:"portFlag,omitempty"` // fmt pattern for the port argument
	HostFlag string            `yaml:"hostFlag,omitempty"` // Optional fmt pattern for the host argument
	Env      map[string]string `yaml:"env,omitempty"`      // Extra environment variables
}
