package config

import "time"

const (
	DefaultPort            = 8000
	DefaultServiceLogLevel = 1
	DefaultHost            = "localhost"
	DefaultTestSuffix      = ".js"

	DefaultWarmUp          = 2 * time.Second
	DefaultReadyTimeout    = 30 * time.Second
	DefaultInitialBackoff  = 100 * time.Millisecond
	DefaultMaxBackoff      = 2 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// GetDefaultConfig returns the default configuration for itrun.
// It reproduces the proxy integration setup: the test server is started with
// `go run main/test-server.go -port=8000 -logLevel=1` and every `.js` file is
// run with `mongo <file> --port=8000` after a two second warm-up.
func GetDefaultConfig() RunnerConfig {
	return RunnerConfig{
		Service: ServiceConfig{
			Command:         []string{"go", "run", "main/test-server.go"},
			Host:            DefaultHost,
			Port:            DefaultPort,
			LogLevel:        DefaultServiceLogLevel,
			PortFlag:        "-port=%d",
			LogLevelFlag:    "-logLevel=%d",
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Readiness: ReadinessConfig{
			Mode:           ReadinessDelay,
			WarmUp:         DefaultWarmUp,
			Timeout:        DefaultReadyTimeout,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
		},
		Tests: TestsConfig{
			Suffix:   DefaultTestSuffix,
			Runner:   []string{"mongo"},
			PortFlag: "--port=%d",
		},
		Output: OutputText,
	}
}
