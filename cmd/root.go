package cmd

import (
	"errors"
	"os"

	"itrun/internal/exitcodes"
	"itrun/pkg/logging"

	"github.com/spf13/cobra"
)

// rootCmd runs the integration tests of one directory
var rootCmd = &cobra.Command{
	Use:   "itrun <test-directory>",
	Short: "Run integration tests one at a time against a freshly started service",
	Long: `itrun starts the service under test, waits for it to become ready and then
runs every test file of the given directory against it, strictly one after
another, in directory order. Test output is forwarded to the terminal and
the run exits non-zero if any test failed or the service could not be set up.

By default the service is started as

  go run main/test-server.go -port=8000 -logLevel=1

and each test as

  mongo <test-directory>/<file>.js --port=8000

Everything can be changed through ~/.config/itrun/config.yaml,
./.itrun/config.yaml, --config and the flags below.

Log verbosity of itrun itself is info; set ITRUN_LOG_LEVEL to debug, info,
warn or error to change it. --debug always selects debug.

Exit codes:
  0  all tests passed
  1  at least one test failed
  2  setup or runtime error`,
	Example: `  itrun tests
  itrun --readiness=probe --ready-timeout=1m tests
  itrun --runner=mongosh --runner=--quiet --suffix=.js tests
  itrun --output=quiet --report=reports --log-dir=logs tests`,
	Args: cobra.ExactArgs(1),
	RunE: runTests,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(cliLogLevel(flags.debug), os.Stderr)
	},
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed tests, missing test directory)
	SilenceUsage: true,
	// Errors are logged by Execute
	SilenceErrors: true,
}

// logLevelEnv selects the log level when --debug is not given.
const logLevelEnv = "ITRUN_LOG_LEVEL"

func cliLogLevel(debug bool) logging.LogLevel {
	if debug {
		return logging.LevelDebug
	}
	level, err := logging.ParseLevel(os.Getenv(logLevelEnv))
	if err != nil {
		logging.Warn("CLI", "Ignoring %s: %v", logLevelEnv, err)
		return logging.LevelInfo
	}
	return level
}

// exitCodeError carries the exit status of a completed run out of RunE.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return "tests failed"
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	logging.InitForCLI(logging.LevelInfo, os.Stderr)
	rootCmd.SetVersionTemplate(`{{printf "itrun version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err == nil {
		return exitcodes.Success
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			logging.Error("CLI", exitErr.err, "Test run failed")
		}
		return exitErr.code
	}

	logging.Error("CLI", err, "Invalid invocation")
	return exitcodes.RuntimeErr
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	flags.register(rootCmd)
}
