// Package orchestrator owns one complete test run.
//
// A run starts the service under test, waits until it is considered ready,
// discovers the test entries of a directory and hands them to the sequential
// runner. The service is terminated exactly once on every path after it was
// started, including failed readiness, a missing test directory and runner
// errors.
//
// # Errors
//
// Failures that prevent any test from being dispatched are returned as
// *FatalSetupError carrying the Stage that failed:
//
//   - StageServiceStart: the service command could not be launched
//   - StageReadiness: the readiness gate gave up or the service died early
//   - StageDiscovery: the test directory does not exist
//
// ExitCode maps the outcome of Run to the process exit status.
package orchestrator
