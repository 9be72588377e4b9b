// Package exitcodes defines the process exit codes used by itrun.
package exitcodes

// Exit code constants used by itrun:
//
// * Success (0): every dispatched test exited with status zero
// * TestFailure (1): one or more tests failed or could not be launched
// * RuntimeErr (2): setup errors (service launch, readiness, missing directory),
// invalid configuration or an aborted run
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
