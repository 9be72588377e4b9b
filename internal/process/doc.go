// Package process spawns external programs for itrun and manages their lifetime.
//
// A Handle forwards the child's stdout and stderr live to the orchestrator's
// own streams (optionally also to a log file), lets callers block until the
// child exits, and terminates it with SIGTERM followed by SIGKILL after a
// grace period. Terminate is idempotent so that deferred teardown is safe on
// every exit path.
package process
