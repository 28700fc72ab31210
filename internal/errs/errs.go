// Package errs collects the typed error kinds the core reports, so callers
// can branch on failure source with errors.As instead of string matching.
package errs

import "fmt"

// SandboxError reports a policy denial or resource-limit violation from the
// overlay sandbox. It never panics; it is always returned as a value.
type SandboxError struct {
	Op     string
	Path   string
	Reason string
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("sandbox: %s %s: %s", e.Op, e.Path, e.Reason)
}

// AgentError wraps a failure from the agent provider (transport failure,
// malformed response, non-zero exit from a CLI invoker).
type AgentError struct {
	Cause error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent: %v", e.Cause)
}

func (e *AgentError) Unwrap() error { return e.Cause }

// TrackerError wraps an HTTP or GraphQL failure from a tracker adapter.
// Tracker operations never abort the main loop; this is logged and
// counted, not propagated as fatal.
type TrackerError struct {
	Kind       string
	StatusCode int
	Body       string
	Cause      error
}

func (e *TrackerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tracker(%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("tracker(%s): status %d: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *TrackerError) Unwrap() error { return e.Cause }

// BudgetExceeded reports that the iteration engine terminated a task
// because a time, cost, or iteration budget was exhausted.
type BudgetExceeded struct {
	TaskID string
	Budget string // "time", "cost", "iterations", "run-time", "run-cost"
	Limit  string
}

func (e *BudgetExceeded) Error() string {
	return fmt.Sprintf("budget exceeded for %s: %s (limit %s)", e.TaskID, e.Budget, e.Limit)
}

// IOError wraps a filesystem or git failure. It propagates at log append
// time; it is swallowed for best-effort reads (specs, guidance files).
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }
