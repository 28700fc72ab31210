package iteration

// Decision is what the caller (main loop) should do after a task's
// iteration loop ends in a non-complete state.
type Decision struct {
	Retry     bool
	StopRun   bool
	BlockedBy string
}

// Decide implements the onFailure policy matrix: continue/stop/retry,
// mirroring the decision-matrix shape of a rollback manager weighing mode
// against attempt count.
func Decide(policy FailurePolicy, attempt, maxRetries int, outcome Outcome) Decision {
	if outcome.Status == StatusBlocked {
		return Decision{BlockedBy: outcome.Reason}
	}

	switch policy {
	case OnFailureStop:
		return Decision{StopRun: true, BlockedBy: outcome.Reason}
	case OnFailureRetry:
		if attempt < maxRetries {
			return Decision{Retry: true}
		}
		return Decision{BlockedBy: outcome.Reason}
	case OnFailureContinue:
		fallthrough
	default:
		return Decision{BlockedBy: outcome.Reason}
	}
}
