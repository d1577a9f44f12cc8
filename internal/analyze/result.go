package analyze

import "time"

// SkipNote explains why a unit neither completed nor failed: its trigger
// never fired, its wait budget ran out, a routing signal excluded it, or it
// was disabled up front.
type SkipNote struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// Result is the immutable outcome of one session, derived from the ledger
// and signal map at session end. Callers always receive a Result, even a
// partial one; Completed and Failed say what actually ran.
type Result struct {
	SessionID string `json:"session_id"`

	// Success is false only when the artifact itself failed to load. Unit
	// failures do not clear it.
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`

	Contributions []Contribution `json:"contributions,omitempty"`

	// Signals is the final signal map snapshot (keys folded to lower case).
	Signals map[string]any `json:"signals,omitempty"`

	// Completed holds names of units that returned successfully, in
	// completion order. Failed maps unit name to failure reason. A unit
	// appears in at most one of the two.
	Completed []string          `json:"completed,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`

	// Skipped notes units that never ran.
	Skipped []SkipNote `json:"skipped,omitempty"`

	Confidence float64 `json:"confidence"`

	EarlyExit       bool   `json:"early_exit"`
	EarlyExitReason string `json:"early_exit_reason,omitempty"`
}

// FailedResult builds the fatal-load Result: no contributions, no signals.
func FailedResult(sessionID string, err error, elapsed time.Duration) *Result {
	return &Result{
		SessionID:      sessionID,
		Success:        false,
		Error:          err.Error(),
		ProcessingTime: elapsed,
		Failed:         map[string]string{},
	}
}
