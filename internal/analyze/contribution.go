package analyze

import "time"

// Contribution is one unit's immutable output for a session: the evidence it
// found plus the signals it asserts. The orchestrator stamps Unit and
// Duration after timing the call; everything else is set by the unit before
// it returns.
type Contribution struct {
	// Unit is the producing unit's name. Filled by the orchestrator.
	Unit string `json:"unit"`

	// Category namespaces the evidence ("format", "color", "text", ...).
	Category string `json:"category"`

	// Reason is the human-readable account of what was observed.
	Reason string `json:"reason"`

	// Signals are merged into the session's signal map after the call
	// returns. Keys fold to lower case on merge.
	Signals map[string]any `json:"signals,omitempty"`

	// Confidence, when non-nil, becomes the session's aggregate confidence.
	// Units that have no opinion leave it nil.
	Confidence *float64 `json:"confidence,omitempty"`

	// HaltReason, when non-empty, requests early exit: the scheduler stops
	// starting new batches once the current one drains. The first unit to
	// request it wins; later requests are ignored.
	HaltReason string `json:"halt_reason,omitempty"`

	// Duration is the producing call's wall-clock time. Filled by the
	// orchestrator.
	Duration time.Duration `json:"duration"`
}

// ConfidenceValue is a convenience for building the optional Confidence
// field inline.
func ConfidenceValue(v float64) *float64 { return &v }
