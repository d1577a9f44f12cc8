package analyze

import (
	"time"

	"percept/internal/artifact"
	"percept/internal/signal"
)

// Snapshot is the read-only view handed to every unit in a batch. It is
// built once per batch from the signal map and ledger, so mutations by one
// unit are invisible to its batch siblings by construction; new state only
// becomes visible to the next batch.
type Snapshot struct {
	SessionID string

	// Artifact is the decoded input. Units must treat it as read-only.
	Artifact *artifact.Artifact

	// Signals is a detached copy of the signal map at batch start. Units
	// must not mutate it; prefer the Signal accessor, which folds key case.
	Signals map[string]any

	// Confidence is the aggregate confidence at batch start.
	Confidence float64

	// Completed and Failed are the unit names resolved so far.
	Completed []string
	Failed    []string

	// Elapsed is the session wall-clock time at batch start.
	Elapsed time.Duration
}

// Signal returns the value for a signal key, folding case the same way the
// signal map does.
func (s *Snapshot) Signal(key string) (any, bool) {
	v, ok := s.Signals[signal.Normalize(key)]
	return v, ok
}

// SignalString returns a string-typed signal, or "" when absent or not a
// string.
func (s *Snapshot) SignalString(key string) string {
	v, ok := s.Signal(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// SignalFloat returns a numeric signal as float64. Integers stored by
// in-process units and float64s arriving from JSON both qualify.
func (s *Snapshot) SignalFloat(key string) (float64, bool) {
	v, ok := s.Signal(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// SignalBool returns a bool-typed signal, defaulting to false when absent.
func (s *Snapshot) SignalBool(key string) bool {
	v, ok := s.Signal(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
