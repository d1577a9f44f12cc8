package analyze

import (
	"sync"
	"time"

	"percept/internal/signal"
)

// Ledger accumulates everything one session produced: contributions,
// per-unit failure reasons, aggregate confidence, and the one-shot early
// exit flag. It is append-only and safe for concurrent writers within a
// batch. The signal map is owned by the ledger so contribution merges and
// confidence updates land under one roof.
type Ledger struct {
	signals *signal.Map

	mu              sync.Mutex
	contributions   []Contribution
	failures        map[string]string
	confidence      float64
	earlyExit       bool
	earlyExitReason string
}

// NewLedger returns an empty ledger writing signals into the given map.
func NewLedger(signals *signal.Map) *Ledger {
	return &Ledger{
		signals:  signals,
		failures: make(map[string]string),
	}
}

// Signals exposes the underlying signal map (for trigger evaluation and
// snapshot construction by the orchestrator).
func (l *Ledger) Signals() *signal.Map { return l.signals }

// RecordSignal writes one signal directly, outside any contribution.
func (l *Ledger) RecordSignal(key string, value any) {
	l.signals.Set(key, value)
}

// RecordFailure notes why a unit failed. The first reason for a unit sticks;
// a unit never fails twice in one session.
func (l *Ledger) RecordFailure(unit, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.failures[unit]; !exists {
		l.failures[unit] = reason
	}
}

// AddContribution appends a contribution, merges its signals into the map,
// applies its confidence if it reports one, and honors its halt request.
func (l *Ledger) AddContribution(c Contribution) {
	l.signals.Merge(c.Signals)

	l.mu.Lock()
	l.contributions = append(l.contributions, c)
	if c.Confidence != nil {
		l.confidence = *c.Confidence
	}
	l.mu.Unlock()

	if c.HaltReason != "" {
		l.SetEarlyExit(c.HaltReason)
	}
}

// SetEarlyExit raises the early exit flag. Set-once: the first caller's
// reason is retained and later calls are no-ops. Returns whether this call
// took effect.
func (l *Ledger) SetEarlyExit(reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.earlyExit {
		return false
	}
	l.earlyExit = true
	l.earlyExitReason = reason
	return true
}

// EarlyExit returns the flag and its reason.
func (l *Ledger) EarlyExit() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.earlyExit, l.earlyExitReason
}

// Confidence returns the latest reported aggregate confidence.
func (l *Ledger) Confidence() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.confidence
}

// FailureReason returns the recorded reason for a unit, if any.
func (l *Ledger) FailureReason(unit string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.failures[unit]
	return r, ok
}

// FailedNames returns the names of failed units (unordered).
func (l *Ledger) FailedNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.failures))
	for name := range l.failures {
		names = append(names, name)
	}
	return names
}

// ToResult derives the final immutable Result.
func (l *Ledger) ToResult(sessionID string, elapsed time.Duration, completed []string, skipped []SkipNote) *Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	contribs := make([]Contribution, len(l.contributions))
	copy(contribs, l.contributions)

	failed := make(map[string]string, len(l.failures))
	for k, v := range l.failures {
		failed[k] = v
	}

	completedCopy := make([]string, len(completed))
	copy(completedCopy, completed)

	return &Result{
		SessionID:       sessionID,
		Success:         true,
		ProcessingTime:  elapsed,
		Contributions:   contribs,
		Signals:         l.signals.Snapshot(),
		Completed:       completedCopy,
		Failed:          failed,
		Skipped:         skipped,
		Confidence:      l.confidence,
		EarlyExit:       l.earlyExit,
		EarlyExitReason: l.earlyExitReason,
	}
}
