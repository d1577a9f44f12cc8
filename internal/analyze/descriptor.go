package analyze

import (
	"context"
	"time"

	"percept/internal/trigger"
)

// Defaults applied to a Descriptor whose corresponding field is zero.
const (
	DefaultPriority    = 100
	DefaultTimeout     = 30 * time.Second
	DefaultTriggerWait = 10 * time.Second
)

// Analyzer is the pluggable extension point: one analysis unit. A unit reads
// the snapshot, optionally inspects the artifact, and returns its
// contributions. It must not mutate shared state, schedule its own
// background work, or retry internally; the orchestrator owns all of that.
// The context carries the unit's execution deadline.
type Analyzer interface {
	Contribute(ctx context.Context, snap *Snapshot) ([]Contribution, error)
}

// AnalyzerFunc adapts a plain function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, snap *Snapshot) ([]Contribution, error)

func (f AnalyzerFunc) Contribute(ctx context.Context, snap *Snapshot) ([]Contribution, error) {
	return f(ctx, snap)
}

// Descriptor is the static metadata plus entry point for one unit. It is
// constructed before the session starts and read-only during the run.
type Descriptor struct {
	// Name identifies the unit in completed/failed/skipped sets and in the
	// routing.skip.<name> signal.
	Name string

	// Priority orders eligible units; lower runs earlier. Zero means
	// DefaultPriority.
	Priority int

	// Tags classify the unit for display and config selection.
	Tags []string

	// Disabled excludes the unit from the session entirely. The zero value
	// keeps a hand-constructed descriptor enabled.
	Disabled bool

	// Optional marks a unit whose failure is expected to be tolerable.
	// Both optional and required failures continue the session; the flag
	// only selects the log severity (Warn vs Error).
	Optional bool

	// Triggers gate eligibility. All must hold (conjunction); empty means
	// eligible immediately.
	Triggers []trigger.Condition

	// TriggerWait bounds how long the scheduler keeps polling for this
	// unit's triggers before giving up and skipping it. Zero means
	// DefaultTriggerWait.
	TriggerWait time.Duration

	// Timeout bounds one Contribute call. Zero means DefaultTimeout.
	Timeout time.Duration

	Analyzer Analyzer
}

// withDefaults returns a copy with zero-valued knobs replaced by defaults.
// Descriptors are normalized once at session start so the scheduling loop
// never re-checks for zeros.
func (d Descriptor) withDefaults() Descriptor {
	if d.Priority == 0 {
		d.Priority = DefaultPriority
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	if d.TriggerWait <= 0 {
		d.TriggerWait = DefaultTriggerWait
	}
	return d
}
