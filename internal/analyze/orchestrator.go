// Package analyze is the orchestration core: it runs a variable set of
// pluggable analysis units over one artifact, resolving dependencies between
// units dynamically by re-evaluating trigger conditions against the growing
// signal set between concurrent batches.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"percept/internal/artifact"
	"percept/internal/logging"
	"percept/internal/signal"
	"percept/internal/trigger"
)

// RoutingSkipPrefix names the signal family that excludes units per session:
// setting "routing.skip.<unit>" to true skips that unit without executing it.
const RoutingSkipPrefix = "routing.skip."

// Scheduling defaults.
const (
	DefaultMaxParallelism = 4
	DefaultTotalTimeout   = 30 * time.Second
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultMaxIterations  = 10
)

// Config is the per-session scheduling policy.
type Config struct {
	// MaxParallelism caps concurrent unit executions within a batch.
	MaxParallelism int

	// TotalTimeout is the session's wall-clock budget. When it runs out the
	// scheduler stops starting new batches; an in-flight batch finishes
	// normally and its results are still merged.
	TotalTimeout time.Duration

	// EnableEarlyExit lets a unit's halt request stop the scheduling loop.
	// When false, halt requests are recorded in the result but do not
	// shorten the session.
	EnableEarlyExit bool

	// PollInterval is how long the scheduler waits when no unit is ready
	// but budget remains, to let slow async work land.
	PollInterval time.Duration

	// MaxIterations is the safety cap on scheduling loop passes.
	MaxIterations int
}

// DefaultConfig returns the standard session policy, early exit included.
func DefaultConfig() Config {
	return Config{
		MaxParallelism:  DefaultMaxParallelism,
		TotalTimeout:    DefaultTotalTimeout,
		EnableEarlyExit: true,
		PollInterval:    DefaultPollInterval,
		MaxIterations:   DefaultMaxIterations,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxParallelism <= 0 {
		c.MaxParallelism = DefaultMaxParallelism
	}
	if c.TotalTimeout <= 0 {
		c.TotalTimeout = DefaultTotalTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// Orchestrator drives sessions. It is stateless across sessions and safe to
// reuse.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an orchestrator with the given policy (zero fields defaulted).
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg.withDefaults(),
		logger: logging.New("orchestrator"),
	}
}

// session is the mutable state of one run: completion order, skip notes, and
// the ledger. completed/skipped are guarded because units in a batch finish
// concurrently.
type session struct {
	id       string
	start    time.Time
	deadline time.Time
	art      *artifact.Artifact
	ledger   *Ledger

	mu        sync.Mutex
	completed []string
	skipped   []SkipNote
}

func (s *session) markCompleted(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, name)
}

func (s *session) addSkip(name, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = append(s.skipped, SkipNote{Unit: name, Reason: reason})
}

func (s *session) completedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// snapshot builds the read-only view for one batch. Taken once per batch:
// siblings cannot see each other's output, only the next batch can.
func (s *session) snapshot() *Snapshot {
	s.mu.Lock()
	completed := make([]string, len(s.completed))
	copy(completed, s.completed)
	s.mu.Unlock()

	return &Snapshot{
		SessionID:  s.id,
		Artifact:   s.art,
		Signals:    s.ledger.Signals().Snapshot(),
		Confidence: s.ledger.Confidence(),
		Completed:  completed,
		Failed:     s.ledger.FailedNames(),
		Elapsed:    time.Since(s.start),
	}
}

// sessionView adapts live session state to trigger.View. Readiness is only
// computed between batches, when no unit is writing.
type sessionView struct {
	signals   *signal.Map
	completed int
}

func (v sessionView) Signal(key string) (any, bool) { return v.signals.Get(key) }
func (v sessionView) CompletedUnits() int           { return v.completed }

// AnalyzeFile loads the artifact from disk and runs the session. A load
// failure is the only session-fatal error: the result comes back with
// Success=false and no contributions.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, path string, descriptors []Descriptor) *Result {
	start := time.Now()
	art, err := artifact.LoadFile(path)
	if err != nil {
		o.logger.Error("artifact load failed", "path", path, "error", err)
		return FailedResult(uuid.NewString(), err, time.Since(start))
	}
	return o.Run(ctx, art, descriptors)
}

// AnalyzeBytes decodes an in-memory artifact and runs the session.
func (o *Orchestrator) AnalyzeBytes(ctx context.Context, data []byte, ref string, descriptors []Descriptor) *Result {
	start := time.Now()
	art, err := artifact.FromBytes(data, ref)
	if err != nil {
		o.logger.Error("artifact decode failed", "ref", ref, "error", err)
		return FailedResult(uuid.NewString(), err, time.Since(start))
	}
	return o.Run(ctx, art, descriptors)
}

// Run executes one session over an already-decoded artifact.
//
// Scheduling: units with no triggers run first as one concurrent batch, in
// priority order. The loop then repeatedly recomputes which pending units'
// triggers are satisfied by the current signal map and runs each ready set
// as a batch, until everything ran, the iteration cap or session budget is
// exhausted, or a unit requested early exit. Units whose triggers never
// fire are skipped, not failed.
func (o *Orchestrator) Run(ctx context.Context, art *artifact.Artifact, descriptors []Descriptor) *Result {
	s := &session{
		id:     uuid.NewString(),
		start:  time.Now(),
		art:    art,
		ledger: NewLedger(signal.NewMap()),
	}
	s.deadline = s.start.Add(o.cfg.TotalTimeout)

	logger := o.logger.With("session", s.id)
	logger.Info("session start", "artifact", art.Ref, "mime", art.MIME, "units", len(descriptors))

	immediate, triggered := o.admit(s, descriptors)

	if len(immediate) > 0 {
		o.runBatch(ctx, s, immediate)
	}

	remaining := triggered
	timedOut := false
	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		if exit, reason := s.ledger.EarlyExit(); exit && o.cfg.EnableEarlyExit {
			logger.Info("early exit", "reason", reason, "pending", len(remaining))
			break
		}
		if len(remaining) == 0 {
			break
		}
		// The deadline gates every new batch: a first batch that overran the
		// session budget, or a lapse during the poll sleep, must not let one
		// more batch start. In-flight work already merged above.
		if !time.Now().Before(s.deadline) {
			timedOut = true
			logger.Warn("session budget exhausted while units pending", "pending", len(remaining))
			break
		}

		ready, waiting := o.partitionReady(s, remaining)
		remaining = waiting

		if len(ready) == 0 {
			if len(remaining) == 0 {
				break
			}
			time.Sleep(o.cfg.PollInterval)
			continue
		}

		o.runBatch(ctx, s, ready)
	}

	for _, d := range remaining {
		if timedOut {
			s.addSkip(d.Name, fmt.Sprintf("session timeout before trigger evaluation (%s)", trigger.Describe(d.Triggers)))
		} else {
			s.addSkip(d.Name, fmt.Sprintf("trigger never satisfied (%s)", trigger.Describe(d.Triggers)))
		}
	}

	elapsed := time.Since(s.start)
	result := s.ledger.ToResult(s.id, elapsed, s.completed, s.skipped)
	logger.Info("session done",
		"elapsed", elapsed,
		"completed", len(result.Completed),
		"failed", len(result.Failed),
		"skipped", len(result.Skipped),
		"confidence", result.Confidence,
		"early_exit", result.EarlyExit)
	return result
}

// admit normalizes descriptors, drops disabled units, orders by priority
// (ties broken by name for stable batches), and partitions into the
// no-trigger group and the triggered group.
func (o *Orchestrator) admit(s *session, descriptors []Descriptor) (immediate, triggered []Descriptor) {
	admitted := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Disabled {
			s.addSkip(d.Name, "disabled by configuration")
			continue
		}
		admitted = append(admitted, d.withDefaults())
	}
	sort.SliceStable(admitted, func(i, j int) bool {
		if admitted[i].Priority != admitted[j].Priority {
			return admitted[i].Priority < admitted[j].Priority
		}
		return admitted[i].Name < admitted[j].Name
	})
	for _, d := range admitted {
		if len(d.Triggers) == 0 {
			immediate = append(immediate, d)
		} else {
			triggered = append(triggered, d)
		}
	}
	return immediate, triggered
}

// partitionReady splits pending units into those whose trigger set holds
// against the current signal map and those still waiting. Units whose
// trigger wait budget has lapsed are skipped on the spot.
func (o *Orchestrator) partitionReady(s *session, pending []Descriptor) (ready, waiting []Descriptor) {
	view := sessionView{signals: s.ledger.Signals(), completed: s.completedCount()}
	elapsed := time.Since(s.start)

	for _, d := range pending {
		switch {
		case trigger.Satisfied(d.Triggers, view):
			ready = append(ready, d)
		case elapsed > d.TriggerWait:
			s.addSkip(d.Name, fmt.Sprintf("trigger wait budget (%s) exhausted (%s)", d.TriggerWait, trigger.Describe(d.Triggers)))
		default:
			waiting = append(waiting, d)
		}
	}
	return ready, waiting
}

// runBatch executes one eligible set concurrently, bounded by
// MaxParallelism. The batch is a barrier: it returns only once every unit
// finished, timed out, or failed.
func (o *Orchestrator) runBatch(ctx context.Context, s *session, batch []Descriptor) {
	snap := s.snapshot()
	o.logger.Debug("batch start", "session", s.id, "units", len(batch))

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxParallelism)
	for _, d := range batch {
		g.Go(func() error {
			o.runUnit(ctx, s, d, snap)
			return nil
		})
	}
	_ = g.Wait()
}

// runUnit executes one unit under its own timeout. The cancellation scope is
// independent per unit: a timeout here never affects batch siblings.
func (o *Orchestrator) runUnit(ctx context.Context, s *session, d Descriptor, snap *Snapshot) {
	if v, ok := snap.Signal(RoutingSkipPrefix + d.Name); ok {
		if skip, _ := v.(bool); skip {
			s.addSkip(d.Name, "excluded by routing signal")
			o.logger.Info("unit skipped by routing signal", "session", s.id, "unit", d.Name)
			return
		}
	}

	uctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	type outcome struct {
		contribs []Contribution
		err      error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		contribs, err := d.Analyzer.Contribute(uctx, snap)
		done <- outcome{contribs: contribs, err: err}
	}()

	select {
	case out := <-done:
		duration := time.Since(start)
		if out.err != nil {
			reason := out.err.Error()
			// A unit that honors its context reports DeadlineExceeded on
			// overrun; normalize that to the canonical timeout reason.
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
				reason = "Timeout"
			}
			o.recordFailure(s, d, reason)
			return
		}
		for _, c := range out.contribs {
			c.Unit = d.Name
			c.Duration = duration
			s.ledger.AddContribution(c)
		}
		s.markCompleted(d.Name)
		o.logger.Debug("unit completed", "session", s.id, "unit", d.Name, "contributions", len(out.contribs), "duration", duration)
	case <-uctx.Done():
		// The unit's goroutine may still be running; it parks its result in
		// the buffered channel and exits. Siblings are untouched.
		reason := "Timeout"
		if err := ctx.Err(); err != nil {
			reason = err.Error()
		}
		o.recordFailure(s, d, reason)
	}
}

// recordFailure notes a unit failure and continues the session. Optionality
// does not change control flow, only the log severity.
func (o *Orchestrator) recordFailure(s *session, d Descriptor, reason string) {
	s.ledger.RecordFailure(d.Name, reason)
	if d.Optional {
		o.logger.Warn("optional unit failed", "session", s.id, "unit", d.Name, "reason", reason)
	} else {
		o.logger.Error("unit failed", "session", s.id, "unit", d.Name, "reason", reason)
	}
}
