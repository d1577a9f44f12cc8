package analyze

import (
	"sync"
	"testing"
	"time"

	"percept/internal/signal"
)

func TestLedgerEarlyExitSetOnce(t *testing.T) {
	l := NewLedger(signal.NewMap())

	if !l.SetEarlyExit("enough evidence") {
		t.Fatal("first SetEarlyExit should take effect")
	}
	if l.SetEarlyExit("second opinion") {
		t.Fatal("second SetEarlyExit should be a no-op")
	}

	exit, reason := l.EarlyExit()
	if !exit || reason != "enough evidence" {
		t.Errorf("EarlyExit = %v, %q; want true, enough evidence", exit, reason)
	}
}

func TestLedgerContributionMergesSignalsAndConfidence(t *testing.T) {
	m := signal.NewMap()
	l := NewLedger(m)

	l.AddContribution(Contribution{
		Unit:       "colorstats",
		Category:   "color",
		Reason:     "dominant hue",
		Signals:    map[string]any{"Color.Dominant": "blue"},
		Confidence: ConfidenceValue(0.6),
	})
	l.AddContribution(Contribution{
		Unit:       "vision",
		Category:   "caption",
		Reason:     "model caption",
		Confidence: ConfidenceValue(0.9),
	})

	if v, _ := m.Get("color.dominant"); v != "blue" {
		t.Errorf("signal not merged: %v", v)
	}
	if got := l.Confidence(); got != 0.9 {
		t.Errorf("Confidence = %v, want 0.9 (latest report wins)", got)
	}
}

func TestLedgerContributionHaltRequest(t *testing.T) {
	l := NewLedger(signal.NewMap())

	l.AddContribution(Contribution{Unit: "e", HaltReason: "enough evidence"})
	l.AddContribution(Contribution{Unit: "f", HaltReason: "me too"})

	exit, reason := l.EarlyExit()
	if !exit || reason != "enough evidence" {
		t.Errorf("EarlyExit = %v, %q; want first halt reason retained", exit, reason)
	}
}

func TestLedgerFailureFirstReasonSticks(t *testing.T) {
	l := NewLedger(signal.NewMap())

	l.RecordFailure("edges", "Timeout")
	l.RecordFailure("edges", "later excuse")

	reason, ok := l.FailureReason("edges")
	if !ok || reason != "Timeout" {
		t.Errorf("FailureReason = %q, %v; want Timeout, true", reason, ok)
	}
}

func TestLedgerConcurrentWriters(t *testing.T) {
	l := NewLedger(signal.NewMap())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.AddContribution(Contribution{Unit: "u", Category: "c", Reason: "r"})
			l.RecordFailure("failer", "boom")
			l.SetEarlyExit("race")
		}(i)
	}
	wg.Wait()

	res := l.ToResult("s", time.Millisecond, nil, nil)
	if len(res.Contributions) != 16 {
		t.Errorf("contributions = %d, want 16", len(res.Contributions))
	}
	if len(res.Failed) != 1 {
		t.Errorf("failed = %d, want 1", len(res.Failed))
	}
	if !res.EarlyExit {
		t.Error("early exit flag lost")
	}
}

func TestLedgerToResultIsDetached(t *testing.T) {
	l := NewLedger(signal.NewMap())
	l.AddContribution(Contribution{Unit: "a", Signals: map[string]any{"k.v": 1}})

	res := l.ToResult("s", time.Millisecond, []string{"a"}, nil)

	l.AddContribution(Contribution{Unit: "b", Signals: map[string]any{"k2.v": 2}})
	l.RecordFailure("c", "late")

	if len(res.Contributions) != 1 {
		t.Errorf("result saw a later contribution: %d", len(res.Contributions))
	}
	if _, ok := res.Signals["k2.v"]; ok {
		t.Error("result signals saw a later merge")
	}
	if len(res.Failed) != 0 {
		t.Error("result saw a later failure")
	}
	if !res.Success {
		t.Error("a normally-derived result is successful")
	}
}
