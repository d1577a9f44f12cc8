package display

import (
	"testing"
	"time"
)

func TestCategory(t *testing.T) {
	if got := Category("color"); got != "Color analysis" {
		t.Errorf("Category(color) = %q", got)
	}
	if got := Category("custom-thing"); got != "custom-thing" {
		t.Errorf("unknown category must pass through, got %q", got)
	}
}

func TestFailureReason(t *testing.T) {
	if got := FailureReason("Timeout"); got != "Timed out" {
		t.Errorf("FailureReason(Timeout) = %q", got)
	}
	if got := FailureReason("lens cap on"); got != "lens cap on" {
		t.Errorf("arbitrary reason must pass through, got %q", got)
	}
}

func TestScalars(t *testing.T) {
	if got := Confidence(0.756); got != "76%" {
		t.Errorf("Confidence = %q", got)
	}
	if got := Duration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("Duration = %q", got)
	}
	if got := Duration(2300 * time.Millisecond); got != "2.3s" {
		t.Errorf("Duration = %q", got)
	}
	if got := Outcome(true, true); got != "early-exit" {
		t.Errorf("Outcome = %q", got)
	}
	if got := Outcome(false, false); got != "failed" {
		t.Errorf("Outcome = %q", got)
	}
}
