package config

import (
	"testing"
	"time"

	"percept/internal/analyze"
)

const sampleYAML = `
session:
  max_parallelism: 8
  total_timeout: 45s
  poll_interval: 25ms
  early_exit: false
units:
  vision:
    enabled: true
    timeout: 20s
    priority: 90
  exif:
    enabled: false
vision:
  model: llava
  base_url: http://localhost:11434/v1
`

func TestLoadYAML(t *testing.T) {
	cfg, err := Load([]byte(sampleYAML), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sched := cfg.SchedulerConfig()
	if sched.MaxParallelism != 8 {
		t.Errorf("MaxParallelism = %d, want 8", sched.MaxParallelism)
	}
	if sched.TotalTimeout != 45*time.Second {
		t.Errorf("TotalTimeout = %v, want 45s", sched.TotalTimeout)
	}
	if sched.PollInterval != 25*time.Millisecond {
		t.Errorf("PollInterval = %v, want 25ms", sched.PollInterval)
	}
	if sched.EnableEarlyExit {
		t.Error("early_exit: false must disable early exit")
	}
	if cfg.Vision.Model != "llava" {
		t.Errorf("vision model = %q, want llava", cfg.Vision.Model)
	}
}

func TestDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load([]byte("units: {}\n"), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sched := cfg.SchedulerConfig()
	if sched.MaxParallelism != analyze.DefaultMaxParallelism {
		t.Errorf("MaxParallelism = %d, want default", sched.MaxParallelism)
	}
	if !sched.EnableEarlyExit {
		t.Error("early exit defaults to on")
	}
}

func TestLoadJSONByContent(t *testing.T) {
	cfg, err := Load([]byte(`{"session":{"total_timeout":"10s"}}`), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.SchedulerConfig().TotalTimeout; got != 10*time.Second {
		t.Errorf("TotalTimeout = %v, want 10s", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg, err := Load([]byte(sampleYAML), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	descs := []analyze.Descriptor{
		{Name: "vision", Priority: 100, Disabled: true},
		{Name: "exif", Priority: 30},
		{Name: "format", Priority: 10},
	}
	out, err := cfg.Apply(descs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	byName := map[string]analyze.Descriptor{}
	for _, d := range out {
		byName[d.Name] = d
	}
	if byName["vision"].Disabled {
		t.Error("enabled: true must clear Disabled")
	}
	if byName["vision"].Priority != 90 {
		t.Errorf("vision priority = %d, want 90", byName["vision"].Priority)
	}
	if byName["vision"].Timeout != 20*time.Second {
		t.Errorf("vision timeout = %v, want 20s", byName["vision"].Timeout)
	}
	if !byName["exif"].Disabled {
		t.Error("enabled: false must set Disabled")
	}
	if byName["format"].Priority != 10 {
		t.Error("untouched unit must keep its values")
	}
}

func TestApplyRejectsUnknownUnit(t *testing.T) {
	cfg := Default()
	cfg.Units = map[string]Unit{"no-such-unit": {}}

	if _, err := cfg.Apply([]analyze.Descriptor{{Name: "format"}}); err == nil {
		t.Fatal("expected error for unknown unit name")
	}
}

func TestBadDuration(t *testing.T) {
	if _, err := Load([]byte("session:\n  total_timeout: soon\n"), ".yaml"); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
