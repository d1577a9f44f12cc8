// Package config loads the pipeline configuration file: session scheduling
// policy, per-unit overrides, and vision unit credentials. YAML is the
// native format; JSON is accepted for generated configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"percept/internal/analyze"
)

// Duration wraps time.Duration so config files can say "250ms" or "30s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := node.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return fmt.Errorf("duration must be a string like \"30s\" or integer milliseconds")
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return fmt.Errorf("duration must be a string like \"30s\" or integer milliseconds")
}

// Session is the scheduling policy section.
type Session struct {
	MaxParallelism int      `yaml:"max_parallelism" json:"max_parallelism"`
	TotalTimeout   Duration `yaml:"total_timeout" json:"total_timeout"`
	PollInterval   Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxIterations  int      `yaml:"max_iterations" json:"max_iterations"`
	// EarlyExit defaults to on; only an explicit false disables it.
	EarlyExit *bool `yaml:"early_exit" json:"early_exit"`
}

// Unit is one unit's override section. Nil pointers mean "keep the
// registry's value".
type Unit struct {
	Enabled     *bool    `yaml:"enabled" json:"enabled"`
	Optional    *bool    `yaml:"optional" json:"optional"`
	Priority    int      `yaml:"priority" json:"priority"`
	Timeout     Duration `yaml:"timeout" json:"timeout"`
	TriggerWait Duration `yaml:"trigger_wait" json:"trigger_wait"`
}

// Vision configures the caption unit.
type Vision struct {
	// APIKeyEnv names the environment variable holding the key; it beats a
	// literal APIKey so keys stay out of config files.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
	APIKey    string `yaml:"api_key" json:"api_key"`
	Model     string `yaml:"model" json:"model"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
}

// Config is the whole pipeline file.
type Config struct {
	Session Session         `yaml:"session" json:"session"`
	Units   map[string]Unit `yaml:"units" json:"units"`
	Vision  Vision          `yaml:"vision" json:"vision"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Vision: Vision{APIKeyEnv: "PERCEPT_VISION_API_KEY"},
	}
}

// LoadFromPath reads a config file (YAML or JSON by extension, content
// sniffed when ambiguous).
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config bytes. ext is the format hint (".yaml", ".json");
// empty means detect from content.
func Load(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	cfg := Default()
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	case ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// VisionAPIKey resolves the caption unit's key: environment variable first,
// then the literal file value.
func (c *Config) VisionAPIKey() string {
	if c.Vision.APIKeyEnv != "" {
		if key := os.Getenv(c.Vision.APIKeyEnv); key != "" {
			return key
		}
	}
	return c.Vision.APIKey
}

// SchedulerConfig converts the session section into the orchestrator's
// policy, defaulting unset knobs.
func (c *Config) SchedulerConfig() analyze.Config {
	cfg := analyze.DefaultConfig()
	if c.Session.MaxParallelism > 0 {
		cfg.MaxParallelism = c.Session.MaxParallelism
	}
	if c.Session.TotalTimeout > 0 {
		cfg.TotalTimeout = c.Session.TotalTimeout.Std()
	}
	if c.Session.PollInterval > 0 {
		cfg.PollInterval = c.Session.PollInterval.Std()
	}
	if c.Session.MaxIterations > 0 {
		cfg.MaxIterations = c.Session.MaxIterations
	}
	if c.Session.EarlyExit != nil {
		cfg.EnableEarlyExit = *c.Session.EarlyExit
	}
	return cfg
}

// Apply overlays per-unit overrides onto registry descriptors. Unknown unit
// names in the config are reported so typos do not silently no-op.
func (c *Config) Apply(descs []analyze.Descriptor) ([]analyze.Descriptor, error) {
	seen := make(map[string]bool, len(descs))
	out := make([]analyze.Descriptor, len(descs))
	for i, d := range descs {
		if u, ok := c.Units[d.Name]; ok {
			if u.Enabled != nil {
				d.Disabled = !*u.Enabled
			}
			if u.Optional != nil {
				d.Optional = *u.Optional
			}
			if u.Priority != 0 {
				d.Priority = u.Priority
			}
			if u.Timeout > 0 {
				d.Timeout = u.Timeout.Std()
			}
			if u.TriggerWait > 0 {
				d.TriggerWait = u.TriggerWait.Std()
			}
		}
		seen[d.Name] = true
		out[i] = d
	}
	for name := range c.Units {
		if !seen[name] {
			return nil, fmt.Errorf("config refers to unknown unit %q", name)
		}
	}
	return out, nil
}
