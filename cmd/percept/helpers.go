package main

import (
	"fmt"
	"sort"

	"percept/internal/analyze"
	"percept/internal/config"
	"percept/internal/units"
)

// loadConfig reads the config file when given, the built-in defaults
// otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildDescriptors assembles the unit registry with config overrides applied.
func buildDescriptors(cfg *config.Config) ([]analyze.Descriptor, error) {
	descs := units.Registry(units.Options{
		VisionAPIKey:  cfg.VisionAPIKey(),
		VisionModel:   cfg.Vision.Model,
		VisionBaseURL: cfg.Vision.BaseURL,
	})
	descs, err := cfg.Apply(descs)
	if err != nil {
		return nil, fmt.Errorf("apply config: %w", err)
	}
	return descs, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
