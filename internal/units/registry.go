// Package units holds the built-in analysis units. Each unit is an ordinary
// Analyzer implementation plus a descriptor in the registry; callers can mix
// these with their own units or run a subset via configuration.
package units

import (
	"time"

	"percept/internal/analyze"
	"percept/internal/trigger"
)

// Options configure construction of the built-in registry.
type Options struct {
	// VisionAPIKey enables the vision caption unit. Empty leaves it
	// disabled (the registry still lists it so config and `percept units`
	// can see it).
	VisionAPIKey string

	// VisionModel overrides the caption model.
	VisionModel string

	// VisionBaseURL points the caption unit at an OpenAI-compatible
	// endpoint, for local inference servers.
	VisionBaseURL string
}

// Registry returns descriptors for every built-in unit, in priority order.
func Registry(opts Options) []analyze.Descriptor {
	return []analyze.Descriptor{
		{
			Name:     "format",
			Priority: 10,
			Tags:     []string{"format"},
			Timeout:  5 * time.Second,
			Analyzer: Format{},
		},
		{
			Name:     "colorstats",
			Priority: 20,
			Tags:     []string{"color"},
			Timeout:  10 * time.Second,
			Analyzer: ColorStats{},
		},
		{
			Name:     "exif",
			Priority: 30,
			Tags:     []string{"metadata"},
			Optional: true,
			Timeout:  5 * time.Second,
			Analyzer: EXIF{},
		},
		{
			Name:     "phash",
			Priority: 40,
			Tags:     []string{"hash"},
			Triggers: []trigger.Condition{trigger.Exists("artifact.width")},
			Timeout:  10 * time.Second,
			Analyzer: PHash{},
		},
		{
			Name:     "edges",
			Priority: 50,
			Tags:     []string{"edges"},
			Triggers: []trigger.Condition{trigger.Exists("color.brightness")},
			Timeout:  15 * time.Second,
			Analyzer: Edges{},
		},
		{
			Name:     "textness",
			Priority: 60,
			Tags:     []string{"text"},
			Triggers: []trigger.Condition{trigger.AllOf(
				trigger.Exists("edge.density"),
				trigger.UnitsCompleted(3),
			)},
			Timeout:  5 * time.Second,
			Analyzer: Textness{},
		},
		{
			Name:     "vision",
			Priority: 100,
			Tags:     []string{"caption", "vlm"},
			Optional: true,
			Disabled: opts.VisionAPIKey == "",
			Triggers: []trigger.Condition{trigger.Exists("color.dominant")},
			Timeout:  30 * time.Second,
			Analyzer: NewVision(opts.VisionAPIKey, opts.VisionModel, opts.VisionBaseURL),
		},
	}
}
