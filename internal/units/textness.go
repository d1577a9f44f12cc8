package units

import (
	"context"
	"fmt"

	"percept/internal/analyze"
)

// Textness guesses whether the artifact is text-heavy (a scan, screenshot,
// or document photo) from signals earlier units produced: dense edges on a
// bright, desaturated image read as printed text. A grayscale text-heavy
// image is confidently a document scan, which is enough evidence to stop
// scheduling further units.
type Textness struct{}

const (
	textEdgeDensity = 0.12
	textBrightness  = 0.55
)

func (Textness) Contribute(_ context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	density, ok := snap.SignalFloat("edge.density")
	if !ok {
		return nil, fmt.Errorf("edge.density signal missing")
	}
	brightness, _ := snap.SignalFloat("color.brightness")
	grayscale := snap.SignalBool("color.grayscale")

	likely := density > textEdgeDensity && brightness > textBrightness

	c := analyze.Contribution{
		Category: "text",
		Reason: fmt.Sprintf("edge density %.3f, brightness %.2f, grayscale %v",
			density, brightness, grayscale),
		Signals: map[string]any{"text.likely": likely},
	}
	if likely && grayscale {
		c.Confidence = analyze.ConfidenceValue(0.8)
		c.HaltReason = "document scan detected"
	}

	return []analyze.Contribution{c}, nil
}
