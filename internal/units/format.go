package units

import (
	"context"
	"fmt"

	"percept/internal/analyze"
)

// Format reports the artifact's decoded shape: mime type, codec, dimensions.
// It runs first and seeds the signals most other units key off.
type Format struct{}

func (Format) Contribute(_ context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	art := snap.Artifact
	return []analyze.Contribution{{
		Category: "format",
		Reason:   fmt.Sprintf("%s image, %dx%d px, %d bytes", art.Format, art.Width, art.Height, len(art.Bytes)),
		Signals: map[string]any{
			"artifact.mime":       art.MIME,
			"artifact.format":     art.Format,
			"artifact.width":      art.Width,
			"artifact.height":     art.Height,
			"artifact.megapixels": art.Megapixels(),
			"artifact.bytes":      len(art.Bytes),
		},
	}}, nil
}
