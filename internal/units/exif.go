package units

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"percept/internal/analyze"
)

// EXIF extracts camera metadata from JPEG/TIFF artifacts. An image without
// EXIF (screenshots, PNGs, stripped uploads) contributes nothing; that is
// not a failure.
type EXIF struct{}

func (EXIF) Contribute(_ context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	art := snap.Artifact
	if art.Format != "jpeg" && art.Format != "tiff" {
		return nil, nil
	}

	x, err := exif.Decode(bytes.NewReader(art.Bytes))
	if err != nil {
		// No EXIF block is the common case, not an error condition.
		return nil, nil
	}

	signals := make(map[string]any)
	var parts []string

	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil && v != "" {
			signals["meta.camera.make"] = v
			parts = append(parts, v)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil && v != "" {
			signals["meta.camera.model"] = v
			parts = append(parts, v)
		}
	}
	if dt, err := x.DateTime(); err == nil {
		signals["meta.captured_at"] = dt.UTC().Format(time.RFC3339)
		parts = append(parts, dt.Format("2006-01-02"))
	}

	if len(signals) == 0 {
		return nil, nil
	}

	return []analyze.Contribution{{
		Category: "metadata",
		Reason:   fmt.Sprintf("EXIF: %v", parts),
		Signals:  signals,
	}}, nil
}
