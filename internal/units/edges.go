package units

import (
	"context"
	"fmt"
	"image"

	"percept/internal/analyze"
)

// Edges estimates structural busyness with a Sobel gradient pass over the
// luminance plane. edge.density is the fraction of pixels whose gradient
// magnitude clears the threshold; edge.busy flags visually dense images.
type Edges struct {
	// Threshold on normalized gradient magnitude. Zero means the default.
	Threshold float64
}

const (
	defaultEdgeThreshold = 0.25
	busyEdgeDensity      = 0.15
)

func (u Edges) Contribute(ctx context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	threshold := u.Threshold
	if threshold <= 0 {
		threshold = defaultEdgeThreshold
	}

	img := snap.Artifact.Image
	lum, w, h := luminancePlane(img)
	if w < 3 || h < 3 {
		return []analyze.Contribution{{
			Category: "edges",
			Reason:   "image too small for gradient analysis",
			Signals:  map[string]any{"edge.density": 0.0, "edge.busy": false},
		}}, nil
	}

	var hits, total int
	for y := 1; y < h-1; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 1; x < w-1; x++ {
			gx := lum[(y-1)*w+x+1] + 2*lum[y*w+x+1] + lum[(y+1)*w+x+1] -
				lum[(y-1)*w+x-1] - 2*lum[y*w+x-1] - lum[(y+1)*w+x-1]
			gy := lum[(y+1)*w+x-1] + 2*lum[(y+1)*w+x] + lum[(y+1)*w+x+1] -
				lum[(y-1)*w+x-1] - 2*lum[(y-1)*w+x] - lum[(y-1)*w+x+1]

			// Normalize by the max Sobel response (4.0 per axis).
			mag := (abs(gx) + abs(gy)) / 8
			total++
			if mag > threshold {
				hits++
			}
		}
	}

	density := float64(hits) / float64(total)
	busy := density > busyEdgeDensity

	return []analyze.Contribution{{
		Category: "edges",
		Reason:   fmt.Sprintf("edge density %.3f over %d pixels", density, total),
		Signals: map[string]any{
			"edge.density": density,
			"edge.busy":    busy,
		},
	}}, nil
}

// luminancePlane flattens the image to a row-major [0,1] luminance slice.
func luminancePlane(img image.Image) (lum []float64, w, h int) {
	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	lum = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535
		}
	}
	return lum, w, h
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
