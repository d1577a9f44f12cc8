package units

import (
	"context"
	"fmt"

	"percept/internal/analyze"
)

// ColorStats derives coarse color facts: dominant hue family, mean
// brightness and saturation, and whether the image is effectively grayscale.
// Downstream units (textness, vision) route on these.
type ColorStats struct {
	// Stride subsamples pixels; zero picks one that visits roughly 64k
	// pixels regardless of image size.
	Stride int
}

// Hue families for the dominant-color signal, in bucket order starting at
// red. 60° per bucket keeps neighbors like orange inside red/yellow.
var hueNames = [6]string{"red", "yellow", "green", "cyan", "blue", "magenta"}

const grayscaleSaturation = 0.05

func (u ColorStats) Contribute(ctx context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	img := snap.Artifact.Image
	bounds := img.Bounds()

	stride := u.Stride
	if stride <= 0 {
		stride = 1
		if px := bounds.Dx() * bounds.Dy(); px > 1<<16 {
			for (bounds.Dx() / stride) * (bounds.Dy() / stride) > 1<<16 {
				stride++
			}
		}
	}

	var (
		samples    float64
		sumBright  float64
		sumSat     float64
		hueWeights [6]float64
	)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			rf, gf, bf := float64(r)/65535, float64(g)/65535, float64(b)/65535

			v := max3(rf, gf, bf)
			c := v - min3(rf, gf, bf)

			samples++
			sumBright += v
			sat := 0.0
			if v > 0 {
				sat = c / v
			}
			sumSat += sat

			if c > 0 && sat >= grayscaleSaturation {
				hueWeights[hueBucket(rf, gf, bf, v, c)] += sat
			}
		}
	}
	if samples == 0 {
		return nil, fmt.Errorf("image %s has no pixels", snap.Artifact.Ref)
	}

	brightness := sumBright / samples
	saturation := sumSat / samples
	grayscale := saturation < grayscaleSaturation

	dominant := "none"
	if !grayscale {
		best := 0
		for i, w := range hueWeights {
			if w > hueWeights[best] {
				best = i
			}
		}
		if hueWeights[best] > 0 {
			dominant = hueNames[best]
		}
	}

	return []analyze.Contribution{{
		Category: "color",
		Reason: fmt.Sprintf("dominant=%s brightness=%.2f saturation=%.2f grayscale=%v",
			dominant, brightness, saturation, grayscale),
		Signals: map[string]any{
			"color.dominant":   dominant,
			"color.brightness": brightness,
			"color.saturation": saturation,
			"color.grayscale":  grayscale,
		},
	}}, nil
}

// hueBucket maps an RGB sample to one of the six hue families.
func hueBucket(r, g, b, v, c float64) int {
	var hue float64
	switch v {
	case r:
		hue = (g - b) / c
		if hue < 0 {
			hue += 6
		}
	case g:
		hue = (b-r)/c + 2
	default:
		hue = (r-g)/c + 4
	}
	// hue is in [0,6); buckets are centered on the primaries, so shift by
	// half a bucket before truncating.
	idx := int(hue+0.5) % 6
	return idx
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c float64) float64 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
