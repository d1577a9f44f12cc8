package units

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"percept/internal/analyze"
	"percept/internal/artifact"
)

// snapFor wraps an image into the snapshot a unit receives, with optional
// pre-existing signals.
func snapFor(t *testing.T, img image.Image, signals map[string]any) *analyze.Snapshot {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	art, err := artifact.FromBytes(buf.Bytes(), "unit-test.png")
	if err != nil {
		t.Fatal(err)
	}
	if signals == nil {
		signals = map[string]any{}
	}
	return &analyze.Snapshot{SessionID: "test", Artifact: art, Signals: signals}
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func oneContribution(t *testing.T, contribs []analyze.Contribution, err error) analyze.Contribution {
	t.Helper()
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if len(contribs) != 1 {
		t.Fatalf("contributions = %d, want 1", len(contribs))
	}
	return contribs[0]
}

func TestFormatSignals(t *testing.T) {
	snap := snapFor(t, solid(32, 16, color.White), nil)

	contribs, err := Format{}.Contribute(context.Background(), snap)
	c := oneContribution(t, contribs, err)

	if c.Signals["artifact.width"] != 32 || c.Signals["artifact.height"] != 16 {
		t.Errorf("dimensions = %vx%v, want 32x16", c.Signals["artifact.width"], c.Signals["artifact.height"])
	}
	if c.Signals["artifact.mime"] != "image/png" {
		t.Errorf("mime = %v, want image/png", c.Signals["artifact.mime"])
	}
	if c.Signals["artifact.format"] != "png" {
		t.Errorf("format = %v, want png", c.Signals["artifact.format"])
	}
}

func TestColorStatsSolidBlue(t *testing.T) {
	snap := snapFor(t, solid(32, 32, color.RGBA{B: 230, A: 255}), nil)

	contribs, err := ColorStats{}.Contribute(context.Background(), snap)
	c := oneContribution(t, contribs, err)

	if c.Signals["color.dominant"] != "blue" {
		t.Errorf("dominant = %v, want blue", c.Signals["color.dominant"])
	}
	if c.Signals["color.grayscale"] != false {
		t.Error("a saturated blue image is not grayscale")
	}
}

func TestColorStatsGrayscale(t *testing.T) {
	snap := snapFor(t, solid(32, 32, color.Gray{Y: 180}), nil)

	contribs, err := ColorStats{}.Contribute(context.Background(), snap)
	c := oneContribution(t, contribs, err)

	if c.Signals["color.grayscale"] != true {
		t.Error("a gray image must be flagged grayscale")
	}
	if c.Signals["color.dominant"] != "none" {
		t.Errorf("dominant = %v, want none for grayscale", c.Signals["color.dominant"])
	}
	brightness, _ := c.Signals["color.brightness"].(float64)
	if brightness < 0.6 || brightness > 0.8 {
		t.Errorf("brightness = %v, want ≈0.7", brightness)
	}
}

func TestEdgesCheckerboardVsSolid(t *testing.T) {
	checker := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if (x/4+y/4)%2 == 0 {
				checker.Set(x, y, color.White)
			} else {
				checker.Set(x, y, color.Black)
			}
		}
	}

	busyContribs, busyErr := Edges{}.Contribute(context.Background(), snapFor(t, checker, nil))
	busy := oneContribution(t, busyContribs, busyErr)
	flatContribs, flatErr := Edges{}.Contribute(context.Background(), snapFor(t, solid(32, 32, color.White), nil))
	flat := oneContribution(t, flatContribs, flatErr)

	busyDensity, _ := busy.Signals["edge.density"].(float64)
	flatDensity, _ := flat.Signals["edge.density"].(float64)

	if busyDensity <= flatDensity {
		t.Errorf("checkerboard density %v should exceed solid density %v", busyDensity, flatDensity)
	}
	if flatDensity != 0 {
		t.Errorf("solid image density = %v, want 0", flatDensity)
	}
}

func TestPHashStableAcrossIdenticalImages(t *testing.T) {
	aContribs, aErr := PHash{}.Contribute(context.Background(), snapFor(t, solid(64, 64, color.RGBA{R: 200, A: 255}), nil))
	a := oneContribution(t, aContribs, aErr)
	bContribs, bErr := PHash{}.Contribute(context.Background(), snapFor(t, solid(64, 64, color.RGBA{R: 200, A: 255}), nil))
	b := oneContribution(t, bContribs, bErr)

	if a.Signals["hash.perceptual"] != b.Signals["hash.perceptual"] {
		t.Error("identical images must hash identically")
	}
	if a.Signals["hash.perceptual"] == "" {
		t.Error("empty perceptual hash")
	}
}

func TestEXIFSkipsNonJPEG(t *testing.T) {
	snap := snapFor(t, solid(8, 8, color.White), nil)

	contribs, err := EXIF{}.Contribute(context.Background(), snap)
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if len(contribs) != 0 {
		t.Errorf("PNG artifact produced EXIF contributions: %v", contribs)
	}
}

func TestTextnessRoutesOnSignals(t *testing.T) {
	img := solid(8, 8, color.White)

	t.Run("document scan halts", func(t *testing.T) {
		snap := snapFor(t, img, map[string]any{
			"edge.density":     0.3,
			"color.brightness": 0.9,
			"color.grayscale":  true,
		})
		contribs, err := Textness{}.Contribute(context.Background(), snap)
		c := oneContribution(t, contribs, err)
		if c.Signals["text.likely"] != true {
			t.Error("dense bright image should be text-likely")
		}
		if c.HaltReason == "" {
			t.Error("grayscale document scan should request early exit")
		}
	})

	t.Run("photo continues", func(t *testing.T) {
		snap := snapFor(t, img, map[string]any{
			"edge.density":     0.05,
			"color.brightness": 0.4,
			"color.grayscale":  false,
		})
		contribs, err := Textness{}.Contribute(context.Background(), snap)
		c := oneContribution(t, contribs, err)
		if c.Signals["text.likely"] != false {
			t.Error("sparse dark image should not be text-likely")
		}
		if c.HaltReason != "" {
			t.Error("no halt for an ordinary photo")
		}
	})

	t.Run("missing signal errors", func(t *testing.T) {
		if _, err := (Textness{}).Contribute(context.Background(), snapFor(t, img, nil)); err == nil {
			t.Error("textness without edge.density should fail")
		}
	})
}

func TestRegistryShape(t *testing.T) {
	descs := Registry(Options{})

	byName := map[string]analyze.Descriptor{}
	for _, d := range descs {
		byName[d.Name] = d
	}

	for _, name := range []string{"format", "colorstats", "exif", "phash", "edges", "textness", "vision"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("registry missing %q", name)
		}
	}
	if !byName["vision"].Disabled {
		t.Error("vision must be disabled without an API key")
	}
	if len(byName["format"].Triggers) != 0 {
		t.Error("format must have no triggers")
	}
	if len(byName["textness"].Triggers) == 0 {
		t.Error("textness must be trigger-gated")
	}

	withKey := Registry(Options{VisionAPIKey: "sk-test"})
	for _, d := range withKey {
		if d.Name == "vision" && d.Disabled {
			t.Error("vision must be enabled with an API key")
		}
	}
}
