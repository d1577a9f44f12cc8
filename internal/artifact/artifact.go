// Package artifact loads and decodes the input image for one analysis
// session. Loading happens exactly once, before any unit runs; a failure
// here aborts the session.
package artifact

import (
	"bytes"
	"fmt"
	"image"
	"os"

	// Registered decoders. The stdlib trio covers the common web formats;
	// x/image adds the long tail seen in scanned-document corpora.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
)

// Artifact is the decoded input handed to every analysis unit: raw bytes,
// the decoded image, and the detected mime type. Units treat it as
// read-only.
type Artifact struct {
	// Ref identifies where the artifact came from (file path, URL, or a
	// caller-supplied label for in-memory bytes).
	Ref    string
	Bytes  []byte
	MIME   string
	Format string // decoder name: "jpeg", "png", ...
	Image  image.Image
	Width  int
	Height int
}

// LoadFile reads and decodes an image from disk.
func LoadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return FromBytes(data, path)
}

// FromBytes decodes an in-memory image. ref labels the artifact in results
// and logs.
func FromBytes(data []byte, ref string) (*Artifact, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact %s: empty input", ref)
	}

	mime := mimetype.Detect(data)

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s (%s): %w", ref, mime.String(), err)
	}

	bounds := img.Bounds()
	return &Artifact{
		Ref:    ref,
		Bytes:  data,
		MIME:   mime.String(),
		Format: format,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Megapixels returns the pixel count in millions.
func (a *Artifact) Megapixels() float64 {
	return float64(a.Width) * float64(a.Height) / 1e6
}
