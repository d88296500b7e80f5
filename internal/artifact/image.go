// Package artifact holds the images the editor derives and displays.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/oklog/ulid/v2"
)

// ErrEmpty is returned for zero-length image data.
var ErrEmpty = errors.New("empty image data")

// Image is an immutable PNG artifact. Two values with the same ID hold the
// same pixels.
type Image struct {
	ID     string
	Data   []byte
	Width  int
	Height int
}

// New wraps PNG bytes, reading only the header to learn the dimensions.
func New(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png header: %w", err)
	}
	return &Image{
		ID:     ulid.Make().String(),
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// FromImage encodes img as PNG.
func FromImage(img image.Image) (*Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	b := img.Bounds()
	return &Image{
		ID:     ulid.Make().String(),
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Decode returns the pixels of the artifact.
func (i *Image) Decode() (image.Image, error) {
	if i == nil || len(i.Data) == 0 {
		return nil, ErrEmpty
	}
	img, err := png.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", i.ID, err)
	}
	return img, nil
}

// Bounds is the artifact's pixel rectangle.
func (i *Image) Bounds() image.Rectangle {
	if i == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, i.Width, i.Height)
}

// Same reports whether a and b are the same artifact.
func Same(a, b *Image) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
