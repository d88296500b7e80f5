package render

import (
	"image"
	"image/draw"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
)

func identity(p r2.Vec) r2.Vec { return p }

// Merge draws history over img at content scale, for export. img is not
// modified.
func Merge(img image.Image, history []strokes.Action) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	DrawStrokes(out, strokes.State{History: history}, 1, identity)
	return out
}

// MergeArtifact merges history into a displayed artifact and returns the
// result as a new artifact. Without strokes the artifact is returned as is.
func MergeArtifact(a *artifact.Image, history []strokes.Action) (*artifact.Image, error) {
	if len(history) == 0 {
		return a, nil
	}
	img, err := a.Decode()
	if err != nil {
		return nil, err
	}
	return artifact.FromImage(Merge(img, history))
}

type flattenConfig struct {
	theme *theme.Theme
}

// FlattenOption configures Flatten.
type FlattenOption func(*flattenConfig)

// WithTheme selects the backdrop colours.
func WithTheme(th *theme.Theme) FlattenOption {
	return func(c *flattenConfig) { c.theme = th }
}

// Flatten places img on backdrop b, for previews of transparent results.
func Flatten(img image.Image, b Backdrop, opts ...FlattenOption) *image.RGBA {
	cfg := flattenConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	FillBackdrop(out, out.Bounds(), b, cfg.theme)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}
