package transform

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/example/cutout/internal/artifact"
)

// Local pads and resizes in-process. It cannot remove backgrounds.
type Local struct {
	// Interpolator defaults to Catmull-Rom.
	Interpolator xdraw.Interpolator
}

// RemoveBackground always fails with ErrUnsupported.
func (l Local) RemoveBackground(context.Context, *artifact.Image, RemovalOptions) (*artifact.Image, error) {
	return nil, fmt.Errorf("remove background locally: %w", ErrUnsupported)
}

// Fit surrounds the image with a transparent border of PaddingSize percent
// of its longest side, then letterboxes the result into the target size
// when one is given.
func (l Local) Fit(ctx context.Context, img *artifact.Image, opts FitOptions) (*artifact.Image, error) {
	src, err := img.Decode()
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	pad := 0
	if opts.PaddingEnabled {
		pad = int(math.Round(float64(max(b.Dx(), b.Dy())) * float64(ClampPadding(opts.PaddingSize)) / 100))
	}
	padded := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	draw.Draw(padded, b.Sub(b.Min).Add(image.Pt(pad, pad)), src, b.Min, draw.Src)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.TargetWidth <= 0 || opts.TargetHeight <= 0 {
		return artifact.FromImage(padded)
	}
	return l.scale(ctx, padded, opts.TargetWidth, opts.TargetHeight, true)
}

// Resize scales the image to width x height. With MaintainAspectRatio the
// image is scaled to fit inside that box instead.
func (l Local) Resize(ctx context.Context, img *artifact.Image, opts ResizeOptions) (*artifact.Image, error) {
	if err := ValidateDimension(opts.Width); err != nil {
		return nil, err
	}
	if err := ValidateDimension(opts.Height); err != nil {
		return nil, err
	}
	src, err := img.Decode()
	if err != nil {
		return nil, err
	}
	w, h := opts.Width, opts.Height
	if opts.MaintainAspectRatio {
		w, h = FitInside(src.Bounds().Dx(), src.Bounds().Dy(), w, h)
	}
	return l.scale(ctx, src, w, h, false)
}

func (l Local) scale(ctx context.Context, src image.Image, w, h int, letterbox bool) (*artifact.Image, error) {
	interp := l.Interpolator
	if interp == nil {
		interp = xdraw.CatmullRom
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	target := dst.Bounds()
	if letterbox {
		fw, fh := FitInside(src.Bounds().Dx(), src.Bounds().Dy(), w, h)
		off := image.Pt((w-fw)/2, (h-fh)/2)
		target = image.Rect(0, 0, fw, fh).Add(off)
	}
	interp.Scale(dst, target, src, src.Bounds(), xdraw.Src, nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return artifact.FromImage(dst)
}

// FitInside returns the largest size with the aspect ratio of sw x sh that
// fits in w x h.
func FitInside(sw, sh, w, h int) (int, int) {
	if sw <= 0 || sh <= 0 {
		return w, h
	}
	s := math.Min(float64(w)/float64(sw), float64(h)/float64(sh))
	fw := max(1, int(math.Round(float64(sw)*s)))
	fh := max(1, int(math.Round(float64(sh)*s)))
	return fw, fh
}

// Select returns a Client for serviceURL, or Local when no service is
// configured.
func Select(serviceURL string, timeout time.Duration) Transformer {
	if strings.TrimSpace(serviceURL) == "" {
		return Local{}
	}
	return NewClient(serviceURL, timeout)
}
