package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// ShadowOptions configures the drop shadow cast by a cut-out subject.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// ShadowResult is the subject composited over its shadow.
type ShadowResult struct {
	Image *image.RGBA
	// Offset is where the subject's top-left corner ended up in Image.
	Offset image.Point
}

// DefaultShadowOptions suits subjects a few hundred pixels across.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{Radius: 12, Offset: image.Pt(8, 8), Opacity: 0.45}
}

// DropShadow casts a blurred shadow from img's alpha channel. The canvas
// grows to hold the shadow; the result always starts at the origin.
func DropShadow(img image.Image, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	src := toRGBA(img)
	if src.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: src}
	}
	opacity := math.Min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	sb := src.Bounds()
	spread := sb.Inset(-radius)
	shadowRect := spread.Add(opts.Offset)
	canvas := sb.Union(shadowRect)
	shift := sb.Min.Sub(canvas.Min)

	mask := image.NewAlpha(spread.Sub(spread.Min))
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			mask.SetAlpha(x-spread.Min.X, y-spread.Min.Y, color.Alpha{A: src.RGBAAt(x, y).A})
		}
	}
	boxBlur(mask.Pix, mask.Stride, mask.Bounds().Dx(), mask.Bounds().Dy(), radius)

	out := image.NewRGBA(canvas.Sub(canvas.Min))
	tint := image.NewUniform(color.NRGBA{A: uint8(math.Round(opacity * 255))})
	draw.DrawMask(out, mask.Bounds().Add(shadowRect.Min.Sub(canvas.Min)), tint, image.Point{}, mask, image.Point{}, draw.Over)
	draw.Draw(out, sb.Sub(canvas.Min), src, sb.Min, draw.Over)
	return ShadowResult{Image: out, Offset: shift}
}

// boxBlur blurs an 8-bit plane in place, horizontally then vertically.
func boxBlur(pix []uint8, stride, w, h, radius int) {
	if radius <= 0 || w == 0 || h == 0 {
		return
	}
	line := make([]int, max(w, h)+1)
	tmp := make([]uint8, max(w, h))
	blur1D := func(n int, at func(i int) *uint8) {
		for i := 0; i < n; i++ {
			line[i+1] = line[i] + int(*at(i))
		}
		for i := 0; i < n; i++ {
			lo, hi := max(i-radius, 0), min(i+radius, n-1)
			tmp[i] = uint8((line[hi+1] - line[lo]) / (hi - lo + 1))
		}
		for i := 0; i < n; i++ {
			*at(i) = tmp[i]
		}
	}
	for y := 0; y < h; y++ {
		row := y * stride
		blur1D(w, func(i int) *uint8 { return &pix[row+i] })
	}
	for x := 0; x < w; x++ {
		blur1D(h, func(i int) *uint8 { return &pix[i*stride+x] })
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
