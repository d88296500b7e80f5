package render

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
	"github.com/example/cutout/internal/viewport"
)

// View describes one frame of the canvas.
type View struct {
	Image    image.Image
	Viewport *viewport.Viewport
	Backdrop Backdrop
	Theme    *theme.Theme
	// Ink, when set, is a container-sized stroke layer drawn as is.
	// Otherwise State is rasterised at the viewport scale.
	Ink   *image.RGBA
	State strokes.State
	// Interpolator defaults to approximate bilinear.
	Interpolator xdraw.Interpolator
}

// ImageRect is the screen rectangle the content layer covers.
func ImageRect(vp *viewport.Viewport) image.Rectangle {
	o := vp.LayerOrigin()
	size := vp.ContentSize()
	x0, y0 := int(math.Round(o.X)), int(math.Round(o.Y))
	return image.Rect(x0, y0,
		x0+int(math.Round(size.X*vp.Scale)),
		y0+int(math.Round(size.Y*vp.Scale)))
}

// Compose draws v into dst: window background, backdrop under the image,
// the image through the viewport transform and the strokes on top.
func Compose(dst *image.RGBA, v View) {
	th := v.Theme
	if th == nil {
		th = theme.Default()
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)
	if v.Image == nil || v.Viewport == nil {
		return
	}
	vp := v.Viewport
	FillBackdrop(dst, ImageRect(vp), v.Backdrop, th)

	interp := v.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	o := vp.LayerOrigin()
	s := vp.Scale
	sb := v.Image.Bounds()
	s2d := f64.Aff3{
		s, 0, o.X - float64(sb.Min.X)*s,
		0, s, o.Y - float64(sb.Min.Y)*s,
	}
	interp.Transform(dst, s2d, v.Image, sb, draw.Over, nil)

	if v.Ink != nil {
		draw.Draw(dst, dst.Bounds(), v.Ink, image.Point{}, draw.Over)
		return
	}
	DrawStrokes(dst, v.State, s, vp.ToScreen)
}
