// Package render draws the displayed image, its backdrop and the pen
// strokes, on screen and for export.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/example/cutout/internal/theme"
)

// Backdrop is what shows through transparent pixels.
type Backdrop int

const (
	Transparent Backdrop = iota // checkerboard
	Light
	Dark
)

// CheckerSize is the edge of one checkerboard square in screen pixels.
const CheckerSize = 8

func (b Backdrop) String() string {
	switch b {
	case Light:
		return "light"
	case Dark:
		return "dark"
	}
	return "transparent"
}

// Next cycles transparent, light, dark.
func (b Backdrop) Next() Backdrop {
	return (b + 1) % 3
}

// ParseBackdrop accepts the names printed by Backdrop.String.
func ParseBackdrop(s string) (Backdrop, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transparent", "checker", "checkerboard":
		return Transparent, nil
	case "light", "white":
		return Light, nil
	case "dark", "black":
		return Dark, nil
	}
	return Transparent, fmt.Errorf("unknown backdrop %q", s)
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size. The pattern is anchored at
// rect.Min so it moves with the image.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.RGBA) {
	r := rect.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := dark
			if (((x-rect.Min.X)/size)+((y-rect.Min.Y)/size))%2 == 0 {
				c = light
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

// FillBackdrop paints b into rect of dst using th's colours.
func FillBackdrop(dst *image.RGBA, rect image.Rectangle, b Backdrop, th *theme.Theme) {
	if th == nil {
		th = theme.Default()
	}
	switch b {
	case Light:
		draw.Draw(dst, rect, image.NewUniform(th.BackdropLight), image.Point{}, draw.Src)
	case Dark:
		draw.Draw(dst, rect, image.NewUniform(th.BackdropDark), image.Point{}, draw.Src)
	default:
		drawCheckerboard(dst, rect, CheckerSize, th.CheckerLight, th.CheckerDark)
	}
}
