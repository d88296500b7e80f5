// Package theme holds the colour palettes used by the viewer and by
// rendered previews.
package theme

import (
	"image/color"
)

// Theme defines the colours used around and behind the image.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // behind the canvas
	Foreground color.RGBA

	// Backdrops behind transparent pixels
	CheckerLight  color.RGBA
	CheckerDark   color.RGBA
	BackdropLight color.RGBA
	BackdropDark  color.RGBA

	// Pen defaults
	PenPrimary   color.RGBA
	PenSecondary color.RGBA

	// Status line
	StatusBackground color.RGBA
	StatusText       color.RGBA
	StatusError      color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{220, 220, 220, 255},
		Foreground:       color.RGBA{0, 0, 0, 255},
		CheckerLight:     color.RGBA{220, 220, 220, 255},
		CheckerDark:      color.RGBA{192, 192, 192, 255},
		BackdropLight:    color.RGBA{255, 255, 255, 255},
		BackdropDark:     color.RGBA{32, 32, 32, 255},
		PenPrimary:       color.RGBA{255, 0, 0, 255},
		PenSecondary:     color.RGBA{255, 255, 255, 255},
		StatusBackground: color.RGBA{255, 255, 255, 230},
		StatusText:       color.RGBA{0, 0, 0, 255},
		StatusError:      color.RGBA{200, 0, 0, 255},
	}
}
