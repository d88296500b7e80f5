// Package clipboard moves PNG artifacts in and out of the system clipboard.
package clipboard

import (
	"errors"

	"github.com/example/cutout/internal/artifact"
)

var (
	// ErrNoImage is returned when the clipboard holds no PNG data.
	ErrNoImage   = errors.New("clipboard does not contain image data")
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

func hasDisplay(getenv func(string) string) bool {
	return getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != ""
}

func fromBytes(data []byte) (*artifact.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return artifact.New(data)
}
