//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"os"
	"sync"

	"golang.design/x/clipboard"

	"github.com/example/cutout/internal/artifact"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay(os.Getenv) {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// WriteImage publishes the artifact's PNG bytes to the clipboard.
func WriteImage(img *artifact.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	if img == nil || len(img.Data) == 0 {
		return artifact.ErrEmpty
	}
	clipboard.Write(clipboard.FmtImage, img.Data)
	return nil
}

// ReadImage wraps the clipboard's PNG data as a new artifact.
func ReadImage() (*artifact.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return fromBytes(clipboard.Read(clipboard.FmtImage))
}
