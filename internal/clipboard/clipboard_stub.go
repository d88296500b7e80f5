//go:build !(linux || freebsd || openbsd || netbsd || dragonfly) || !cgo

package clipboard

import (
	"fmt"

	"github.com/example/cutout/internal/artifact"
)

var errUnsupported = fmt.Errorf("clipboard image operations are not supported in this build")

func WriteImage(*artifact.Image) error {
	return errUnsupported
}

func ReadImage() (*artifact.Image, error) {
	return nil, errUnsupported
}
