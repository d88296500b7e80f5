package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/capture"
	"github.com/example/cutout/internal/clipboard"
)

var (
	captureScreenFn  = capture.Screen
	readClipboardFn  = clipboard.ReadImage
	writeClipboardFn = clipboard.WriteImage
)

// source selects where an input image comes from.
type source struct {
	file          string
	fromClipboard bool
	capture       bool
	display       string
}

func (s source) count() int {
	n := 0
	if s.file != "" {
		n++
	}
	if s.fromClipboard {
		n++
	}
	if s.capture {
		n++
	}
	return n
}

func (s source) validate() error {
	if s.count() > 1 {
		return fmt.Errorf("only one of -file, -from-clipboard and -capture may be given")
	}
	return nil
}

func (s source) load() (*artifact.Image, error) {
	switch {
	case s.capture:
		img, err := captureScreenFn(s.display)
		if err != nil {
			return nil, fmt.Errorf("failed to capture screen: %w", err)
		}
		return img, nil
	case s.fromClipboard:
		img, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return img, nil
	case s.file != "":
		return loadImageFile(s.file)
	}
	return nil, fmt.Errorf("no input image: use -file, -from-clipboard or -capture")
}

// loadImageFile reads any decodable image and converts it to a PNG
// artifact. PNG files are kept byte for byte.
func loadImageFile(path string) (*artifact.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if a, err := artifact.New(data); err == nil {
		return a, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return artifact.FromImage(img)
}

func writeImageFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

func writeArtifact(path string, a *artifact.Image) error {
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newCanvasImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
