// Package transform talks to the image-processing service that removes
// backgrounds, pads and resizes artifacts.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/cutout/internal/artifact"
)

const (
	MinDimension = 1
	MaxDimension = 10000

	MaxPadding = 50
)

var (
	// ErrUnsupported is returned by transformers that cannot run an operation.
	ErrUnsupported = errors.New("operation not supported")
	// ErrInvalidDimension rejects widths and heights outside [1,10000].
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrUnknownModel rejects model ids missing from the catalogue.
	ErrUnknownModel = errors.New("unknown model")
)

// RemovalOptions configures background removal.
type RemovalOptions struct {
	Model string `yaml:"model"`
	// EdgeThreshold is the alpha-matting foreground threshold; lower values
	// give softer edges.
	EdgeThreshold int `yaml:"edge_threshold"`
	ErodeSize     int `yaml:"erode_size"`
}

// FitOptions configures proportional padding. Target dimensions of zero
// leave the padded canvas at its natural size.
type FitOptions struct {
	PaddingEnabled      bool `yaml:"padding_enabled"`
	PaddingSize         int  `yaml:"padding_size"`
	TargetWidth         int  `yaml:"target_width,omitempty"`
	TargetHeight        int  `yaml:"target_height,omitempty"`
	MaintainAspectRatio bool `yaml:"maintain_aspect_ratio"`
}

// ResizeOptions configures the final resize.
type ResizeOptions struct {
	Width               int  `yaml:"width"`
	Height              int  `yaml:"height"`
	MaintainAspectRatio bool `yaml:"maintain_aspect_ratio"`
}

// Transformer runs the three remote operations. Inputs and outputs are PNG
// artifacts; implementations must not mutate their input.
type Transformer interface {
	RemoveBackground(ctx context.Context, img *artifact.Image, opts RemovalOptions) (*artifact.Image, error)
	Fit(ctx context.Context, img *artifact.Image, opts FitOptions) (*artifact.Image, error)
	Resize(ctx context.Context, img *artifact.Image, opts ResizeOptions) (*artifact.Image, error)
}

// ValidateDimension checks a single width or height.
func ValidateDimension(v int) error {
	if v < MinDimension || v > MaxDimension {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidDimension, v, MinDimension, MaxDimension)
	}
	return nil
}

// ParseDimension parses user input for a width or height.
func ParseDimension(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidDimension, s)
	}
	if err := ValidateDimension(v); err != nil {
		return 0, err
	}
	return v, nil
}

// Preset is a named target size.
type Preset struct {
	Name          string
	Width, Height int
}

// Presets lists the quick size choices.
var Presets = []Preset{
	{Name: "50x50", Width: 50, Height: 50},
	{Name: "100x100", Width: 100, Height: 100},
	{Name: "200x200", Width: 200, Height: 200},
	{Name: "400x400", Width: 400, Height: 400},
}

// ParseSize parses "WIDTHxHEIGHT" or a preset name.
func ParseSize(s string) (int, int, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Presets {
		if p.Name == spec {
			return p.Width, p.Height, nil
		}
	}
	ws, hs, ok := strings.Cut(spec, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: size %q must look like WIDTHxHEIGHT", ErrInvalidDimension, s)
	}
	w, err := ParseDimension(ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := ParseDimension(hs)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// ClampPadding bounds a padding percentage to [0,MaxPadding].
func ClampPadding(p int) int {
	return max(0, min(MaxPadding, p))
}
