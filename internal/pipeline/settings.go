package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/cutout/internal/transform"
)

const (
	MaxEdgeThreshold = 255
	MaxErodeSize     = 25
)

// Settings are the processing parameters for every stage.
type Settings struct {
	Model         string `yaml:"model"`
	EdgeThreshold int    `yaml:"edge_threshold"`
	ErodeSize     int    `yaml:"erode_size"`
	// RemoveBackground requests the removal stage. Whether the displayed
	// image actually had it applied is Orchestrator.BackgroundRemoved.
	RemoveBackground bool `yaml:"remove_background"`

	PaddingEnabled bool `yaml:"padding_enabled"`
	PaddingSize    int  `yaml:"padding_size"`

	TargetWidth         int  `yaml:"target_width,omitempty"`
	TargetHeight        int  `yaml:"target_height,omitempty"`
	MaintainAspectRatio bool `yaml:"maintain_aspect_ratio"`
	ResizeActive        bool `yaml:"resize_active"`
}

// DefaultSettings mirrors the service defaults.
func DefaultSettings() Settings {
	return Settings{
		Model:               transform.DefaultModel,
		EdgeThreshold:       50,
		ErodeSize:           3,
		PaddingSize:         10,
		MaintainAspectRatio: true,
	}
}

func (s Settings) enabled(st Stage) bool {
	switch st {
	case StageRemoveBackground:
		return s.RemoveBackground
	case StagePad:
		return s.PaddingEnabled
	case StageResize:
		return s.ResizeActive && s.TargetWidth > 0 && s.TargetHeight > 0
	}
	return false
}

// params identifies the stage's output for a given input.
func (s Settings) params(st Stage) string {
	switch st {
	case StageRemoveBackground:
		return fmt.Sprintf("model=%s;edge=%d;erode=%d", s.Model, s.EdgeThreshold, s.ErodeSize)
	case StagePad:
		return fmt.Sprintf("padding=%d", s.PaddingSize)
	case StageResize:
		return fmt.Sprintf("size=%dx%d;keep=%t", s.TargetWidth, s.TargetHeight, s.MaintainAspectRatio)
	}
	return ""
}

func (s Settings) removal() transform.RemovalOptions {
	return transform.RemovalOptions{Model: s.Model, EdgeThreshold: s.EdgeThreshold, ErodeSize: s.ErodeSize}
}

// fit leaves the target size to the resize stage.
func (s Settings) fit() transform.FitOptions {
	return transform.FitOptions{PaddingEnabled: true, PaddingSize: s.PaddingSize, MaintainAspectRatio: s.MaintainAspectRatio}
}

func (s Settings) resize() transform.ResizeOptions {
	return transform.ResizeOptions{Width: s.TargetWidth, Height: s.TargetHeight, MaintainAspectRatio: s.MaintainAspectRatio}
}

func (s Settings) withoutStages() Settings {
	s.RemoveBackground = false
	s.PaddingEnabled = false
	s.ResizeActive = false
	return s
}

func (s Settings) anyEnabled() bool {
	for _, st := range Stages {
		if s.enabled(st) {
			return true
		}
	}
	return false
}

// prefixEqual reports whether a and b produce the same output up to and
// including stage last.
func prefixEqual(last Stage, a, b Settings) bool {
	for _, st := range Stages {
		if a.enabled(st) != b.enabled(st) {
			return false
		}
		if a.enabled(st) && a.params(st) != b.params(st) {
			return false
		}
		if st == last {
			break
		}
	}
	return true
}

// equivalent reports whether a and b derive the same displayed image.
func equivalent(a, b Settings) bool {
	return prefixEqual(Stages[len(Stages)-1], a, b)
}

// revertStage copies the fields owned by st from prior into s.
func revertStage(s, prior Settings, st Stage) Settings {
	switch st {
	case StageRemoveBackground:
		s.RemoveBackground = prior.RemoveBackground
		s.Model = prior.Model
		s.EdgeThreshold = prior.EdgeThreshold
		s.ErodeSize = prior.ErodeSize
	case StagePad:
		s.PaddingEnabled = prior.PaddingEnabled
		s.PaddingSize = prior.PaddingSize
	case StageResize:
		s.ResizeActive = prior.ResizeActive
		s.TargetWidth = prior.TargetWidth
		s.TargetHeight = prior.TargetHeight
		s.MaintainAspectRatio = prior.MaintainAspectRatio
	}
	return s
}

// Field names a continuously adjustable setting.
type Field int

const (
	FieldEdgeThreshold Field = iota
	FieldErodeSize
	FieldPaddingSize
	FieldTargetWidth
	FieldTargetHeight
)

var fieldNames = map[Field]string{
	FieldEdgeThreshold: "edge-threshold",
	FieldErodeSize:     "erode-size",
	FieldPaddingSize:   "padding-size",
	FieldTargetWidth:   "width",
	FieldTargetHeight:  "height",
}

func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField accepts the names printed by Field.String.
func ParseField(s string) (Field, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, n := range fieldNames {
		if n == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown setting %q", s)
}

// Change sets one field to a value.
type Change struct {
	Field Field
	Value int
}

// apply writes c into s. Width and height changes keep the original
// image's aspect ratio when MaintainAspectRatio is set and aspect is known.
func (c Change) apply(s *Settings, aspect float64) error {
	switch c.Field {
	case FieldEdgeThreshold:
		s.EdgeThreshold = max(0, min(MaxEdgeThreshold, c.Value))
	case FieldErodeSize:
		s.ErodeSize = max(0, min(MaxErodeSize, c.Value))
	case FieldPaddingSize:
		s.PaddingSize = transform.ClampPadding(c.Value)
	case FieldTargetWidth:
		if err := transform.ValidateDimension(c.Value); err != nil {
			return err
		}
		s.TargetWidth = c.Value
		if s.MaintainAspectRatio && aspect > 0 {
			s.TargetHeight = clampDimension(math.Round(float64(c.Value) / aspect))
		}
	case FieldTargetHeight:
		if err := transform.ValidateDimension(c.Value); err != nil {
			return err
		}
		s.TargetHeight = c.Value
		if s.MaintainAspectRatio && aspect > 0 {
			s.TargetWidth = clampDimension(math.Round(float64(c.Value) * aspect))
		}
	default:
		return fmt.Errorf("unknown setting %v", c.Field)
	}
	return nil
}

// copyField copies c's field, and the companion dimension, from src.
func (c Change) copyField(dst *Settings, src Settings) {
	switch c.Field {
	case FieldEdgeThreshold:
		dst.EdgeThreshold = src.EdgeThreshold
	case FieldErodeSize:
		dst.ErodeSize = src.ErodeSize
	case FieldPaddingSize:
		dst.PaddingSize = src.PaddingSize
	case FieldTargetWidth, FieldTargetHeight:
		dst.TargetWidth = src.TargetWidth
		dst.TargetHeight = src.TargetHeight
	}
}

func clampDimension(v float64) int {
	return int(math.Max(transform.MinDimension, math.Min(transform.MaxDimension, v)))
}
