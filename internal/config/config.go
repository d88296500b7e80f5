// Package config reads and writes the rc-style configuration file and
// applies CUTOUT_* environment overrides.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
	"github.com/example/cutout/internal/transform"
)

// Notify holds notification settings.
type Notify struct {
	Save    bool
	Copy    bool
	Failure bool
}

// Pipeline holds processing defaults.
type Pipeline struct {
	Model         string
	EdgeThreshold int
	ErodeSize     int
	PaddingSize   int
	DebounceMS    int
	TimeoutS      int
}

// Config holds the application configuration.
type Config struct {
	Theme      string
	SaveDir    string
	ServiceURL string
	Backdrop   string
	LogLevel   string
	Notify     Notify
	Pipeline   Pipeline
	Pen        strokes.Pen
	Themes     map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:    "", // empty falls back to env, then the default theme
		LogLevel: "info",
		Notify: Notify{
			Failure: true,
		},
		Pipeline: Pipeline{
			Model:         transform.DefaultModel,
			EdgeThreshold: 50,
			ErodeSize:     3,
			PaddingSize:   10,
			DebounceMS:    300,
			TimeoutS:      60,
		},
		Pen:    strokes.DefaultPen(),
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.ServiceURL != "" {
		fmt.Fprintf(&sb, "service_url = %s\n", c.ServiceURL)
	}
	if c.Backdrop != "" {
		fmt.Fprintf(&sb, "backdrop = %s\n", c.Backdrop)
	}
	if c.LogLevel != "" {
		fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "failure = %v\n", c.Notify.Failure)
	sb.WriteString("\n")

	sb.WriteString("[pipeline]\n")
	fmt.Fprintf(&sb, "model = %s\n", c.Pipeline.Model)
	fmt.Fprintf(&sb, "edge_threshold = %d\n", c.Pipeline.EdgeThreshold)
	fmt.Fprintf(&sb, "erode_size = %d\n", c.Pipeline.ErodeSize)
	fmt.Fprintf(&sb, "padding_size = %d\n", c.Pipeline.PaddingSize)
	fmt.Fprintf(&sb, "debounce_ms = %d\n", c.Pipeline.DebounceMS)
	fmt.Fprintf(&sb, "timeout_s = %d\n", c.Pipeline.TimeoutS)
	sb.WriteString("\n")

	sb.WriteString("[pen]\n")
	fmt.Fprintf(&sb, "primary = %s\n", c.Pen.Primary.Color)
	fmt.Fprintf(&sb, "secondary = %s\n", c.Pen.Secondary.Color)
	fmt.Fprintf(&sb, "size = %g\n", c.Pen.Primary.Size)
	fmt.Fprintf(&sb, "opacity = %g\n", c.Pen.Primary.Opacity)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_ = theme.Format(&sb, c.Themes[name])
		sb.WriteString("\n")
	}

	return sb.String()
}
