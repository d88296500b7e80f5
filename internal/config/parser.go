package config

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
	"github.com/example/cutout/internal/transform"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if themeName, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			key, value, ok = strings.Cut(line, ":")
		}
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = setThemeField(currentTheme, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "pipeline":
			err = setPipelineField(&cfg.Pipeline, key, value)
		case currentSection == "pen":
			err = setPenField(&cfg.Pen, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "service_url":
		cfg.ServiceURL = value
	case "backdrop":
		if _, err := render.ParseBackdrop(value); err != nil {
			return err
		}
		cfg.Backdrop = value
	case "log_level":
		cfg.LogLevel = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	case "failure":
		n.Failure = b
	}
	return nil
}

func setPipelineField(p *Pipeline, key, value string) error {
	k := strings.ToLower(key)
	if k == "model" {
		if _, err := transform.LookupModel(value); err != nil {
			return err
		}
		p.Model = value
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	if n < 0 {
		return fmt.Errorf("negative value for key %s", key)
	}
	switch k {
	case "edge_threshold":
		p.EdgeThreshold = n
	case "erode_size":
		p.ErodeSize = n
	case "padding_size":
		p.PaddingSize = transform.ClampPadding(n)
	case "debounce_ms":
		p.DebounceMS = n
	case "timeout_s":
		p.TimeoutS = n
	}
	return nil
}

func setPenField(p *strokes.Pen, key, value string) error {
	switch strings.ToLower(key) {
	case "primary", "secondary":
		c, err := strokes.NormalizeColor(value)
		if err != nil {
			return err
		}
		if strings.EqualFold(key, "primary") {
			p.Primary.Color = c
		} else {
			p.Secondary.Color = c
		}
	case "size", "opacity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
		if strings.EqualFold(key, "size") {
			if f <= 0 {
				return fmt.Errorf("pen size must be positive")
			}
			p.Primary.Size, p.Secondary.Size = f, f
		} else {
			if f < 0 || f > 1 {
				return fmt.Errorf("pen opacity must be between 0 and 1")
			}
			p.Primary.Opacity, p.Secondary.Opacity = f, f
		}
	}
	return nil
}

// setThemeField matches keys case-insensitively against Theme fields.
func setThemeField(t *theme.Theme, key, value string) error {
	typ := reflect.TypeOf(*t)
	for i := 0; i < typ.NumField(); i++ {
		if strings.EqualFold(typ.Field(i).Name, key) {
			return t.Set(typ.Field(i).Name, value)
		}
	}
	return nil // Ignore unknown fields
}
