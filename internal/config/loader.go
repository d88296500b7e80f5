package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "CUTOUT_"

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time if needed
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads .env files, the configuration file and CUTOUT_* overrides.
func (l *Loader) Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".cutoutrc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG Config Path
	if p := DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where `config save` writes.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cutout", "config.rc")
}

func (l *Loader) getenv(key string) string {
	if l.Getenv != nil {
		return l.Getenv(EnvPrefix + key)
	}
	return os.Getenv(EnvPrefix + key)
}

// applyEnv overrides cfg with CUTOUT_* variables.
func (l *Loader) applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"THEME":       &cfg.Theme,
		"SAVE_DIR":    &cfg.SaveDir,
		"SERVICE_URL": &cfg.ServiceURL,
		"BACKDROP":    &cfg.Backdrop,
		"LOG_LEVEL":   &cfg.LogLevel,
	}
	for k, dst := range strs {
		if v := strings.TrimSpace(l.getenv(k)); v != "" {
			*dst = v
		}
	}
	if v := l.getenv("MODEL"); v != "" {
		if err := setPipelineField(&cfg.Pipeline, "model", v); err != nil {
			return fmt.Errorf("%sMODEL: %w", EnvPrefix, err)
		}
	}
	ints := map[string]string{
		"EDGE_THRESHOLD": "edge_threshold",
		"ERODE_SIZE":     "erode_size",
		"PADDING_SIZE":   "padding_size",
		"DEBOUNCE_MS":    "debounce_ms",
		"TIMEOUT_S":      "timeout_s",
	}
	for env, key := range ints {
		if v := l.getenv(env); v != "" {
			if err := setPipelineField(&cfg.Pipeline, key, v); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, env, err)
			}
		}
	}
	bools := map[string]*bool{
		"NOTIFY_SAVE":    &cfg.Notify.Save,
		"NOTIFY_COPY":    &cfg.Notify.Copy,
		"NOTIFY_FAILURE": &cfg.Notify.Failure,
	}
	for env, dst := range bools {
		if v := l.getenv(env); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, env, err)
			}
			*dst = b
		}
	}
	return nil
}
