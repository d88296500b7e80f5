package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/cutouts
service_url = http://localhost:5000
backdrop = dark

[notify]
save = false
copy = true
failure = false

[pipeline]
model = silueta
edge_threshold = 80
padding_size = 75

[pen]
primary = blue
size = 6

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/cutouts" {
		t.Errorf("Expected save_dir '/tmp/cutouts', got '%s'", cfg.SaveDir)
	}
	if cfg.ServiceURL != "http://localhost:5000" {
		t.Errorf("Unexpected service_url %q", cfg.ServiceURL)
	}
	if cfg.Backdrop != "dark" {
		t.Errorf("Unexpected backdrop %q", cfg.Backdrop)
	}

	if cfg.Notify.Save || !cfg.Notify.Copy || cfg.Notify.Failure {
		t.Errorf("Unexpected notify settings: %+v", cfg.Notify)
	}

	if cfg.Pipeline.Model != "silueta" || cfg.Pipeline.EdgeThreshold != 80 {
		t.Errorf("Unexpected pipeline settings: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.PaddingSize != 50 {
		t.Errorf("padding_size should clamp to 50, got %d", cfg.Pipeline.PaddingSize)
	}
	if cfg.Pipeline.ErodeSize != 3 {
		t.Errorf("erode_size should keep its default, got %d", cfg.Pipeline.ErodeSize)
	}

	if cfg.Pen.Primary.Color != "#0000ff" || cfg.Pen.Secondary.Size != 6 {
		t.Errorf("Unexpected pen: %+v", cfg.Pen)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	for _, input := range []string{
		"[pipeline]\nmodel = nope\n",
		"[pipeline]\nerode_size = -1\n",
		"[notify]\nsave = maybe\n",
		"[pen]\nopacity = 2\n",
		"backdrop = plaid\n",
		"[theme.x]\nBackground = notacolor\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Parse(%q) succeeded", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/cutouts

[notify]
save = true
copy = false

[pipeline]
model = u2net_human_seg
debounce_ms = 150

[pen]
secondary = #00ff00
opacity = 0.5

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	// 4. Compare relevant fields
	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Pipeline != cfg2.Pipeline {
		t.Errorf("Pipeline mismatch: %+v vs %+v", cfg.Pipeline, cfg2.Pipeline)
	}
	if cfg.Pen != cfg2.Pen {
		t.Errorf("Pen mismatch: %+v vs %+v", cfg.Pen, cfg2.Pen)
	}

	// Check theme persistence
	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if t1.Background != t2.Background {
		t.Errorf("Theme background mismatch: %v vs %v", t1.Background, t2.Background)
	}
}

func TestLoaderAppliesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.rc")
	if err := os.WriteFile(path, []byte("save_dir = /from/file\n[pipeline]\nerode_size = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"CUTOUT_SAVE_DIR":       "/from/env",
		"CUTOUT_EDGE_THRESHOLD": "120",
		"CUTOUT_NOTIFY_SAVE":    "true",
	}
	l := NewLoader("1.0.0", path)
	l.Getenv = func(k string) string { return env[k] }

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SaveDir != "/from/env" {
		t.Errorf("save_dir = %q, want env override", cfg.SaveDir)
	}
	if cfg.Pipeline.ErodeSize != 4 || cfg.Pipeline.EdgeThreshold != 120 {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if !cfg.Notify.Save {
		t.Errorf("CUTOUT_NOTIFY_SAVE ignored")
	}

	env["CUTOUT_MODEL"] = "bogus"
	if _, err := l.Load(); err == nil {
		t.Errorf("bad CUTOUT_MODEL accepted")
	}
}
