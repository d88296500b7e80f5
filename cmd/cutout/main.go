package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/cutout/internal/config"
	"github.com/example/cutout/internal/notify"
	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
	"github.com/example/cutout/internal/transform"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

// newTransformer is swapped in tests.
var newTransformer = func(serviceURL string, timeout time.Duration) transform.Transformer {
	return transform.Select(serviceURL, timeout)
}

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	saveAlerts    bool
	copyAlerts    bool
	failureAlerts bool
	themeName     string
	serviceURL    string
	logLevel      string
	activeTheme   *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:       program,
		notifier:      r.notifier,
		config:        r.config,
		saveAlerts:    r.saveAlerts,
		copyAlerts:    r.copyAlerts,
		failureAlerts: r.failureAlerts,
		themeName:     r.themeName,
		serviceURL:    r.serviceURL,
		logLevel:      r.logLevel,
		activeTheme:   r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	return newRootWith(cfg, notify.New(prefs))
}

func newRootWith(cfg *config.Config, n *notify.Notifier) *root {
	r := &root{
		fs:       flag.NewFlagSet("cutout", flag.ContinueOnError),
		program:  "cutout",
		notifier: n,
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.failureAlerts, "notify-failure", cfg.Notify.Failure, "show a desktop notification when processing fails")
	r.fs.StringVar(&r.serviceURL, "service", cfg.ServiceURL, "image processing service URL (empty pads and resizes locally)")
	r.fs.StringVar(&r.logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	// Precedence: CLI > Env > Config > Default. Env is already folded into cfg.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (light, dark)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: r}
		}
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if lvl, err := log.ParseLevel(r.logLevel); err == nil {
		log.SetLevel(lvl)
	} else if r.logLevel != "" {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventFailure, r.failureAlerts)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "process":
		cmd, err = parseProcessCmd(subArgs, r.subcommand(cmdName))
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r.subcommand(cmdName))
	case "preview":
		cmd, err = parsePreviewCmd(subArgs, r.subcommand(cmdName))
	case "view":
		cmd, err = parseViewCmd(subArgs, r.subcommand(cmdName))
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r.subcommand(cmdName))
	case "models":
		cmd, err = parseModelsCmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) loadTheme() *theme.Theme {
	themeName := r.themeName
	if themeName == "" {
		themeName = r.config.Theme
	}
	loader := theme.NewLoader()
	loader.Custom = r.config.Themes
	t, err := loader.Load(themeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		return theme.Default()
	}
	return t
}

func (r *root) theme() *theme.Theme {
	if r == nil || r.activeTheme == nil {
		return theme.Default()
	}
	return r.activeTheme
}

func (r *root) backdrop() render.Backdrop {
	if r == nil || r.config == nil {
		return render.Transparent
	}
	b, err := render.ParseBackdrop(r.config.Backdrop)
	if err != nil {
		return render.Transparent
	}
	return b
}

func (r *root) pen() strokes.Pen {
	if r == nil || r.config == nil {
		return strokes.DefaultPen()
	}
	return r.config.Pen
}

// settings are the pipeline defaults from configuration.
func (r *root) settings() pipeline.Settings {
	s := pipeline.DefaultSettings()
	p := r.config.Pipeline
	if p.Model != "" {
		s.Model = p.Model
	}
	s.EdgeThreshold = max(0, min(pipeline.MaxEdgeThreshold, p.EdgeThreshold))
	s.ErodeSize = max(0, min(pipeline.MaxErodeSize, p.ErodeSize))
	s.PaddingSize = transform.ClampPadding(p.PaddingSize)
	return s
}

func (r *root) timeout() time.Duration {
	if r.config.Pipeline.TimeoutS > 0 {
		return time.Duration(r.config.Pipeline.TimeoutS) * time.Second
	}
	return transform.DefaultTimeout
}

func (r *root) newOrchestrator(opts ...pipeline.Option) *pipeline.Orchestrator {
	base := []pipeline.Option{pipeline.WithSettings(r.settings())}
	if ms := r.config.Pipeline.DebounceMS; ms > 0 {
		base = append(base, pipeline.WithDebounce(time.Duration(ms)*time.Millisecond))
	}
	return pipeline.New(newTransformer(r.serviceURL, r.timeout()), append(base, opts...)...)
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}

func (r *root) notifyFailure(err error) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Failure(err)
}
