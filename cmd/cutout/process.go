package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/transform"
	"github.com/example/cutout/internal/viewer"
)

type processCmd struct {
	*root
	fs *flag.FlagSet

	src         source
	output      string
	toClipboard bool
	report      string
	shadow      bool

	removeBG   bool
	model      string
	edge       int
	erode      int
	pad        int
	size       string
	keepAspect bool
}

func (p *processCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

// processReport is written by -report.
type processReport struct {
	Input     string            `yaml:"input"`
	Output    string            `yaml:"output,omitempty"`
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	Settings  pipeline.Settings `yaml:"settings"`
	BGRemoved bool              `yaml:"background_removed"`
	Stages    map[string]string `yaml:"stages"`
	Elapsed   string            `yaml:"elapsed"`
}

func parseProcessCmd(args []string, r *root) (*processCmd, error) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	p := &processCmd{root: r, fs: fs}
	fs.Usage = usageFunc(p)
	defaults := pipeline.DefaultSettings()
	if r != nil && r.config != nil {
		defaults = r.settings()
	}
	fs.StringVar(&p.src.file, "file", "", "input image file")
	fs.BoolVar(&p.src.fromClipboard, "from-clipboard", false, "read the input image from the clipboard")
	fs.BoolVar(&p.src.capture, "capture", false, "capture the screen as the input image")
	fs.StringVar(&p.src.display, "display", "", "monitor to capture (primary, index or name)")
	fs.StringVar(&p.output, "output", "", "output PNG file")
	fs.BoolVar(&p.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.StringVar(&p.report, "report", "", "write a YAML report of the run to this file")
	fs.BoolVar(&p.shadow, "shadow", false, "add a drop shadow to the result")
	fs.BoolVar(&p.removeBG, "remove-bg", false, "remove the background")
	fs.StringVar(&p.model, "model", defaults.Model, "background removal model")
	fs.IntVar(&p.edge, "edge", defaults.EdgeThreshold, "edge threshold (0-255)")
	fs.IntVar(&p.erode, "erode", defaults.ErodeSize, "erode size (0-25)")
	fs.IntVar(&p.pad, "pad", -1, "pad by this percentage (0-50); negative disables padding")
	fs.StringVar(&p.size, "size", "", "resize to WIDTHxHEIGHT or a preset")
	fs.BoolVar(&p.keepAspect, "keep-aspect", true, "keep the aspect ratio when resizing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && p.src.file == "" {
		p.src.file = fs.Arg(0)
	}
	if err := p.src.validate(); err != nil {
		return nil, err
	}
	if p.src.count() == 0 {
		return nil, &UsageError{of: p}
	}
	if p.output == "" && !p.toClipboard {
		return nil, fmt.Errorf("an -output file or -to-clipboard is required")
	}
	return p, nil
}

// settings turns the flags into the pipeline settings for one run.
func (p *processCmd) settings() (pipeline.Settings, error) {
	s := pipeline.DefaultSettings()
	if p.root != nil && p.root.config != nil {
		s = p.root.settings()
	}
	if _, err := transform.LookupModel(p.model); err != nil {
		return s, err
	}
	s.Model = p.model
	s.EdgeThreshold = p.edge
	s.ErodeSize = p.erode
	s.RemoveBackground = p.removeBG
	if p.pad >= 0 {
		s.PaddingEnabled = true
		s.PaddingSize = p.pad
	}
	s.MaintainAspectRatio = p.keepAspect
	if p.size != "" {
		w, h, err := transform.ParseSize(p.size)
		if err != nil {
			return s, err
		}
		s.ResizeActive = true
		s.TargetWidth, s.TargetHeight = w, h
	}
	return s, nil
}

func (p *processCmd) Run() error {
	start := time.Now()
	s, err := p.settings()
	if err != nil {
		return err
	}
	in, err := p.src.load()
	if err != nil {
		return err
	}
	orch := p.root.newOrchestrator()
	defer orch.Close()
	if err := orch.Load(in); err != nil {
		return err
	}
	// a failed stage is rolled back and the rest re-derived, which clears
	// LastError, so failures are collected from the event stream
	var (
		mu     sync.Mutex
		runErr error
	)
	unsub := orch.Subscribe(func(ev pipeline.Event) {
		if ev.Type != pipeline.EventError {
			return
		}
		mu.Lock()
		if runErr == nil {
			runErr = ev.Err
		}
		mu.Unlock()
	})
	defer unsub()
	if err := orch.Apply(s); err != nil {
		return err
	}
	orch.Wait()
	mu.Lock()
	err = runErr
	mu.Unlock()
	if err != nil {
		p.root.notifyFailure(err)
		return fmt.Errorf("failed to process image: %w", err)
	}

	out, err := viewer.Export(orch.Displayed(), nil, p.shadow)
	if err != nil {
		return err
	}
	if p.output != "" {
		if err := writeArtifact(p.output, out); err != nil {
			return err
		}
		log.WithFields(log.Fields{"path": p.output, "width": out.Width, "height": out.Height}).Info("Saved image")
		p.root.notifySave(p.output)
	}
	if p.toClipboard {
		if err := writeClipboardFn(out); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		p.root.notifyCopy("image")
	}
	if p.report != "" {
		return p.writeReport(orch, out.Width, out.Height, time.Since(start))
	}
	return nil
}

func (p *processCmd) writeReport(orch *pipeline.Orchestrator, w, h int, elapsed time.Duration) error {
	rep := processReport{
		Input:     p.inputName(),
		Output:    p.output,
		Width:     w,
		Height:    h,
		Settings:  orch.Applied(),
		BGRemoved: orch.BackgroundRemoved(),
		Stages:    map[string]string{},
		Elapsed:   elapsed.Round(time.Millisecond).String(),
	}
	for _, st := range pipeline.Stages {
		rep.Stages[st.String()] = orch.StageState(st).String()
	}
	f, err := os.Create(p.report)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", p.report, err)
	}
	if err := encodeReport(f, rep); err != nil {
		return fmt.Errorf("report %s: %w", p.report, err)
	}
	return nil
}

// encodeReport writes rep as YAML and closes w. A failed close is
// reported like a failed write.
func encodeReport(w io.WriteCloser, rep processReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(rep)
	if err == nil {
		err = enc.Close()
	}
	if err != nil {
		w.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

func (p *processCmd) inputName() string {
	switch {
	case p.src.capture:
		return "screen"
	case p.src.fromClipboard:
		return "clipboard"
	}
	return p.src.file
}
