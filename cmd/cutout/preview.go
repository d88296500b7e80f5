package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/viewport"
)

// previewCmd renders one frame of the canvas to a file without opening a
// window.
type previewCmd struct {
	*root
	fs *flag.FlagSet

	src      source
	output   string
	width    int
	height   int
	zoom     int
	at       string
	pan      string
	backdrop string
	strokes  string
}

func (p *previewCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parsePreviewCmd(args []string, r *root) (*previewCmd, error) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	c := &previewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.src.file, "file", "", "image file to open")
	fs.BoolVar(&c.src.fromClipboard, "from-clipboard", false, "read the image from the clipboard")
	fs.BoolVar(&c.src.capture, "capture", false, "preview a screen capture")
	fs.StringVar(&c.src.display, "display", "", "monitor to capture (primary, index or name)")
	fs.StringVar(&c.output, "output", "preview.png", "output file path")
	fs.IntVar(&c.width, "width", 800, "canvas width")
	fs.IntVar(&c.height, "height", 600, "canvas height")
	fs.IntVar(&c.zoom, "zoom", 100, "zoom percentage relative to fit")
	fs.StringVar(&c.at, "at", "", "canvas point X,Y that stays fixed while zooming (default centre)")
	fs.StringVar(&c.pan, "pan", "", "pan the image by DX,DY canvas pixels")
	fs.StringVar(&c.backdrop, "backdrop", "", "backdrop behind transparent pixels (checker, light, dark)")
	fs.StringVar(&c.strokes, "strokes", "", "YAML strokes document to draw over the image")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.src.validate(); err != nil {
		return nil, err
	}
	if c.src.count() == 0 {
		return nil, &UsageError{of: c}
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", c.width, c.height)
	}
	if c.zoom <= 0 {
		return nil, fmt.Errorf("zoom must be positive, got %d", c.zoom)
	}
	return c, nil
}

func parsePoint(s string) (r2.Vec, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return r2.Vec{}, fmt.Errorf("point %q must look like X,Y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("point %q: %w", s, err)
	}
	return r2.Vec{X: x, Y: y}, nil
}

// viewport builds the view transform described by the flags.
func (p *previewCmd) viewport(w, h int) (*viewport.Viewport, error) {
	vp := viewport.New(float64(p.width), float64(p.height))
	vp.SetImage(w, h)
	if p.zoom != 100 {
		anchor := vp.Center()
		if p.at != "" {
			var err error
			if anchor, err = parsePoint(p.at); err != nil {
				return nil, err
			}
		}
		vp.ZoomTo(anchor, vp.Fit*float64(p.zoom)/100)
	}
	if p.pan != "" {
		d, err := parsePoint(p.pan)
		if err != nil {
			return nil, err
		}
		vp.Pan(d)
	}
	return vp, nil
}

func (p *previewCmd) Run() error {
	in, err := p.src.load()
	if err != nil {
		return err
	}
	img, err := in.Decode()
	if err != nil {
		return err
	}
	vp, err := p.viewport(in.Width, in.Height)
	if err != nil {
		return err
	}
	backdrop := p.root.backdrop()
	if p.backdrop != "" {
		if backdrop, err = render.ParseBackdrop(p.backdrop); err != nil {
			return err
		}
	}
	view := render.View{Image: img, Viewport: vp, Backdrop: backdrop, Theme: p.root.theme()}
	if p.strokes != "" {
		f, err := os.Open(p.strokes)
		if err != nil {
			return fmt.Errorf("failed to open strokes: %w", err)
		}
		st, err := strokes.Load(f, p.root.pen())
		f.Close()
		if err != nil {
			return err
		}
		view.State = st
	}
	dst := newCanvasImage(p.width, p.height)
	render.Compose(dst, view)
	if err := writeImageFile(p.output, dst); err != nil {
		return err
	}
	log.WithFields(log.Fields{"path": p.output, "zoom": vp.ZoomPercent()}).Info("Saved preview")
	return nil
}
