// Package viewer hosts the editor in a shiny window: it forwards input to
// the canvas, drives the pipeline from keyboard shortcuts and paints the
// displayed image with the strokes on top.
package viewer

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/mobile/event/key"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/clipboard"
	"github.com/example/cutout/internal/interaction"
	"github.com/example/cutout/internal/notify"
	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/theme"
	"github.com/example/cutout/internal/viewport"
)

const (
	defaultWidth  = 960
	defaultHeight = 720
	messageTime   = 3 * time.Second
	paddingStep   = 5
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteImage

// displayEvent carries a decoded image into the event loop.
type displayEvent struct {
	art   *artifact.Image
	img   image.Image
	reset bool
}

type errorEvent struct{ err error }

// refreshEvent asks for a repaint after settings changed.
type refreshEvent struct{}

// Option modifies a Viewer during creation.
type Option func(*Viewer)

// WithTheme sets the colours.
func WithTheme(th *theme.Theme) Option { return func(v *Viewer) { v.theme = th } }

// WithBackdrop sets the initial backdrop.
func WithBackdrop(b render.Backdrop) Option { return func(v *Viewer) { v.backdrop = b } }

// WithPen sets the initial pen.
func WithPen(p strokes.Pen) Option { return func(v *Viewer) { v.pen = p } }

// WithOutput sets the file written by the save shortcut.
func WithOutput(path string) Option { return func(v *Viewer) { v.output = path } }

// WithNotifier reports saves, copies and failures.
func WithNotifier(n *notify.Notifier) Option { return func(v *Viewer) { v.notifier = n } }

// WithShadow adds a drop shadow to exports.
func WithShadow(on bool) Option { return func(v *Viewer) { v.shadow = on } }

// WithSize sets the initial window size.
func WithSize(w, h int) Option {
	return func(v *Viewer) {
		if w > 0 && h > 0 {
			v.width, v.height = w, h
		}
	}
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(v *Viewer) { v.onClose = fn } }

// Viewer is the window state. Everything except post and the pipeline
// listener runs on the window's event loop.
type Viewer struct {
	orch     *pipeline.Orchestrator
	vp       *viewport.Viewport
	canvas   *interaction.Canvas
	ink      *render.Ink
	theme    *theme.Theme
	backdrop render.Backdrop
	pen      strokes.Pen
	shadow   bool
	output   string
	notifier *notify.Notifier
	onClose  func()
	now      func() time.Time

	width, height int

	displayed    *artifact.Image
	img          image.Image
	message      string
	messageUntil time.Time
	lastErr      error

	shortcuts map[interaction.KeyShortcut]string
	actions   map[string]func()
	quit      bool

	mu      sync.Mutex
	send    func(any)
	pending []any
	unsub   func()
}

// New creates a viewer for orch. Events from orch are queued until the
// window starts.
func New(orch *pipeline.Orchestrator, opts ...Option) *Viewer {
	v := &Viewer{
		orch:   orch,
		theme:  theme.Default(),
		pen:    strokes.DefaultPen(),
		now:    time.Now,
		width:  defaultWidth,
		height: defaultHeight,
	}
	for _, o := range opts {
		o(v)
	}
	v.vp = viewport.New(float64(v.width), float64(v.height))
	v.ink = render.NewInk(v.vp)
	v.canvas = interaction.New(v.vp,
		interaction.WithSurface(v.ink),
		interaction.WithPen(v.pen),
		interaction.WithStateListener(v.ink.SetState),
	)
	v.registerShortcuts()
	v.unsub = orch.Subscribe(v.listen)
	if base := orch.Displayed(); base != nil {
		v.listen(pipeline.Event{Type: pipeline.EventImageLoaded, Image: base})
	}
	return v
}

// Canvas exposes the input glue.
func (v *Viewer) Canvas() *interaction.Canvas { return v.canvas }

// Viewport exposes the view transform.
func (v *Viewer) Viewport() *viewport.Viewport { return v.vp }

// Backdrop is the current backdrop.
func (v *Viewer) Backdrop() render.Backdrop { return v.backdrop }

// Shadow reports whether exports get a drop shadow.
func (v *Viewer) Shadow() bool { return v.shadow }

func (v *Viewer) registerShortcuts() {
	v.shortcuts = map[interaction.KeyShortcut]string{}
	v.actions = map[string]func(){}
	reg := func(name string, fn func(), keys ...interaction.KeyShortcut) {
		v.actions[name] = fn
		for _, k := range keys {
			v.shortcuts[k] = name
		}
	}
	reg("pen", v.togglePen, interaction.KeyShortcut{Rune: 'p'})
	reg("remove-background", func() {
		v.orch.SetRemoveBackground(!v.orch.Settings().RemoveBackground)
	}, interaction.KeyShortcut{Rune: 'b'})
	reg("padding", func() {
		v.orch.SetPadding(!v.orch.Settings().PaddingEnabled)
	}, interaction.KeyShortcut{Rune: 'd'})
	reg("resize", func() {
		v.orch.SetResizeActive(!v.orch.Settings().ResizeActive)
	}, interaction.KeyShortcut{Rune: 'r'})
	reg("padding-less", func() { v.stepPadding(-paddingStep) }, interaction.KeyShortcut{Rune: '['})
	reg("padding-more", func() { v.stepPadding(paddingStep) }, interaction.KeyShortcut{Rune: ']'})
	reg("backdrop", func() {
		v.backdrop = v.backdrop.Next()
		v.flash("Backdrop: " + v.backdrop.String())
	}, interaction.KeyShortcut{Rune: 'k'})
	reg("shadow", func() {
		v.shadow = !v.shadow
		v.flash(fmt.Sprintf("Shadow: %v", v.shadow))
	}, interaction.KeyShortcut{Rune: 'h'})
	reg("reset-view", v.canvas.Reset, interaction.KeyShortcut{Rune: '0'})
	reg("clear", v.canvas.Clear, interaction.KeyShortcut{Rune: 'x'})
	reg("save", func() {
		if err := v.Save(v.output); err != nil {
			v.fail(err)
		}
	}, interaction.KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	reg("copy", func() {
		if err := v.Copy(); err != nil {
			v.fail(err)
		}
	}, interaction.KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	reg("quit", func() { v.quit = true },
		interaction.KeyShortcut{Code: key.CodeEscape},
		interaction.KeyShortcut{Rune: 'q', Modifiers: key.ModControl})
}

func (v *Viewer) togglePen() {
	if err := v.canvas.SetTool(!v.canvas.ToolActive()); err != nil {
		v.flash(err.Error())
		return
	}
	if v.canvas.ToolActive() {
		v.flash("Pen on")
	} else {
		v.flash("Pen off")
	}
}

// stepPadding commits through the debounce window, so holding a key
// produces one run.
func (v *Viewer) stepPadding(delta int) {
	cur := v.orch.Draft().PaddingSize
	if err := v.orch.Commit(pipeline.Change{Field: pipeline.FieldPaddingSize, Value: cur + delta}); err != nil {
		v.fail(err)
	}
}

// Key handles a key event on the loop: canvas shortcuts first, then the
// viewer's own.
func (v *Viewer) Key(e key.Event) bool {
	if v.canvas.Key(e) {
		return true
	}
	if e.Direction != key.DirPress {
		return false
	}
	for _, ks := range []interaction.KeyShortcut{
		{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers},
		{Code: e.Code, Modifiers: e.Modifiers},
	} {
		if ks.Rune == 0 && ks.Code == key.CodeUnknown {
			continue
		}
		if name, ok := v.shortcuts[ks]; ok {
			v.actions[name]()
			return true
		}
	}
	return false
}

// listen runs on orchestrator goroutines. Decoding happens here so the
// loop only swaps pointers.
func (v *Viewer) listen(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventImageLoaded, pipeline.EventDisplayChanged:
		img, err := ev.Image.Decode()
		if err != nil {
			v.post(errorEvent{err})
			return
		}
		v.post(displayEvent{art: ev.Image, img: img, reset: ev.Type == pipeline.EventImageLoaded})
	case pipeline.EventError:
		v.post(errorEvent{ev.Err})
	case pipeline.EventCommitted, pipeline.EventStageChanged, pipeline.EventProcessing:
		v.post(refreshEvent{})
	}
}

// post delivers ev to the loop, or queues it until the loop starts.
func (v *Viewer) post(ev any) {
	v.mu.Lock()
	send := v.send
	if send == nil {
		v.pending = append(v.pending, ev)
	}
	v.mu.Unlock()
	if send != nil {
		send(ev)
	}
}

// attach starts delivering events through send and returns what was
// queued before.
func (v *Viewer) attach(send func(any)) []any {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.send = send
	queued := v.pending
	v.pending = nil
	return queued
}

func (v *Viewer) detach() {
	v.mu.Lock()
	v.send = nil
	v.mu.Unlock()
	if v.unsub != nil {
		v.unsub()
	}
}

// handle applies a loop event and reports whether a repaint is needed.
func (v *Viewer) handle(ev any) bool {
	switch e := ev.(type) {
	case displayEvent:
		art, img, reset := e.art, e.img, e.reset || v.displayed == nil
		if cur := v.orch.Displayed(); !artifact.Same(art, cur) {
			// Superseded by a later run or load. A reset still starts the
			// session, on the image shown now.
			if !reset || cur == nil {
				return false
			}
			decoded, err := cur.Decode()
			if err != nil {
				v.fail(err)
				return true
			}
			art, img = cur, decoded
		}
		b := img.Bounds()
		if reset {
			v.canvas.SetImage(b.Dx(), b.Dy())
		} else {
			v.canvas.Reframe(b.Dx(), b.Dy())
		}
		v.displayed = art
		v.img = img
		v.lastErr = nil
		return true
	case errorEvent:
		v.fail(e.err)
		return true
	case refreshEvent:
		return true
	}
	return false
}

func (v *Viewer) fail(err error) {
	v.lastErr = err
	v.flash(err.Error())
	log.WithError(err).Warn("viewer")
	v.notifier.Failure(err)
}

func (v *Viewer) flash(msg string) {
	v.message = msg
	v.messageUntil = v.now().Add(messageTime)
}

// Resize follows the window size.
func (v *Viewer) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	v.width, v.height = w, h
	v.canvas.Resize(float64(w), float64(h))
}

// Export merges the strokes into a and optionally adds a drop shadow.
func Export(a *artifact.Image, history []strokes.Action, shadow bool) (*artifact.Image, error) {
	merged, err := render.MergeArtifact(a, history)
	if err != nil || !shadow {
		return merged, err
	}
	img, err := merged.Decode()
	if err != nil {
		return nil, err
	}
	return artifact.FromImage(render.DropShadow(img, render.DefaultShadowOptions()).Image)
}

func (v *Viewer) export() (*artifact.Image, error) {
	if v.displayed == nil {
		return nil, interaction.ErrNoImage
	}
	return Export(v.displayed, v.canvas.State().History, v.shadow)
}

// Save writes the displayed image with its strokes to path.
func (v *Viewer) Save(path string) error {
	if path == "" {
		return fmt.Errorf("no output file set")
	}
	out, err := v.export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.WithField("path", path).Info("Saved image")
	v.flash("Saved " + path)
	v.notifier.Save(path)
	return nil
}

// Copy puts the displayed image with its strokes on the clipboard.
func (v *Viewer) Copy() error {
	out, err := v.export()
	if err != nil {
		return err
	}
	if err := writeClipboard(out); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	v.flash("Copied image")
	v.notifier.Copy("image")
	return nil
}
