// Package interaction turns pointer, wheel and keyboard events into
// viewport and stroke state changes.
package interaction

import (
	"errors"
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/viewport"
)

// ErrNoImage is returned when the pen tool is enabled before an image is
// shown.
var ErrNoImage = errors.New("no image to draw on")

// Mode is the input mode latched at pointer-down.
type Mode int

const (
	ModeIdle Mode = iota
	ModePan
	ModeDraw
)

func (m Mode) String() string {
	switch m {
	case ModePan:
		return "pan"
	case ModeDraw:
		return "draw"
	}
	return "idle"
}

// Surface draws strokes. Segment extends the in-progress stroke by one
// line; Replay redraws everything at a new scale; Invalidate asks for a
// repaint without changing any stroke.
type Surface interface {
	Segment(seg strokes.Segment, scale float64)
	Replay(st strokes.State, scale float64)
	Invalidate()
}

type nopSurface struct{}

func (nopSurface) Segment(strokes.Segment, float64) {}
func (nopSurface) Replay(strokes.State, float64)    {}
func (nopSurface) Invalidate()                      {}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// chord matches a letter with modifiers whether the host reports the rune
// or only the key code.
func chord(r rune, code key.Code, mods key.Modifiers) shortcutList {
	return shortcutList{{Rune: r, Modifiers: mods}, {Code: code, Modifiers: mods}}
}

var (
	UndoKeys = append(chord('z', key.CodeZ, key.ModControl), chord('z', key.CodeZ, key.ModMeta)...)
	RedoKeys = append(append(
		chord('z', key.CodeZ, key.ModControl|key.ModShift),
		chord('z', key.CodeZ, key.ModMeta|key.ModShift)...),
		chord('y', key.CodeY, key.ModControl)...)
)

// Option configures a Canvas.
type Option func(*Canvas)

// WithSurface sets where strokes are drawn.
func WithSurface(s Surface) Option {
	return func(c *Canvas) { c.surface = s }
}

// WithPen sets the initial pen.
func WithPen(p strokes.Pen) Option {
	return func(c *Canvas) { c.st = c.st.SetPen(p) }
}

// WithStateListener is called whenever the stroke state changes.
func WithStateListener(fn func(strokes.State)) Option {
	return func(c *Canvas) { c.onState = fn }
}

// Canvas is the event glue between a host window and the viewport and
// stroke state. It is not safe for concurrent use; drive it from the
// host's event loop.
type Canvas struct {
	vp      *viewport.Viewport
	st      strokes.State
	surface Surface
	onState func(strokes.State)

	mode     Mode
	last     r2.Vec
	mounted  bool
	hasImage bool

	keyboardAction map[KeyShortcut]string
	actions        map[string]func()
}

// New returns a canvas driving vp.
func New(vp *viewport.Viewport, opts ...Option) *Canvas {
	c := &Canvas{
		vp:      vp,
		st:      strokes.New(strokes.DefaultPen()),
		surface: nopSurface{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.keyboardAction = map[KeyShortcut]string{}
	c.actions = map[string]func(){}
	c.register("undo", UndoKeys, c.Undo)
	c.register("redo", RedoKeys, c.Redo)
	return c
}

func (c *Canvas) register(name string, keys KeyboardShortcuts, fn func()) {
	c.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keyboardAction[sc] = name
		}
	}
}

// Viewport returns the driven viewport.
func (c *Canvas) Viewport() *viewport.Viewport { return c.vp }

// State returns the current stroke state.
func (c *Canvas) State() strokes.State { return c.st }

// Mode reports the latched input mode.
func (c *Canvas) Mode() Mode { return c.mode }

// ToolActive reports whether the pen tool is enabled.
func (c *Canvas) ToolActive() bool { return c.st.Active }

// Mount starts handling keyboard shortcuts.
func (c *Canvas) Mount() { c.mounted = true }

// Unmount stops handling keyboard shortcuts and ends any latched mode.
func (c *Canvas) Unmount() {
	c.Leave()
	c.mounted = false
}

// Mounted reports whether shortcuts are handled.
func (c *Canvas) Mounted() bool { return c.mounted }

// SetImage shows a new image of w x h pixels. The view is reset and
// strokes are dropped.
func (c *Canvas) SetImage(w, h int) {
	c.mode = ModeIdle
	c.hasImage = w > 0 && h > 0
	c.vp.SetImage(w, h)
	active := c.st.Active && c.hasImage
	c.setState(strokes.New(c.st.Pen).SetActive(active))
	c.surface.Replay(c.st, c.vp.Scale)
}

// Reframe changes the displayed image size without resetting the view,
// for a new derived image of the same picture. Strokes move by half the
// size change so they stay over a picture centred in the new content.
func (c *Canvas) Reframe(w, h int) {
	old := c.vp.ContentSize()
	d := r2.Scale(0.5, r2.Sub(r2.Vec{X: float64(w), Y: float64(h)}, old))
	c.vp.SetContentSize(w, h)
	if d != (r2.Vec{}) {
		c.setState(c.st.Transform(func(p r2.Vec) r2.Vec { return r2.Add(p, d) }))
	}
	c.surface.Replay(c.st, c.vp.Scale)
}

// Resize changes the container size.
func (c *Canvas) Resize(w, h float64) {
	c.vp.SetContainer(w, h)
	c.surface.Replay(c.st, c.vp.Scale)
}

// SetTool enables or disables the pen. Enabling needs an image.
func (c *Canvas) SetTool(on bool) error {
	if on && !c.hasImage {
		return ErrNoImage
	}
	if !on && c.mode == ModeDraw {
		c.mode = ModeIdle
	}
	c.setState(c.st.SetActive(on))
	return nil
}

// SetPen replaces the pen used by later strokes.
func (c *Canvas) SetPen(p strokes.Pen) {
	c.setState(c.st.SetPen(p))
}

// Undo removes the newest stroke.
func (c *Canvas) Undo() {
	if !c.st.CanUndo() {
		return
	}
	c.setState(c.st.Undo())
	c.surface.Replay(c.st, c.vp.Scale)
}

// Redo restores the most recently undone stroke.
func (c *Canvas) Redo() {
	if !c.st.CanRedo() {
		return
	}
	c.setState(c.st.Redo())
	c.surface.Replay(c.st, c.vp.Scale)
}

// Clear removes all strokes.
func (c *Canvas) Clear() {
	c.setState(c.st.Clear())
	c.surface.Replay(c.st, c.vp.Scale)
}

// Reset returns the view to the fitted baseline.
func (c *Canvas) Reset() {
	c.vp.Reset()
	c.surface.Replay(c.st, c.vp.Scale)
}

// Mouse handles a pointer or wheel event.
func (c *Canvas) Mouse(e mouse.Event) {
	m := r2.Vec{X: float64(e.X), Y: float64(e.Y)}
	switch e.Direction {
	case mouse.DirStep:
		switch e.Button {
		case mouse.ButtonWheelUp:
			c.Wheel(m, -1)
		case mouse.ButtonWheelDown:
			c.Wheel(m, 1)
		}
	case mouse.DirPress:
		c.press(m, e.Button)
	case mouse.DirNone:
		c.move(m)
	case mouse.DirRelease:
		if m != c.last {
			c.move(m)
		}
		c.Leave()
	}
}

// Wheel zooms at m. Negative deltaY zooms in.
func (c *Canvas) Wheel(m r2.Vec, deltaY float64) {
	if deltaY == 0 {
		return
	}
	c.vp.ZoomAt(m, deltaY)
	c.surface.Replay(c.st, c.vp.Scale)
}

func (c *Canvas) press(m r2.Vec, b mouse.Button) {
	if c.mode != ModeIdle {
		return
	}
	switch b {
	case mouse.ButtonMiddle:
		c.mode = ModePan
	case mouse.ButtonLeft:
		if c.st.Active {
			c.beginStroke(m, strokes.Primary)
		} else {
			c.mode = ModePan
		}
	case mouse.ButtonRight:
		if c.st.Active {
			c.beginStroke(m, strokes.Secondary)
		}
	}
	c.last = m
}

func (c *Canvas) beginStroke(m r2.Vec, b strokes.Button) {
	c.mode = ModeDraw
	c.setState(c.st.Begin(c.drawPoint(m), b))
}

// drawPoint maps a container point to the coordinates strokes are stored
// in: relative to the content layer and divided by the scale.
func (c *Canvas) drawPoint(m r2.Vec) r2.Vec {
	return c.vp.ContentAt(m)
}

func (c *Canvas) move(m r2.Vec) {
	switch c.mode {
	case ModePan:
		c.vp.Pan(r2.Sub(m, c.last))
		c.surface.Invalidate()
	case ModeDraw:
		next, seg, ok := c.st.Extend(c.drawPoint(m))
		if ok {
			c.setState(next)
			c.surface.Segment(seg, c.vp.Scale)
		}
	}
	c.last = m
}

// Leave ends the latched mode as a pointer-up would, committing any
// in-progress stroke.
func (c *Canvas) Leave() {
	if c.mode == ModeDraw {
		c.setState(c.st.Commit())
	}
	c.mode = ModeIdle
}

// Key handles a keyboard event and reports whether it triggered an
// action. Shortcuts fire on key press while mounted.
func (c *Canvas) Key(e key.Event) bool {
	if !c.mounted || e.Direction != key.DirPress {
		return false
	}
	for _, ks := range []KeyShortcut{
		{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers},
		{Code: e.Code, Modifiers: e.Modifiers},
	} {
		if ks.Rune == 0 && ks.Code == key.CodeUnknown {
			continue
		}
		if name, ok := c.keyboardAction[ks]; ok {
			c.actions[name]()
			return true
		}
	}
	return false
}

func (c *Canvas) setState(st strokes.State) {
	c.st = st
	if c.onState != nil {
		c.onState(st)
	}
}
