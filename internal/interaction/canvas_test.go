package interaction

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/viewport"
)

type recorder struct {
	segments    []strokes.Segment
	replays     int
	invalidated int
	lastScale   float64
}

func (r *recorder) Segment(seg strokes.Segment, scale float64) {
	r.segments = append(r.segments, seg)
	r.lastScale = scale
}

func (r *recorder) Replay(_ strokes.State, scale float64) {
	r.replays++
	r.lastScale = scale
}

func (r *recorder) Invalidate() { r.invalidated++ }

func newCanvas(t *testing.T) (*Canvas, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := New(viewport.New(800, 600), WithSurface(rec))
	c.SetImage(1000, 500)
	return c, rec
}

func ev(x, y float32, b mouse.Button, d mouse.Direction) mouse.Event {
	return mouse.Event{X: x, Y: y, Button: b, Direction: d}
}

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestLeftButtonPansWhenToolInactive(t *testing.T) {
	c, rec := newCanvas(t)
	c.Mouse(ev(100, 100, mouse.ButtonLeft, mouse.DirPress))
	if c.Mode() != ModePan {
		t.Fatalf("mode = %v, want pan", c.Mode())
	}
	c.Mouse(ev(130, 90, mouse.ButtonNone, mouse.DirNone))
	c.Mouse(ev(130, 90, mouse.ButtonLeft, mouse.DirRelease))
	if got := c.Viewport().Translate; !near(got, r2.Vec{X: 30, Y: -10}) {
		t.Fatalf("translate = %v, want (30,-10)", got)
	}
	if c.Mode() != ModeIdle || rec.invalidated == 0 {
		t.Fatalf("mode %v invalidated %d", c.Mode(), rec.invalidated)
	}
	if len(c.State().History) != 0 {
		t.Fatalf("panning recorded a stroke")
	}
}

func TestDrawingUsesButtonColourAndLatches(t *testing.T) {
	c, rec := newCanvas(t)
	pen := strokes.DefaultPen()
	if err := c.SetTool(true); err != nil {
		t.Fatalf("SetTool: %v", err)
	}
	c.Mouse(ev(400, 300, mouse.ButtonRight, mouse.DirPress))
	// a left press mid-drag does not re-latch
	c.Mouse(ev(410, 300, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(410, 305, mouse.ButtonNone, mouse.DirNone))
	c.Mouse(ev(420, 310, mouse.ButtonNone, mouse.DirNone))
	c.Mouse(ev(420, 310, mouse.ButtonRight, mouse.DirRelease))

	hist := c.State().History
	if len(hist) != 1 {
		t.Fatalf("history = %d strokes, want 1", len(hist))
	}
	if hist[0].Style != pen.Secondary {
		t.Fatalf("style = %+v, want secondary %+v", hist[0].Style, pen.Secondary)
	}
	if len(rec.segments) != 2 {
		t.Fatalf("segments = %d, want one per move", len(rec.segments))
	}
	// 1000x500 in 800x600 fits at 0.72, so the centre maps to the middle
	if p := hist[0].Points[0]; !near(p, r2.Vec{X: 500, Y: 250}) {
		t.Fatalf("first point = %v, want (500,250)", p)
	}
}

func TestMiddleButtonAlwaysPans(t *testing.T) {
	c, _ := newCanvas(t)
	if err := c.SetTool(true); err != nil {
		t.Fatalf("SetTool: %v", err)
	}
	c.Mouse(ev(10, 10, mouse.ButtonMiddle, mouse.DirPress))
	c.Mouse(ev(20, 20, mouse.ButtonNone, mouse.DirNone))
	c.Leave()
	if len(c.State().History) != 0 || !near(c.Viewport().Translate, r2.Vec{X: 10, Y: 10}) {
		t.Fatalf("middle drag drew or did not pan: %v", c.Viewport().Translate)
	}
}

func TestClickWithoutDragRecordsNothing(t *testing.T) {
	c, _ := newCanvas(t)
	c.SetTool(true)
	c.Mouse(ev(50, 50, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(50, 50, mouse.ButtonLeft, mouse.DirRelease))
	if len(c.State().History) != 0 {
		t.Fatalf("a click recorded a stroke")
	}
	if c.Mode() != ModeIdle || c.State().Drawing() {
		t.Fatalf("click left the canvas drawing")
	}
}

func TestLeaveCommitsStroke(t *testing.T) {
	c, _ := newCanvas(t)
	c.SetTool(true)
	c.Mouse(ev(50, 50, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(60, 60, mouse.ButtonNone, mouse.DirNone))
	c.Leave()
	if len(c.State().History) != 1 || c.Mode() != ModeIdle {
		t.Fatalf("leave did not commit: %d strokes, mode %v", len(c.State().History), c.Mode())
	}
}

func TestPointsIgnoreLaterPan(t *testing.T) {
	c, _ := newCanvas(t)
	c.SetTool(true)
	c.Mouse(ev(400, 300, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(436, 300, mouse.ButtonNone, mouse.DirNone))
	c.Leave()
	before := c.State().History[0].Points

	c.Mouse(ev(0, 0, mouse.ButtonMiddle, mouse.DirPress))
	c.Mouse(ev(100, 50, mouse.ButtonNone, mouse.DirNone))
	c.Leave()

	after := c.State().History[0].Points
	for i := range before {
		if !near(before[i], after[i]) {
			t.Fatalf("point %d moved from %v to %v", i, before[i], after[i])
		}
	}
	if !near(after[1], r2.Vec{X: 550, Y: 250}) {
		t.Fatalf("second point = %v, want (550,250)", after[1])
	}
}

func TestWheelZoomsAtCursorAndReplays(t *testing.T) {
	c, rec := newCanvas(t)
	vp := c.Viewport()
	m := r2.Vec{X: 200, Y: 150}
	anchor := vp.ContentAt(m)
	replays := rec.replays
	c.Mouse(ev(200, 150, mouse.ButtonWheelUp, mouse.DirStep))
	if vp.Scale <= vp.Fit {
		t.Fatalf("wheel up did not zoom in: %v", vp.Scale)
	}
	if !near(vp.ContentAt(m), anchor) {
		t.Fatalf("anchor moved: %v -> %v", anchor, vp.ContentAt(m))
	}
	c.Mouse(ev(200, 150, mouse.ButtonWheelDown, mouse.DirStep))
	if rec.replays != replays+2 || rec.lastScale != vp.Scale {
		t.Fatalf("replays = %d scale %v", rec.replays-replays, rec.lastScale)
	}
}

func TestToolNeedsImage(t *testing.T) {
	c := New(viewport.New(100, 100))
	if err := c.SetTool(true); !errors.Is(err, ErrNoImage) {
		t.Fatalf("SetTool without image = %v", err)
	}
	c.SetImage(10, 10)
	if err := c.SetTool(true); err != nil || !c.ToolActive() {
		t.Fatalf("SetTool = %v active %v", err, c.ToolActive())
	}
}

func TestShortcutsOnlyWhileMounted(t *testing.T) {
	c, rec := newCanvas(t)
	c.SetTool(true)
	c.Mouse(ev(50, 50, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(60, 60, mouse.ButtonNone, mouse.DirNone))
	c.Leave()

	undo := key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl, Direction: key.DirPress}
	if c.Key(undo) {
		t.Fatalf("shortcut handled while unmounted")
	}
	c.Mount()
	if c.Key(key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl, Direction: key.DirRelease}) {
		t.Fatalf("release handled")
	}
	replays := rec.replays
	if !c.Key(undo) || len(c.State().History) != 0 || rec.replays != replays+1 {
		t.Fatalf("ctrl+z did not undo")
	}
	redo := key.Event{Rune: 'Z', Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift, Direction: key.DirPress}
	if !c.Key(redo) || len(c.State().History) != 1 {
		t.Fatalf("ctrl+shift+z did not redo")
	}
	c.Key(undo)
	if !c.Key(key.Event{Code: key.CodeY, Modifiers: key.ModControl, Direction: key.DirPress}) || len(c.State().History) != 1 {
		t.Fatalf("ctrl+y by key code did not redo")
	}
	if c.Key(key.Event{Rune: 'z', Code: key.CodeZ, Direction: key.DirPress}) {
		t.Fatalf("plain z handled as a shortcut")
	}
	c.Unmount()
	if c.Key(undo) {
		t.Fatalf("shortcut handled after unmount")
	}
}

func TestStateListener(t *testing.T) {
	var seen int
	c := New(viewport.New(100, 100), WithStateListener(func(strokes.State) { seen++ }))
	c.SetImage(10, 10)
	c.SetTool(true)
	if seen < 2 {
		t.Fatalf("listener called %d times", seen)
	}
}

func TestReframeKeepsStrokesOnPicture(t *testing.T) {
	c, rec := newCanvas(t)
	c.SetTool(true)
	c.Mouse(ev(400, 300, mouse.ButtonLeft, mouse.DirPress))
	c.Mouse(ev(436, 300, mouse.ButtonNone, mouse.DirNone))
	c.Leave()
	replays := rec.replays

	c.Reframe(1200, 700)
	if got := c.Viewport().ContentSize(); got.X != 1200 || got.Y != 700 {
		t.Fatalf("content size = %v", got)
	}
	pts := c.State().History[0].Points
	if !near(pts[0], r2.Vec{X: 600, Y: 350}) || !near(pts[1], r2.Vec{X: 650, Y: 350}) {
		t.Fatalf("points = %v, want shifted by (100,100)", pts)
	}
	if rec.replays != replays+1 {
		t.Fatalf("replays = %d, want %d", rec.replays, replays+1)
	}

	c.Reframe(1200, 700)
	if got := c.State().History[0].Points[0]; !near(got, r2.Vec{X: 600, Y: 350}) {
		t.Fatalf("same size moved strokes to %v", got)
	}
}
