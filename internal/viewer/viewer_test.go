package viewer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/transform"
)

func solid(t *testing.T, w, h int) *artifact.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	a, err := artifact.FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func newViewer(t *testing.T, opts ...Option) (*Viewer, *pipeline.Orchestrator) {
	t.Helper()
	o := pipeline.New(transform.Local{})
	t.Cleanup(func() {
		o.Close()
		o.Wait()
	})
	if err := o.Load(solid(t, 100, 50)); err != nil {
		t.Fatal(err)
	}
	v := New(o, append([]Option{WithSize(200, 150)}, opts...)...)
	drain(v)
	return v, o
}

// drain runs queued events as the window loop would.
func drain(v *Viewer) {
	v.mu.Lock()
	queued := v.pending
	v.pending = nil
	v.mu.Unlock()
	for _, ev := range queued {
		v.handle(ev)
	}
}

func press(r rune) key.Event {
	return key.Event{Rune: r, Direction: key.DirPress}
}

func TestViewerShowsLoadedImage(t *testing.T) {
	v, _ := newViewer(t)
	if v.displayed == nil || v.img == nil {
		t.Fatalf("loaded image not shown")
	}
	if got := v.Viewport().ContentSize(); got.X != 100 || got.Y != 50 {
		t.Fatalf("content size = %v", got)
	}
	if s := v.Status(); !strings.HasPrefix(s, "100%") || !strings.Contains(s, "100x50") {
		t.Fatalf("status = %q", s)
	}
}

func TestPaddingToggleUpdatesDisplay(t *testing.T) {
	v, o := newViewer(t)
	if !v.Key(press('d')) {
		t.Fatalf("d not handled")
	}
	o.Wait()
	drain(v)
	if v.displayed.Width != 120 || v.displayed.Height != 70 {
		t.Fatalf("displayed %dx%d, want 120x70", v.displayed.Width, v.displayed.Height)
	}
	if got := v.Viewport().ContentSize(); got.X != 120 {
		t.Fatalf("content size not updated: %v", got)
	}
}

func TestPaddingMovesStrokesWithPicture(t *testing.T) {
	v, o := newViewer(t)
	c := v.Canvas()
	c.SetTool(true)
	c.Mouse(mouse.Event{X: 80, Y: 75, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	c.Mouse(mouse.Event{X: 120, Y: 75, Direction: mouse.DirNone})
	c.Mouse(mouse.Event{X: 120, Y: 75, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
	before := c.State().History[0].Points[0]

	o.SetPadding(true)
	o.Wait()
	drain(v)
	after := c.State().History[0].Points[0]
	if math.Abs(after.X-before.X-10) > 1e-9 || math.Abs(after.Y-before.Y-10) > 1e-9 {
		t.Fatalf("stroke moved from %v to %v, want +(10,10)", before, after)
	}
}

func TestSupersededDisplayIsIgnored(t *testing.T) {
	o := pipeline.New(transform.Local{})
	t.Cleanup(func() {
		o.Close()
		o.Wait()
	})
	if err := o.Load(solid(t, 100, 50)); err != nil {
		t.Fatal(err)
	}
	reached := make(chan struct{})
	release := make(chan struct{})
	restored := make(chan struct{})
	// Registered before the viewer, so it holds back the padded result
	// from reaching it until the unpadded one has been delivered.
	unsub := o.Subscribe(func(ev pipeline.Event) {
		if ev.Type != pipeline.EventDisplayChanged {
			return
		}
		switch ev.Image.Width {
		case 120:
			close(reached)
			<-release
		case 100:
			close(restored)
		}
	})
	t.Cleanup(unsub)
	v := New(o, WithSize(200, 150))
	drain(v)

	o.SetPadding(true)
	<-reached
	o.SetPadding(false)
	<-restored
	close(release)
	o.Wait()
	drain(v)

	cur := o.Displayed()
	if cur.Width != 100 || cur.Height != 50 {
		t.Fatalf("orchestrator displayed %dx%d, want 100x50", cur.Width, cur.Height)
	}
	if !artifact.Same(v.displayed, cur) {
		t.Fatalf("viewer displayed %dx%d, orchestrator %dx%d", v.displayed.Width, v.displayed.Height, cur.Width, cur.Height)
	}
	if got := v.Viewport().ContentSize(); got.X != 100 || got.Y != 50 {
		t.Fatalf("content size = %v", got)
	}
}

func TestRemovalFailureIsReported(t *testing.T) {
	v, o := newViewer(t)
	v.Key(press('b'))
	o.Wait()
	drain(v)
	if !errors.Is(v.lastErr, transform.ErrUnsupported) {
		t.Fatalf("lastErr = %v", v.lastErr)
	}
	if o.Settings().RemoveBackground {
		t.Fatalf("failed removal left the toggle on")
	}
	if !strings.Contains(v.Status(), "error:") {
		t.Fatalf("status hides the error: %q", v.Status())
	}
}

func TestViewerShortcuts(t *testing.T) {
	v, _ := newViewer(t)
	if !v.Key(press('k')) || v.Backdrop() != render.Light {
		t.Fatalf("backdrop = %v", v.Backdrop())
	}
	v.Key(press('h'))
	if !v.Shadow() {
		t.Fatalf("shadow not toggled")
	}
	v.Key(press('P'))
	if !v.Canvas().ToolActive() {
		t.Fatalf("pen not enabled")
	}
	if v.Key(key.Event{Rune: 'k', Direction: key.DirRelease}) {
		t.Fatalf("release handled")
	}
	v.Key(key.Event{Code: key.CodeEscape, Direction: key.DirPress})
	if !v.quit {
		t.Fatalf("escape did not quit")
	}
}

func TestSaveMergesStrokes(t *testing.T) {
	v, _ := newViewer(t)
	v.Canvas().SetTool(true)
	c := v.Canvas()
	c.Mouse(mouse.Event{X: 80, Y: 75, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	c.Mouse(mouse.Event{X: 120, Y: 75, Direction: mouse.DirNone})
	c.Mouse(mouse.Event{X: 120, Y: 75, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})

	path := filepath.Join(t.TempDir(), "out.png")
	if err := v.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	a, err := artifact.New(data)
	if err != nil {
		t.Fatal(err)
	}
	img, err := a.Decode()
	if err != nil {
		t.Fatal(err)
	}
	// the stroke crosses the middle of the image in red
	if r, g, _, _ := img.At(50, 25).RGBA(); r>>8 < 200 || g>>8 > 80 {
		t.Fatalf("stroke missing from export: %v", img.At(50, 25))
	}
	if err := v.Save(""); err == nil {
		t.Fatalf("save without a path succeeded")
	}
}

func TestCopyUsesClipboard(t *testing.T) {
	var got *artifact.Image
	orig := writeClipboard
	writeClipboard = func(a *artifact.Image) error { got = a; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	v, _ := newViewer(t, WithShadow(true))
	if err := v.Copy(); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got == nil || got.Width <= 100 {
		t.Fatalf("clipboard got %+v, want shadowed image", got)
	}
}

func TestPaintDrawsStatusBar(t *testing.T) {
	v, _ := newViewer(t)
	dst := image.NewRGBA(image.Rect(0, 0, 200, 150))
	v.Paint(dst)
	if got := dst.RGBAAt(1, 131); got != v.theme.StatusBackground {
		t.Fatalf("status bar pixel = %+v", got)
	}
	if got := dst.RGBAAt(100, 60); got == (color.RGBA{}) {
		t.Fatalf("image not painted")
	}
}
