package render

import (
	"image"
	"sync"

	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/viewport"
)

// Ink is a container-sized layer holding the strokes in screen space. It
// draws single segments while a stroke is in progress and redraws every
// stroke when the view changes.
type Ink struct {
	vp *viewport.Viewport

	mu    sync.Mutex
	layer *image.RGBA
	st    strokes.State
	dirty bool
}

// NewInk returns a layer following vp.
func NewInk(vp *viewport.Viewport) *Ink {
	return &Ink{vp: vp, dirty: true}
}

// SetState records the latest stroke state for later redraws.
func (k *Ink) SetState(st strokes.State) {
	k.mu.Lock()
	k.st = st
	k.mu.Unlock()
}

// Segment draws one line of the in-progress stroke.
func (k *Ink) Segment(seg strokes.Segment, scale float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.dirty || !k.sizedLocked() {
		k.dirty = true
		return
	}
	dc := newContext(k.layer)
	from, to := k.vp.ToScreen(seg.From), k.vp.ToScreen(seg.To)
	dc.SetColor(seg.Style.NRGBA())
	dc.SetLineWidth(seg.Style.Size * scale)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()
}

// Replay redraws st from scratch.
func (k *Ink) Replay(st strokes.State, _ float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.st = st
	k.redrawLocked()
}

// Invalidate schedules a redraw for the next Layer call.
func (k *Ink) Invalidate() {
	k.mu.Lock()
	k.dirty = true
	k.mu.Unlock()
}

// Layer returns the current stroke layer, redrawing it first when needed.
// The caller must not keep the image past the next Ink call.
func (k *Ink) Layer() *image.RGBA {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.dirty || !k.sizedLocked() {
		k.redrawLocked()
	}
	return k.layer
}

func (k *Ink) sizedLocked() bool {
	c := k.vp.ContainerSize()
	return k.layer != nil && k.layer.Bounds().Dx() == int(c.X) && k.layer.Bounds().Dy() == int(c.Y)
}

func (k *Ink) redrawLocked() {
	c := k.vp.ContainerSize()
	if k.sizedLocked() {
		clear(k.layer.Pix)
	} else {
		k.layer = image.NewRGBA(image.Rect(0, 0, int(c.X), int(c.Y)))
	}
	DrawStrokes(k.layer, k.st, k.vp.Scale, k.vp.ToScreen)
	k.dirty = false
}
