// Package viewport holds the zoom and pan state of the editing canvas.
//
// The content layer is centred in its container and drawn with
// translate(Translate) followed by scale(Scale) about its own centre.
package viewport

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MinScale and MaxScale bound the render scale after every wheel step.
	MinScale = 0.1
	MaxScale = 5.0

	// FitMargin leaves a border around a freshly loaded image.
	FitMargin = 0.9

	zoomInFactor  = 1.1
	zoomOutFactor = 0.9
)

// Viewport maps between container (screen) coordinates and content space.
type Viewport struct {
	Scale     float64
	Translate r2.Vec
	// Fit is the fit-to-container baseline Reset returns to.
	Fit float64

	container r2.Vec
	content   r2.Vec
}

// New returns a viewport for a container of the given size.
func New(width, height float64) *Viewport {
	v := &Viewport{container: r2.Vec{X: width, Y: height}}
	v.Fit = v.fitScale()
	v.Reset()
	return v
}

// SetContainer updates the container size and recomputes the fit baseline.
// The current scale and translation are kept.
func (v *Viewport) SetContainer(width, height float64) {
	v.container = r2.Vec{X: width, Y: height}
	v.Fit = v.fitScale()
}

// SetImage records the size of a newly loaded base image and resets the
// view to the fit baseline.
func (v *Viewport) SetImage(width, height int) {
	v.SetContentSize(width, height)
	v.Reset()
}

// SetContentSize changes the content dimensions without resetting the view.
func (v *Viewport) SetContentSize(width, height int) {
	v.content = r2.Vec{X: float64(width), Y: float64(height)}
	v.Fit = v.fitScale()
}

// ContentSize returns the content dimensions in content pixels.
func (v *Viewport) ContentSize() r2.Vec { return v.content }

// ContainerSize returns the container dimensions in screen pixels.
func (v *Viewport) ContainerSize() r2.Vec { return v.container }

func (v *Viewport) fitScale() float64 {
	if v.content.X <= 0 || v.content.Y <= 0 || v.container.X <= 0 || v.container.Y <= 0 {
		return 1
	}
	return math.Min(v.container.X/v.content.X, v.container.Y/v.content.Y) * FitMargin
}

// Reset returns to the fit baseline with no translation.
func (v *Viewport) Reset() {
	v.Scale = v.Fit
	v.Translate = r2.Vec{}
}

// Center is the container centre in screen pixels.
func (v *Viewport) Center() r2.Vec {
	return r2.Scale(0.5, v.container)
}

// ZoomAt applies one wheel step at cursor m. The content point under the
// cursor stays under the cursor.
func (v *Viewport) ZoomAt(m r2.Vec, deltaY float64) {
	factor := zoomInFactor
	if deltaY > 0 {
		factor = zoomOutFactor
	}
	v.ZoomTo(m, v.Scale*factor)
}

// ZoomTo sets the scale to s (clamped), keeping the content under m fixed.
func (v *Viewport) ZoomTo(m r2.Vec, s float64) {
	c := v.Center()
	content := r2.Scale(1/v.Scale, r2.Sub(r2.Sub(m, c), v.Translate))
	v.Scale = clamp(s, MinScale, MaxScale)
	v.Translate = r2.Sub(m, r2.Add(r2.Scale(v.Scale, content), c))
}

// Pan moves the content layer by delta screen pixels. Content may leave
// the container entirely.
func (v *Viewport) Pan(delta r2.Vec) {
	v.Translate = r2.Add(v.Translate, delta)
}

// ZoomPercent reports the scale relative to the fit baseline.
func (v *Viewport) ZoomPercent() int {
	if v.Fit <= 0 {
		return 100
	}
	return int(math.Round(v.Scale / v.Fit * 100))
}

// LayerOrigin is the screen position of the content layer's top-left corner.
func (v *Viewport) LayerOrigin() r2.Vec {
	half := r2.Scale(v.Scale/2, v.content)
	return r2.Sub(r2.Add(v.Center(), v.Translate), half)
}

// LayerOffset expresses container point m relative to the content layer's
// top-left corner, still in screen pixels.
func (v *Viewport) LayerOffset(m r2.Vec) r2.Vec {
	return r2.Sub(m, v.LayerOrigin())
}

// ToContent divides a layer-relative screen offset by the scale.
func (v *Viewport) ToContent(p r2.Vec) r2.Vec {
	return r2.Scale(1/v.Scale, p)
}

// ContentAt maps container point m to content pixel coordinates.
func (v *Viewport) ContentAt(m r2.Vec) r2.Vec {
	return v.ToContent(v.LayerOffset(m))
}

// ToScreen maps a content point to container coordinates.
func (v *Viewport) ToScreen(p r2.Vec) r2.Vec {
	return r2.Add(v.LayerOrigin(), r2.Scale(v.Scale, p))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
