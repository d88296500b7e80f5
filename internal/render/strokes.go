package render

import (
	"image"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/cutout/internal/strokes"
)

// newContext prepares a gg context drawing into dst with round pen ends.
func newContext(dst *image.RGBA) *gg.Context {
	dc := gg.NewContextForRGBA(dst)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	return dc
}

// strokePath draws pts mapped through toScreen with st at scale.
func strokePath(dc *gg.Context, pts []r2.Vec, st strokes.Style, scale float64, toScreen func(r2.Vec) r2.Vec) {
	if len(pts) < 2 {
		return
	}
	dc.SetColor(st.NRGBA())
	dc.SetLineWidth(st.Size * scale)
	p := toScreen(pts[0])
	dc.MoveTo(p.X, p.Y)
	for _, q := range pts[1:] {
		p = toScreen(q)
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// DrawStrokes renders the history and the in-progress path. Line widths
// are content units multiplied by scale.
func DrawStrokes(dst *image.RGBA, st strokes.State, scale float64, toScreen func(r2.Vec) r2.Vec) {
	if len(st.History) == 0 && len(st.Current) < 2 {
		return
	}
	dc := newContext(dst)
	for _, a := range st.History {
		strokePath(dc, a.Points, a.Style, scale, toScreen)
	}
	if st.Drawing() {
		strokePath(dc, st.Current, st.CurrentStyle(), scale, toScreen)
	}
}
