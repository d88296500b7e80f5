package viewport

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestFitBaseline(t *testing.T) {
	v := New(800, 600)
	v.SetImage(1000, 500)
	want := math.Min(800.0/1000, 600.0/500) * FitMargin
	if math.Abs(v.Scale-want) > eps || math.Abs(v.Fit-want) > eps {
		t.Fatalf("scale = %v fit = %v, want %v", v.Scale, v.Fit, want)
	}
	if v.Translate != (r2.Vec{}) {
		t.Fatalf("translate = %v, want zero", v.Translate)
	}
	if got := v.ZoomPercent(); got != 100 {
		t.Fatalf("zoom percent = %d, want 100", got)
	}
}

func TestZoomKeepsCursorContentFixed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	v := New(640, 480)
	v.SetImage(1024, 768)
	for i := 0; i < 500; i++ {
		m := r2.Vec{X: rng.Float64() * 640, Y: rng.Float64() * 480}
		dy := -1.0
		if rng.Intn(2) == 0 {
			dy = 1
		}
		before := v.ContentAt(m)
		v.ZoomAt(m, dy)
		after := v.ContentAt(m)
		if !near(before, after) {
			t.Fatalf("step %d: content under cursor moved from %v to %v", i, before, after)
		}
		if v.Scale < MinScale-eps || v.Scale > MaxScale+eps {
			t.Fatalf("step %d: scale %v outside bounds", i, v.Scale)
		}
		if rng.Intn(5) == 0 {
			v.Pan(r2.Vec{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100})
		}
	}
}

func TestZoomOffCentreMovesTranslate(t *testing.T) {
	v := New(400, 400)
	v.SetImage(400, 400)
	v.ZoomAt(r2.Vec{X: 300, Y: 100}, -1)
	if v.Translate == (r2.Vec{}) {
		t.Fatalf("zooming away from the centre must adjust the translation")
	}
	// content offset from centre is (100,-100)/fit; after scaling by 1.1 the
	// layer shifts by -10% of the screen offset
	want := r2.Vec{X: -10, Y: 10}
	if !near(v.Translate, want) {
		t.Fatalf("translate = %v, want %v", v.Translate, want)
	}
}

func TestZoomDirectionAndClamp(t *testing.T) {
	v := New(100, 100)
	v.SetImage(100, 100)
	start := v.Scale
	v.ZoomAt(v.Center(), 1)
	if math.Abs(v.Scale-start*0.9) > eps {
		t.Fatalf("positive deltaY should zoom out: %v", v.Scale)
	}
	v.ZoomAt(v.Center(), -3)
	if math.Abs(v.Scale-start*0.9*1.1) > eps {
		t.Fatalf("negative deltaY should zoom in: %v", v.Scale)
	}
	for i := 0; i < 100; i++ {
		v.ZoomAt(r2.Vec{X: 10, Y: 10}, -1)
	}
	if v.Scale != MaxScale {
		t.Fatalf("scale = %v, want clamp at %v", v.Scale, MaxScale)
	}
	for i := 0; i < 100; i++ {
		v.ZoomAt(r2.Vec{X: 90, Y: 20}, 1)
	}
	if v.Scale != MinScale {
		t.Fatalf("scale = %v, want clamp at %v", v.Scale, MinScale)
	}
}

func TestPanAndReset(t *testing.T) {
	v := New(200, 100)
	v.SetImage(50, 50)
	v.Pan(r2.Vec{X: 5000, Y: -3000})
	v.Pan(r2.Vec{X: 1, Y: 1})
	if v.Translate != (r2.Vec{X: 5001, Y: -2999}) {
		t.Fatalf("pan should not clamp, got %v", v.Translate)
	}
	v.ZoomAt(r2.Vec{X: 3, Y: 4}, -1)
	v.Reset()
	if v.Scale != v.Fit || v.Translate != (r2.Vec{}) {
		t.Fatalf("reset left scale=%v translate=%v", v.Scale, v.Translate)
	}
}

func TestContentMappingIgnoresLaterPan(t *testing.T) {
	v := New(300, 300)
	v.SetImage(100, 100)
	m := r2.Vec{X: 160, Y: 170}
	p := v.ContentAt(m)
	back := v.ToScreen(p)
	if !near(back, m) {
		t.Fatalf("ToScreen(ContentAt(m)) = %v, want %v", back, m)
	}
	v.Pan(r2.Vec{X: 25, Y: -10})
	if !near(v.ToScreen(p), r2.Add(m, r2.Vec{X: 25, Y: -10})) {
		t.Fatalf("content point should travel with the layer")
	}
}
