package strokes

import (
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func pt(x, y float64) r2.Vec { return r2.Vec{X: x, Y: y} }

func draw(st State, b Button, pts ...r2.Vec) State {
	for i, p := range pts {
		if i == 0 {
			st = st.Begin(p, b)
			continue
		}
		st, _, _ = st.Extend(p)
	}
	return st.Commit()
}

func TestCommitRequiresTwoPoints(t *testing.T) {
	st := New(DefaultPen()).SetActive(true)
	st = draw(st, Primary, pt(1, 1))
	if len(st.History) != 0 {
		t.Fatalf("single point stroke recorded: %+v", st.History)
	}
	if st.Drawing() || st.Current != nil {
		t.Fatalf("path not cleared after discard")
	}
	st = draw(st, Primary, pt(1, 1), pt(2, 2))
	if len(st.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(st.History))
	}
	if got := st.History[0].Points; !reflect.DeepEqual(got, []r2.Vec{pt(1, 1), pt(2, 2)}) {
		t.Fatalf("points = %v", got)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	st := New(DefaultPen()).SetActive(true)
	st = draw(st, Primary, pt(0, 0), pt(5, 5))
	st = draw(st, Secondary, pt(1, 0), pt(3, 4), pt(9, 9))
	st = draw(st, Primary, pt(2, 2), pt(4, 4))
	st = st.Undo()

	before := st
	after := st.Undo().Redo()
	if !reflect.DeepEqual(before.History, after.History) {
		t.Fatalf("history mismatch:\n%v\n%v", before.History, after.History)
	}
	if !reflect.DeepEqual(before.RedoStack, after.RedoStack) {
		t.Fatalf("redo mismatch:\n%v\n%v", before.RedoStack, after.RedoStack)
	}
}

func TestNewStrokeClearsRedo(t *testing.T) {
	st := New(DefaultPen()).SetActive(true)
	st = draw(st, Primary, pt(0, 0), pt(1, 1))
	st = st.Undo()
	if !st.CanRedo() {
		t.Fatalf("expected redo after undo")
	}
	st = draw(st, Primary, pt(3, 3), pt(4, 4))
	if st.CanRedo() {
		t.Fatalf("redo stack survived a new stroke: %v", st.RedoStack)
	}
	// a discarded click is not an action
	st = st.Undo()
	st = draw(st, Primary, pt(7, 7))
	if !st.CanRedo() {
		t.Fatalf("discarded click cleared the redo stack")
	}
}

func TestInvalidCallsAreNoOps(t *testing.T) {
	st := New(DefaultPen())
	if got := st.Begin(pt(1, 1), Primary); got.Drawing() {
		t.Fatalf("inactive tool started a stroke")
	}
	if _, _, ok := st.SetActive(true).Extend(pt(1, 1)); ok {
		t.Fatalf("extend without a path reported a segment")
	}
	if got := st.Undo(); !reflect.DeepEqual(got, st) {
		t.Fatalf("undo on empty history changed state")
	}
	if got := st.Redo(); !reflect.DeepEqual(got, st) {
		t.Fatalf("redo on empty stack changed state")
	}
	if got := st.Commit(); !reflect.DeepEqual(got, st) {
		t.Fatalf("commit without path changed state")
	}
}

func TestButtonFixesStyle(t *testing.T) {
	pen := Pen{
		Primary:   Style{Color: "#111111", Size: 2, Opacity: 1},
		Secondary: Style{Color: "#222222", Size: 8, Opacity: 0.5},
	}
	st := New(pen).SetActive(true).Begin(pt(0, 0), Secondary)
	st, seg, ok := st.Extend(pt(1, 0))
	if !ok || seg.Style != pen.Secondary || seg.From != pt(0, 0) || seg.To != pt(1, 0) {
		t.Fatalf("segment = %+v ok=%v", seg, ok)
	}
	// a pen change mid-stroke does not leak into the stroke being drawn
	st = st.SetPen(Pen{Primary: pen.Primary, Secondary: pen.Primary})
	st, _, _ = st.Extend(pt(2, 0))
	st = st.Commit()
	if got := st.History[0].Style; got != pen.Secondary {
		t.Fatalf("stroke style = %+v, want %+v", got, pen.Secondary)
	}
}

func TestTransitionsDoNotMutateOlderStates(t *testing.T) {
	st := New(DefaultPen()).SetActive(true)
	st = draw(st, Primary, pt(0, 0), pt(1, 1))
	st = draw(st, Primary, pt(2, 2), pt(3, 3))
	snapshot := st
	saved := append([]Action(nil), st.History...)

	next := st.Undo()
	next = draw(next, Secondary, pt(9, 9), pt(8, 8))
	if !reflect.DeepEqual(snapshot.History, saved) {
		t.Fatalf("older state's history was mutated: %v", snapshot.History)
	}

	growing := New(DefaultPen()).SetActive(true).Begin(pt(0, 0), Primary)
	a, _, _ := growing.Extend(pt(1, 1))
	b, _, _ := growing.Extend(pt(5, 5))
	if a.Current[1] != pt(1, 1) || b.Current[1] != pt(5, 5) {
		t.Fatalf("sibling extends share storage: %v %v", a.Current, b.Current)
	}
}

func TestClearAndTransform(t *testing.T) {
	st := New(DefaultPen()).SetActive(true)
	st = draw(st, Primary, pt(1, 2), pt(3, 4))
	st = draw(st, Primary, pt(5, 6), pt(7, 8)).Undo()
	moved := st.Transform(func(p r2.Vec) r2.Vec { return r2.Add(p, pt(10, 10)) })
	if moved.History[0].Points[0] != pt(11, 12) || moved.RedoStack[0].Points[1] != pt(17, 18) {
		t.Fatalf("transform not applied: %+v", moved)
	}
	if st.History[0].Points[0] != pt(1, 2) {
		t.Fatalf("transform mutated the source state")
	}
	cleared := moved.Clear()
	if cleared.CanUndo() || cleared.CanRedo() || cleared.Drawing() {
		t.Fatalf("clear left data behind: %+v", cleared)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "red", want: "#ff0000"},
		{in: "#0F0", want: "#00ff00"},
		{in: " #123456 ", want: "#123456"},
		{in: "#12345678", want: "#123456"},
		{in: "", wantErr: true},
		{in: "#12", wantErr: true},
		{in: "nope", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeColor(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeColor(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if c := (Style{Color: "#ffffff", Opacity: 0.5}).NRGBA(); c.A != 128 {
		t.Errorf("opacity not applied: %+v", c)
	}
}

func TestLoadStrokeFile(t *testing.T) {
	doc := `
pen:
  secondary:
    color: blue
strokes:
  - points: [[0, 0], [10, 0], [10, 10]]
    size: 6
  - button: right
    points: [[5, 5], [6, 6]]
    opacity: 0.25
  - points: [[1, 1]]
`
	st, err := Load(strings.NewReader(doc), DefaultPen())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.History) != 2 {
		t.Fatalf("history len = %d, want 2", len(st.History))
	}
	if got := st.History[0]; got.Size != 6 || got.Color != "#ff0000" || len(got.Points) != 3 {
		t.Fatalf("first stroke = %+v", got)
	}
	if got := st.History[1]; got.Color != "blue" || got.Opacity != 0.25 || got.Size != 4 {
		t.Fatalf("second stroke = %+v", got)
	}
	if st.Active {
		t.Fatalf("loaded state should leave the tool inactive")
	}

	var buf strings.Builder
	if err := Encode(&buf, st); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "color: blue") {
		t.Fatalf("encoded document missing stroke colour:\n%s", buf.String())
	}

	if _, err := Load(strings.NewReader("strokes:\n  - button: middle\n    points: [[0,0],[1,1]]\n"), DefaultPen()); err == nil {
		t.Fatalf("expected error for unknown button")
	}
}
