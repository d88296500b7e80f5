// Package strokes implements the pen tool's drawing history.
//
// State is a value type. Every transition returns a new State and never
// mutates slices reachable from an older value, so a State captured before
// an undo can be compared with the State after a redo.
package strokes

import "gonum.org/v1/gonum/spatial/r2"

// Button identifies which pointer button started a stroke.
type Button int

const (
	Primary Button = iota
	Secondary
)

func (b Button) String() string {
	if b == Secondary {
		return "secondary"
	}
	return "primary"
}

// Style is how a stroke is rendered. Size is measured in content pixels.
type Style struct {
	Color   string  `yaml:"color"`
	Size    float64 `yaml:"size"`
	Opacity float64 `yaml:"opacity"`
}

// Pen carries the style assigned to each drawing button.
type Pen struct {
	Primary   Style
	Secondary Style
}

// DefaultPen draws red with the primary button and white with the secondary.
func DefaultPen() Pen {
	return Pen{
		Primary:   Style{Color: "#ff0000", Size: 4, Opacity: 1},
		Secondary: Style{Color: "#ffffff", Size: 4, Opacity: 1},
	}
}

// Style returns the style for button b.
func (p Pen) Style(b Button) Style {
	if b == Secondary {
		return p.Secondary
	}
	return p.Primary
}

// Action is a committed stroke.
type Action struct {
	Points []r2.Vec
	Style
}

// Segment is one incremental line piece produced while a stroke grows.
type Segment struct {
	From, To r2.Vec
	Style    Style
}

// State is the drawing state: committed history, the redo stack, and the
// in-progress path.
type State struct {
	History []Action
	// RedoStack holds undone actions, most recently undone last.
	RedoStack []Action
	Current   []r2.Vec
	// Active reports whether pointer input is captured for drawing.
	Active bool
	Pen    Pen

	drawing bool
	button  Button
	style   Style
}

// New returns an inactive State using pen.
func New(pen Pen) State {
	return State{Pen: pen}
}

// SetActive enables or disables the pen tool. Disabling drops any
// in-progress path.
func (s State) SetActive(on bool) State {
	s.Active = on
	if !on {
		s = s.Cancel()
	}
	return s
}

// SetPen replaces the pen styles used by strokes started afterwards.
func (s State) SetPen(p Pen) State {
	s.Pen = p
	return s
}

// Drawing reports whether a stroke is in progress.
func (s State) Drawing() bool { return s.drawing }

// Button reports the button that started the in-progress stroke.
func (s State) Button() Button { return s.button }

// CurrentStyle is the style of the in-progress stroke, captured when the
// stroke began.
func (s State) CurrentStyle() Style {
	if s.drawing {
		return s.style
	}
	return s.Pen.Style(s.button)
}

// Begin starts a stroke at p. It is a no-op while the tool is inactive.
func (s State) Begin(p r2.Vec, b Button) State {
	if !s.Active {
		return s
	}
	s.Current = []r2.Vec{p}
	s.button = b
	s.style = s.Pen.Style(b)
	s.drawing = true
	return s
}

// Extend appends p to the in-progress stroke and returns the segment to
// draw. ok is false when no stroke is in progress.
func (s State) Extend(p r2.Vec) (next State, seg Segment, ok bool) {
	if !s.drawing || len(s.Current) == 0 {
		return s, Segment{}, false
	}
	last := s.Current[len(s.Current)-1]
	path := make([]r2.Vec, len(s.Current), len(s.Current)+1)
	copy(path, s.Current)
	s.Current = append(path, p)
	return s, Segment{From: last, To: p, Style: s.CurrentStyle()}, true
}

// Commit ends the in-progress stroke. Paths shorter than two points are
// discarded; otherwise the stroke joins the history and redo is cleared.
func (s State) Commit() State {
	if !s.drawing {
		return s
	}
	if len(s.Current) >= 2 {
		s.History = appendAction(s.History, Action{Points: s.Current, Style: s.CurrentStyle()})
		s.RedoStack = nil
	}
	return s.Cancel()
}

// Cancel drops the in-progress path.
func (s State) Cancel() State {
	s.Current = nil
	s.drawing = false
	s.style = Style{}
	return s
}

// CanUndo reports whether Undo would change the state.
func (s State) CanUndo() bool { return len(s.History) > 0 }

// CanRedo reports whether Redo would change the state.
func (s State) CanRedo() bool { return len(s.RedoStack) > 0 }

// Undo moves the newest stroke onto the redo stack.
func (s State) Undo() State {
	if len(s.History) == 0 {
		return s
	}
	var last Action
	s.History, last = popAction(s.History)
	s.RedoStack = appendAction(s.RedoStack, last)
	return s
}

// Redo moves the most recently undone stroke back into the history.
func (s State) Redo() State {
	if len(s.RedoStack) == 0 {
		return s
	}
	var last Action
	s.RedoStack, last = popAction(s.RedoStack)
	s.History = appendAction(s.History, last)
	return s
}

// Clear removes every stroke, the redo stack and the in-progress path.
func (s State) Clear() State {
	s.History = nil
	s.RedoStack = nil
	return s.Cancel()
}

// Transform maps every stored point through fn, for instance after the
// displayed image was re-framed.
func (s State) Transform(fn func(r2.Vec) r2.Vec) State {
	s.History = mapActions(s.History, fn)
	s.RedoStack = mapActions(s.RedoStack, fn)
	s.Current = mapPoints(s.Current, fn)
	return s
}

func appendAction(list []Action, a Action) []Action {
	out := make([]Action, len(list), len(list)+1)
	copy(out, list)
	return append(out, a)
}

// popAction returns list without its last element. The result never aliases
// spare capacity of list, and an emptied list becomes nil.
func popAction(list []Action) ([]Action, Action) {
	n := len(list) - 1
	if n == 0 {
		return nil, list[0]
	}
	return list[:n:n], list[n]
}

func mapActions(list []Action, fn func(r2.Vec) r2.Vec) []Action {
	if list == nil {
		return nil
	}
	out := make([]Action, len(list))
	for i, a := range list {
		out[i] = Action{Points: mapPoints(a.Points, fn), Style: a.Style}
	}
	return out
}

func mapPoints(pts []r2.Vec, fn func(r2.Vec) r2.Vec) []r2.Vec {
	if pts == nil {
		return nil
	}
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = fn(p)
	}
	return out
}
