package strokes

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// File is the YAML document accepted by the annotate command.
//
//	strokes:
//	  - button: secondary
//	    points: [[10, 10], [40, 25], [80, 30]]
//	    size: 6
type File struct {
	Pen     *fileStyles  `yaml:"pen,omitempty"`
	Strokes []fileStroke `yaml:"strokes"`
}

type fileStyles struct {
	Primary   *fileStyle `yaml:"primary,omitempty"`
	Secondary *fileStyle `yaml:"secondary,omitempty"`
}

type fileStyle struct {
	Color   string   `yaml:"color,omitempty"`
	Size    float64  `yaml:"size,omitempty"`
	Opacity *float64 `yaml:"opacity,omitempty"`
}

func (fs fileStyle) style() Style {
	st := Style{Color: fs.Color, Size: fs.Size, Opacity: -1}
	if fs.Opacity != nil {
		st.Opacity = *fs.Opacity
	}
	return st
}

type fileStroke struct {
	Button    string       `yaml:"button,omitempty"`
	Points    [][2]float64 `yaml:"points,flow"`
	fileStyle `yaml:",inline"`
}

// Load replays the strokes described in r on top of a fresh State using
// pen for any style the document leaves unset.
func Load(r io.Reader, pen Pen) (State, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return State{}, fmt.Errorf("decode strokes: %w", err)
	}
	if f.Pen != nil {
		if f.Pen.Primary != nil {
			pen.Primary = mergeStyle(pen.Primary, f.Pen.Primary.style())
		}
		if f.Pen.Secondary != nil {
			pen.Secondary = mergeStyle(pen.Secondary, f.Pen.Secondary.style())
		}
	}
	st := New(pen).SetActive(true)
	for i, fs := range f.Strokes {
		b, err := parseButton(fs.Button)
		if err != nil {
			return State{}, fmt.Errorf("stroke %d: %w", i, err)
		}
		if fs.Color != "" {
			if _, err := ParseColor(fs.Color); err != nil {
				return State{}, fmt.Errorf("stroke %d: %w", i, err)
			}
		}
		override := fs.style()
		p := pen
		switch b {
		case Secondary:
			p.Secondary = mergeStyle(p.Secondary, override)
		default:
			p.Primary = mergeStyle(p.Primary, override)
		}
		st = st.SetPen(p)
		for j, pt := range fs.Points {
			v := r2.Vec{X: pt[0], Y: pt[1]}
			if j == 0 {
				st = st.Begin(v, b)
				continue
			}
			st, _, _ = st.Extend(v)
		}
		st = st.Commit()
	}
	return st.SetPen(pen).SetActive(false), nil
}

// Encode writes the committed history of st as a strokes document.
func Encode(w io.Writer, st State) error {
	f := File{Strokes: make([]fileStroke, 0, len(st.History))}
	for _, a := range st.History {
		op := a.Opacity
		fs := fileStroke{fileStyle: fileStyle{Color: a.Color, Size: a.Size, Opacity: &op}}
		for _, p := range a.Points {
			fs.Points = append(fs.Points, [2]float64{p.X, p.Y})
		}
		f.Strokes = append(f.Strokes, fs)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode strokes: %w", err)
	}
	return enc.Close()
}

func parseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "primary", "left":
		return Primary, nil
	case "secondary", "right":
		return Secondary, nil
	}
	return Primary, fmt.Errorf("unknown button %q", s)
}

// mergeStyle overlays the set fields of o onto base. A negative opacity in
// o means unset.
func mergeStyle(base, o Style) Style {
	if o.Color != "" {
		base.Color = o.Color
	}
	if o.Size > 0 {
		base.Size = o.Size
	}
	if o.Opacity >= 0 {
		base.Opacity = o.Opacity
	}
	return base
}
