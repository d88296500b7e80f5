package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/render"
)

const statusHeight = 20

var messageFace font.Face = basicfont.Face7x13

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return
	}
	if face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull}); err == nil {
		messageFace = face
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Status is the text of the bottom bar.
func (v *Viewer) Status() string {
	s := v.orch.Settings()
	parts := []string{fmt.Sprintf("%d%%", v.vp.ZoomPercent())}
	if v.displayed != nil {
		parts = append(parts, fmt.Sprintf("%dx%d", v.displayed.Width, v.displayed.Height))
	}
	bg := onOff(s.RemoveBackground)
	if st := v.orch.StageState(pipeline.StageRemoveBackground); st == pipeline.Pending {
		bg += "..."
	}
	parts = append(parts,
		"bg:"+bg,
		fmt.Sprintf("pad:%s %d%%", onOff(s.PaddingEnabled), s.PaddingSize),
		fmt.Sprintf("size:%s %dx%d", onOff(s.ResizeActive), s.TargetWidth, s.TargetHeight),
		"pen:"+onOff(v.canvas.ToolActive()),
		fmt.Sprintf("strokes:%d", len(v.canvas.State().History)),
	)
	if v.lastErr != nil {
		parts = append(parts, "error: "+v.lastErr.Error())
	}
	return strings.Join(parts, "  ")
}

// Paint draws one frame into dst.
func (v *Viewer) Paint(dst *image.RGBA) {
	view := render.View{
		Image:    v.img,
		Viewport: v.vp,
		Backdrop: v.backdrop,
		Theme:    v.theme,
	}
	if v.img != nil {
		view.Ink = v.ink.Layer()
	}
	render.Compose(dst, view)
	v.drawStatus(dst)
	v.drawMessage(dst)
}

func (v *Viewer) drawStatus(dst *image.RGBA) {
	b := dst.Bounds()
	bar := image.Rect(b.Min.X, b.Max.Y-statusHeight, b.Max.X, b.Max.Y)
	draw.Draw(dst, bar, image.NewUniform(v.theme.StatusBackground), image.Point{}, draw.Src)
	col := v.theme.StatusText
	if v.lastErr != nil {
		col = v.theme.StatusError
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13,
		Dot: fixed.P(bar.Min.X+6, bar.Max.Y-5)}
	d.DrawString(v.Status())
}

func (v *Viewer) drawMessage(dst *image.RGBA) {
	if v.message == "" || !v.now().Before(v.messageUntil) {
		return
	}
	b := dst.Bounds()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(v.theme.Foreground), Face: messageFace}
	wmsg := d.MeasureString(v.message).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := b.Min.X + (b.Dx()-wmsg)/2
	py := b.Min.Y + 16 + ascent
	rect := image.Rect(px-8, py-ascent-6, px+wmsg+8, py+descent+6)
	bg := v.theme.Background
	draw.Draw(dst, rect, image.NewUniform(color.RGBA{bg.R, bg.G, bg.B, 230}), image.Point{}, draw.Over)
	d.Dot = fixed.P(px, py)
	d.DrawString(v.message)
}
