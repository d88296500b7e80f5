package viewer

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// Run opens the window and blocks until it closes.
func (v *Viewer) Run() error {
	var err error
	driver.Main(func(s screen.Screen) { err = v.Main(s) })
	return err
}

// Main runs the event loop on s.
func (v *Viewer) Main(s screen.Screen) error {
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: v.width, Height: v.height, Title: "Cutout"})
	if err != nil {
		return fmt.Errorf("new window: %w", err)
	}
	defer w.Release()
	defer func() {
		v.detach()
		if v.onClose != nil {
			v.onClose()
		}
	}()

	v.canvas.Mount()
	defer v.canvas.Unmount()

	for _, ev := range v.attach(func(ev any) { w.Send(ev) }) {
		v.handle(ev)
	}
	w.Send(paint.Event{})

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				v.canvas.Leave()
			}
		case size.Event:
			v.Resize(e.WidthPx, e.HeightPx)
			w.Send(paint.Event{})
		case paint.Event:
			v.frame(s, w)
		case mouse.Event:
			v.canvas.Mouse(e)
			w.Send(paint.Event{})
		case key.Event:
			if v.Key(e) {
				w.Send(paint.Event{})
			}
			if v.quit {
				return nil
			}
		case error:
			log.WithError(e).Error("window event")
		default:
			if v.handle(e) {
				w.Send(paint.Event{})
			}
		}
	}
}

func (v *Viewer) frame(s screen.Screen, w screen.Window) {
	b, err := s.NewBuffer(image.Point{v.width, v.height})
	if err != nil {
		log.WithError(err).Error("new buffer")
		return
	}
	defer b.Release()
	v.Paint(b.RGBA())
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
