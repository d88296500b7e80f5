package main

import (
	"flag"

	"github.com/example/cutout/internal/viewer"
)

// runViewer is swapped in tests; the real one needs a display.
var runViewer = func(v *viewer.Viewer) error { return v.Run() }

type viewCmd struct {
	*root
	fs *flag.FlagSet

	src      source
	output   string
	shadow   bool
	removeBG bool
	pad      int
	width    int
	height   int
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	v := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(v)
	fs.StringVar(&v.src.file, "file", "", "image file to open")
	fs.BoolVar(&v.src.fromClipboard, "from-clipboard", false, "open the image on the clipboard")
	fs.BoolVar(&v.src.capture, "capture", false, "open a screen capture")
	fs.StringVar(&v.src.display, "display", "", "monitor to capture (primary, index or name)")
	fs.StringVar(&v.output, "output", "", "file written by ctrl+s")
	fs.BoolVar(&v.shadow, "shadow", false, "add a drop shadow to saved and copied images")
	fs.BoolVar(&v.removeBG, "remove-bg", false, "start with background removal on")
	fs.IntVar(&v.pad, "pad", -1, "start with padding on at this percentage")
	fs.IntVar(&v.width, "width", 0, "initial window width")
	fs.IntVar(&v.height, "height", 0, "initial window height")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && v.src.file == "" {
		v.src.file = fs.Arg(0)
	}
	if err := v.src.validate(); err != nil {
		return nil, err
	}
	if v.src.count() == 0 {
		return nil, &UsageError{of: v}
	}
	if v.output == "" {
		v.output = v.src.file
		if v.output == "" {
			v.output = "cutout.png"
		}
	}
	return v, nil
}

func (v *viewCmd) Run() error {
	in, err := v.src.load()
	if err != nil {
		return err
	}
	orch := v.root.newOrchestrator()
	defer orch.Close()
	if err := orch.Load(in); err != nil {
		return err
	}
	s := orch.Settings()
	s.RemoveBackground = v.removeBG
	if v.pad >= 0 {
		s.PaddingEnabled = true
		s.PaddingSize = v.pad
	}
	if s != orch.Settings() {
		if err := orch.Apply(s); err != nil {
			return err
		}
	}
	win := viewer.New(orch,
		viewer.WithTheme(v.root.theme()),
		viewer.WithBackdrop(v.root.backdrop()),
		viewer.WithPen(v.root.pen()),
		viewer.WithOutput(v.output),
		viewer.WithNotifier(v.root.notifier),
		viewer.WithShadow(v.shadow),
		viewer.WithSize(v.width, v.height),
	)
	return runViewer(win)
}
