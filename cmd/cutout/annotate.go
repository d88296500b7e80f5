package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/render"
	"github.com/example/cutout/internal/strokes"
	"github.com/example/cutout/internal/viewer"
)

// annotateCmd merges a strokes document into an image.
type annotateCmd struct {
	*root
	fs *flag.FlagSet

	src         source
	strokes     string
	output      string
	toClipboard bool
	shadow      bool
	flatten     string
	dump        bool
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.src.file, "file", "", "image file to annotate")
	fs.BoolVar(&a.src.fromClipboard, "from-clipboard", false, "read the image from the clipboard")
	fs.BoolVar(&a.src.capture, "capture", false, "annotate a screen capture")
	fs.StringVar(&a.src.display, "display", "", "monitor to capture (primary, index or name)")
	fs.StringVar(&a.strokes, "strokes", "", "YAML strokes document to draw")
	fs.StringVar(&a.output, "output", "annotated.png", "output file path")
	fs.BoolVar(&a.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&a.shadow, "shadow", false, "add a drop shadow to the result")
	fs.StringVar(&a.flatten, "flatten", "", "place the result on a backdrop (light, dark)")
	fs.BoolVar(&a.dump, "dump", false, "print the normalised strokes document to stdout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := a.src.validate(); err != nil {
		return nil, err
	}
	if a.src.count() == 0 || a.strokes == "" {
		return nil, &UsageError{of: a}
	}
	if a.flatten != "" {
		if _, err := render.ParseBackdrop(a.flatten); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	f, err := os.Open(a.strokes)
	if err != nil {
		return fmt.Errorf("failed to open strokes: %w", err)
	}
	st, err := strokes.Load(f, a.root.pen())
	f.Close()
	if err != nil {
		return err
	}
	in, err := a.src.load()
	if err != nil {
		return err
	}
	out, err := viewer.Export(in, st.History, a.shadow)
	if err != nil {
		return err
	}
	if a.flatten != "" {
		if out, err = a.flattened(out); err != nil {
			return err
		}
	}
	if a.dump {
		if err := strokes.Encode(os.Stdout, st); err != nil {
			return err
		}
	}
	if a.output != "" {
		if err := writeArtifact(a.output, out); err != nil {
			return err
		}
		log.WithFields(log.Fields{"path": a.output, "strokes": len(st.History)}).Info("Saved annotated image")
		a.root.notifySave(a.output)
	}
	if a.toClipboard {
		if err := writeClipboardFn(out); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		a.root.notifyCopy("annotated image")
	}
	return nil
}

func (a *annotateCmd) flattened(out *artifact.Image) (*artifact.Image, error) {
	b, _ := render.ParseBackdrop(a.flatten)
	img, err := out.Decode()
	if err != nil {
		return nil, err
	}
	return artifact.FromImage(render.Flatten(img, b, render.WithTheme(a.root.theme())))
}
