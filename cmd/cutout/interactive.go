package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/pipeline"
	"github.com/example/cutout/internal/transform"
	"github.com/example/cutout/internal/viewer"
)

// interactiveCmd drives one pipeline session from typed commands.
type interactiveCmd struct {
	*root
	fs *flag.FlagSet

	in      io.Reader
	out     io.Writer
	scripts []string
	events  bool
	shadow  bool

	orch *pipeline.Orchestrator
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	i := &interactiveCmd{root: r, fs: fs, in: os.Stdin, out: os.Stdout}
	fs.Usage = usageFunc(i)
	fs.Func("e", "run this command instead of reading stdin (repeatable)", func(s string) error {
		i.scripts = append(i.scripts, s)
		return nil
	})
	fs.BoolVar(&i.events, "events", false, "print pipeline events as they happen")
	fs.BoolVar(&i.shadow, "shadow", false, "add a drop shadow to saved and copied images")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *interactiveCmd) Run() error {
	i.orch = i.root.newOrchestrator()
	defer i.orch.Close()
	if i.events {
		defer i.orch.Subscribe(i.printEvent)()
	}
	if len(i.scripts) > 0 {
		for _, line := range i.scripts {
			done, err := i.exec(line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		i.orch.Flush()
		i.orch.Wait()
		return nil
	}

	fmt.Fprintln(i.out, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(i.in)
	for {
		fmt.Fprint(i.out, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := i.exec(scanner.Text())
		if err != nil {
			fmt.Fprintln(i.out, "error:", err)
		}
		if done {
			break
		}
	}
	i.orch.Flush()
	i.orch.Wait()
	return scanner.Err()
}

func (i *interactiveCmd) printEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventStageChanged:
		fmt.Fprintf(i.out, "event %s %s=%s\n", ev.Type, ev.Stage, ev.State)
	case pipeline.EventDisplayChanged:
		fmt.Fprintf(i.out, "event %s %dx%d\n", ev.Type, ev.Image.Width, ev.Image.Height)
	case pipeline.EventError:
		fmt.Fprintf(i.out, "event %s %v\n", ev.Type, ev.Err)
	default:
		fmt.Fprintf(i.out, "event %s\n", ev.Type)
	}
}

// exec runs one command line and reports whether the session should end.
func (i *interactiveCmd) exec(line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return false, nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	log.WithField("command", cmd).Debug("interactive")
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprint(i.out, interactiveHelp)
		return false, nil
	case "load":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: load FILE")
		}
		return false, i.load(source{file: rest[0]})
	case "capture":
		src := source{capture: true}
		if len(rest) > 0 {
			src.display = rest[0]
		}
		return false, i.load(src)
	case "paste":
		return false, i.load(source{fromClipboard: true})
	case "bg", "pad", "resize", "aspect":
		on, err := onOffArg(cmd, rest)
		if err != nil {
			return false, err
		}
		switch cmd {
		case "bg":
			i.orch.SetRemoveBackground(on)
		case "pad":
			i.orch.SetPadding(on)
		case "resize":
			i.orch.SetResizeActive(on)
		case "aspect":
			i.orch.SetMaintainAspectRatio(on)
		}
		return false, nil
	case "pad-size", "edge", "erode", "width", "height":
		v, err := intArg(cmd, rest)
		if err != nil {
			return false, err
		}
		return false, i.orch.Commit(pipeline.Change{Field: commandFields[cmd], Value: v})
	case "drag":
		if len(rest) != 2 {
			return false, fmt.Errorf("usage: drag FIELD VALUE")
		}
		f, err := pipeline.ParseField(rest[0])
		if err != nil {
			return false, err
		}
		v, err := strconv.Atoi(rest[1])
		if err != nil {
			return false, fmt.Errorf("drag: %q is not a number", rest[1])
		}
		return false, i.orch.Drag(pipeline.Change{Field: f, Value: v})
	case "model":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: model ID")
		}
		return false, i.orch.SetModel(rest[0])
	case "size":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: size WIDTHxHEIGHT|PRESET")
		}
		w, h, err := transform.ParseSize(rest[0])
		if err != nil {
			return false, err
		}
		return false, i.orch.SetSize(w, h)
	case "wait":
		i.orch.Flush()
		i.orch.Wait()
		return false, nil
	case "status":
		i.printStatus()
		return false, nil
	case "history":
		i.printHistory()
		return false, nil
	case "restore":
		n, err := intArg(cmd, rest)
		if err != nil {
			return false, err
		}
		entries := i.orch.History()
		if n < 0 || n >= len(entries) {
			return false, fmt.Errorf("restore: no history entry %d", n)
		}
		i.orch.Restore(entries[n])
		return false, nil
	case "save":
		if len(rest) != 1 {
			return false, fmt.Errorf("usage: save FILE")
		}
		return false, i.save(rest[0])
	case "copy":
		return false, i.copy()
	}
	return false, fmt.Errorf("unknown command %q (type 'help')", cmd)
}

var commandFields = map[string]pipeline.Field{
	"pad-size": pipeline.FieldPaddingSize,
	"edge":     pipeline.FieldEdgeThreshold,
	"erode":    pipeline.FieldErodeSize,
	"width":    pipeline.FieldTargetWidth,
	"height":   pipeline.FieldTargetHeight,
}

func onOffArg(cmd string, rest []string) (bool, error) {
	if len(rest) != 1 {
		return false, fmt.Errorf("usage: %s on|off", cmd)
	}
	switch strings.ToLower(rest[0]) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%s: expected on or off, got %q", cmd, rest[0])
}

func intArg(cmd string, rest []string) (int, error) {
	if len(rest) != 1 {
		return 0, fmt.Errorf("usage: %s N", cmd)
	}
	v, err := strconv.Atoi(rest[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", cmd, rest[0])
	}
	return v, nil
}

func (i *interactiveCmd) load(src source) error {
	img, err := src.load()
	if err != nil {
		return err
	}
	if err := i.orch.Load(img); err != nil {
		return err
	}
	fmt.Fprintf(i.out, "loaded %dx%d\n", img.Width, img.Height)
	return nil
}

func (i *interactiveCmd) printStatus() {
	d := i.orch.Displayed()
	if d == nil {
		fmt.Fprintln(i.out, "no image")
		return
	}
	s := i.orch.Settings()
	fmt.Fprintf(i.out, "image %dx%d\n", d.Width, d.Height)
	for _, st := range pipeline.Stages {
		fmt.Fprintf(i.out, "%s: %s\n", st, i.orch.StageState(st))
	}
	fmt.Fprintf(i.out, "model %s edge %d erode %d\n", s.Model, s.EdgeThreshold, s.ErodeSize)
	fmt.Fprintf(i.out, "padding %d%%\n", s.PaddingSize)
	fmt.Fprintf(i.out, "target %dx%d aspect %v\n", s.TargetWidth, s.TargetHeight, s.MaintainAspectRatio)
	if err := i.orch.LastError(); err != nil {
		fmt.Fprintf(i.out, "error: %v\n", err)
	}
}

func (i *interactiveCmd) printHistory() {
	entries := i.orch.History()
	if len(entries) == 0 {
		fmt.Fprintln(i.out, "history empty")
		return
	}
	for n, e := range entries {
		fmt.Fprintf(i.out, "%d: %dx%d %s bg=%v pad=%v resize=%v\n", n,
			e.Image.Width, e.Image.Height, e.Time.Format("15:04:05"),
			e.Settings.RemoveBackground, e.Settings.PaddingEnabled, e.Settings.ResizeActive)
	}
}

func (i *interactiveCmd) export() (*artifact.Image, error) {
	i.orch.Flush()
	i.orch.Wait()
	d := i.orch.Displayed()
	if d == nil {
		return nil, pipeline.ErrNoImage
	}
	return viewer.Export(d, nil, i.shadow)
}

func (i *interactiveCmd) save(path string) error {
	out, err := i.export()
	if err != nil {
		return err
	}
	if err := writeArtifact(path, out); err != nil {
		return err
	}
	fmt.Fprintf(i.out, "saved %s\n", path)
	i.root.notifySave(path)
	return nil
}

func (i *interactiveCmd) copy() error {
	out, err := i.export()
	if err != nil {
		return err
	}
	if err := writeClipboardFn(out); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	fmt.Fprintln(i.out, "copied")
	i.root.notifyCopy("image")
	return nil
}

const interactiveHelp = `commands:
  load FILE | capture [DISPLAY] | paste
  bg|pad|resize|aspect on|off
  pad-size N | edge N | erode N | width N | height N
  drag FIELD N
  model ID | size WIDTHxHEIGHT|PRESET
  wait | status | history | restore N
  save FILE | copy | exit
`
