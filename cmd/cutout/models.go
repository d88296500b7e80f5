package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/cutout/internal/transform"
)

// switchModel is swapped in tests.
var switchModel = func(ctx context.Context, serviceURL string, timeout time.Duration, model string) error {
	return transform.NewClient(serviceURL, timeout).SwitchModel(ctx, model)
}

type modelsCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer

	switchTo string
}

func (m *modelsCmd) FlagSet() *flag.FlagSet {
	return m.fs
}

func parseModelsCmd(args []string, r *root) (*modelsCmd, error) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	m := &modelsCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(m)
	fs.StringVar(&m.switchTo, "switch", "", "ask the service to preload this model")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *modelsCmd) Run() error {
	if m.switchTo != "" {
		if m.root.serviceURL == "" {
			return fmt.Errorf("-switch needs a service URL (-service or CUTOUT_SERVICE_URL)")
		}
		if err := switchModel(context.Background(), m.root.serviceURL, m.root.timeout(), m.switchTo); err != nil {
			return fmt.Errorf("failed to switch model: %w", err)
		}
		fmt.Fprintf(m.out, "switched to %s\n", m.switchTo)
		return nil
	}
	current := transform.DefaultModel
	if m.root.config != nil && m.root.config.Pipeline.Model != "" {
		current = m.root.config.Pipeline.Model
	}
	for _, model := range transform.Models {
		marker := " "
		if model.ID == current {
			marker = "*"
		}
		fmt.Fprintf(m.out, "%s %-20s %s\n", marker, model.ID, model.Name)
	}
	return nil
}
