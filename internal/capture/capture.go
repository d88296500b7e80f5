// Package capture grabs the desktop as a base image for the editor.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"

	"github.com/example/cutout/internal/artifact"
)

type platformBackend interface {
	ListMonitors() ([]MonitorInfo, error)
	CaptureRoot() (*image.RGBA, error)
}

var backend = newBackend()

var errNoMonitors = errors.New("no monitors available")

// MonitorInfo describes an individual monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// ListMonitors retrieves all monitors using the platform backend.
func ListMonitors() ([]MonitorInfo, error) {
	return backend.ListMonitors()
}

// Screen captures the desktop as a PNG artifact. A non-empty display
// selector crops the capture to the matching monitor.
func Screen(display string) (*artifact.Image, error) {
	img, err := backend.CaptureRoot()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if display != "" {
		monitors, err := backend.ListMonitors()
		if err != nil {
			return nil, fmt.Errorf("capture screen: %w", err)
		}
		monitor, err := FindMonitor(monitors, display)
		if err != nil {
			return nil, err
		}
		if img, err = cropToRect(img, monitor.Rect); err != nil {
			return nil, err
		}
	}
	return artifact.FromImage(img)
}

// FindMonitor resolves a selector: "primary", an index ("1" or "#1") or
// part of a monitor name.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	lower := strings.ToLower(strings.TrimSpace(selector))
	if lower == "" {
		return monitors[0], nil
	}
	if lower == "primary" {
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(lower, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), lower) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
