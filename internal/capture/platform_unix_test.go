//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestRunningOnWayland(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv("WAYLAND_DISPLAY", "")
	if !runningOnWayland() {
		t.Fatalf("expected wayland session when XDG_SESSION_TYPE=wayland")
	}

	t.Setenv("XDG_SESSION_TYPE", "x11")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	if !runningOnWayland() {
		t.Fatalf("expected wayland session when WAYLAND_DISPLAY is set")
	}

	t.Setenv("XDG_SESSION_TYPE", "x11")
	t.Setenv("WAYLAND_DISPLAY", "")
	if runningOnWayland() {
		t.Fatalf("did not expect wayland session when indicators are absent")
	}
}

func TestXImageToRGBASwapsChannels(t *testing.T) {
	setup := &xproto.SetupInfo{PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 32}}}
	// two BGRX pixels on one row
	reply := &xproto.GetImageReply{Depth: 24, Data: []byte{1, 2, 3, 0, 10, 20, 30, 0}}
	img, err := xImageToRGBA(setup, reply, 2, 1, "screen")
	if err != nil {
		t.Fatalf("xImageToRGBA: %v", err)
	}
	if got := img.RGBAAt(0, 0); got.R != 3 || got.G != 2 || got.B != 1 || got.A != 0xff {
		t.Fatalf("pixel 0 = %+v", got)
	}
	if got := img.RGBAAt(1, 0); got.R != 30 || got.B != 10 {
		t.Fatalf("pixel 1 = %+v", got)
	}

	reply.Depth = 8
	if _, err := xImageToRGBA(setup, reply, 2, 1, "screen"); err == nil {
		t.Fatalf("unknown depth accepted")
	}
}
