package transform

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/cutout/internal/artifact"
)

func testImage(t *testing.T, w, h int) *artifact.Image {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	img, err := artifact.FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	return img
}

func TestValidateDimension(t *testing.T) {
	for _, v := range []int{0, -1, 10001} {
		if err := ValidateDimension(v); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("ValidateDimension(%d) = %v, want ErrInvalidDimension", v, err)
		}
	}
	for _, v := range []int{1, 400, 10000} {
		if err := ValidateDimension(v); err != nil {
			t.Errorf("ValidateDimension(%d) = %v", v, err)
		}
	}
	if _, err := ParseDimension("12px"); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("non-numeric input accepted: %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{in: "200x200", w: 200, h: 200},
		{in: " 640X480 ", w: 640, h: 480},
		{in: "0x10", wantErr: true},
		{in: "640", wantErr: true},
		{in: "axb", wantErr: true},
	}
	for _, tt := range tests {
		w, h, err := ParseSize(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || w != tt.w || h != tt.h {
			t.Errorf("ParseSize(%q) = %d, %d, %v", tt.in, w, h, err)
		}
	}
}

func TestLookupModel(t *testing.T) {
	m, err := LookupModel("silueta")
	if err != nil || m.Name != "General Purpose (Fastest)" {
		t.Fatalf("LookupModel = %+v, %v", m, err)
	}
	if _, err := LookupModel("gpt"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestClientRemoveBackground(t *testing.T) {
	in := testImage(t, 4, 2)
	out := testImage(t, 4, 2)
	var gotFields map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/remove-background" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			if string(data) != string(in.Data) {
				t.Errorf("uploaded image differs")
			}
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(out.Data)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	res, err := c.RemoveBackground(context.Background(), in, RemovalOptions{Model: "u2net", EdgeThreshold: 50, ErodeSize: 3})
	if err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}
	if res.Width != 4 || res.Height != 2 || res.ID == in.ID {
		t.Fatalf("result = %dx%d id=%s", res.Width, res.Height, res.ID)
	}
	want := map[string]string{"model": "u2net", "foreground_threshold": "50", "erode_size": "3", "alpha_matting": "true"}
	for k, v := range want {
		if gotFields[k] != v {
			t.Errorf("field %s = %q, want %q", k, gotFields[k], v)
		}
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Fit(context.Background(), testImage(t, 1, 1), FitOptions{PaddingEnabled: true, PaddingSize: 10})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusInternalServerError || !strings.Contains(se.Body, "model crashed") {
		t.Fatalf("status error = %+v", se)
	}
}

func TestClientRejectsBadInputBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()
	c := NewClient(srv.URL, 0)
	if _, err := c.Resize(context.Background(), testImage(t, 1, 1), ResizeOptions{Width: 0, Height: 10}); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
	if _, err := c.RemoveBackground(context.Background(), testImage(t, 1, 1), RemovalOptions{Model: "nope"}); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if called {
		t.Fatalf("invalid requests reached the service")
	}
}

func TestClientSwitchModel(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	if err := NewClient(srv.URL, 0).SwitchModel(context.Background(), "silueta"); err != nil {
		t.Fatalf("SwitchModel: %v", err)
	}
	if !strings.Contains(body, `"model":"silueta"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestLocalFitPads(t *testing.T) {
	img := testImage(t, 100, 50)
	out, err := Local{}.Fit(context.Background(), img, FitOptions{PaddingEnabled: true, PaddingSize: 20})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if out.Width != 140 || out.Height != 90 {
		t.Fatalf("padded size = %dx%d, want 140x90", out.Width, out.Height)
	}
	dec, err := out.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, _, _, a := dec.At(5, 5).RGBA(); a != 0 {
		t.Fatalf("padding is not transparent")
	}
	if r, _, _, _ := dec.At(70, 45).RGBA(); r == 0 {
		t.Fatalf("content missing from the middle")
	}
}

func TestLocalResize(t *testing.T) {
	img := testImage(t, 800, 600)
	out, err := Local{}.Resize(context.Background(), img, ResizeOptions{Width: 400, Height: 400, MaintainAspectRatio: true})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if out.Width != 400 || out.Height != 300 {
		t.Fatalf("size = %dx%d, want 400x300", out.Width, out.Height)
	}
	out, err = Local{}.Resize(context.Background(), img, ResizeOptions{Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if out.Width != 50 || out.Height != 50 {
		t.Fatalf("size = %dx%d, want 50x50", out.Width, out.Height)
	}
	if _, err := (Local{}).RemoveBackground(context.Background(), img, RemovalOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	if _, ok := Select("", 0).(Local); !ok {
		t.Fatalf("empty service url should select Local")
	}
	if c, ok := Select("http://svc:5000/", 0).(*Client); !ok || c.BaseURL != "http://svc:5000" {
		t.Fatalf("Select returned %#v", c)
	}
}
