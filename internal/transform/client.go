package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/cutout/internal/artifact"
)

// DefaultTimeout bounds a single service call.
const DefaultTimeout = 60 * time.Second

const maxErrorBody = 512

// StatusError reports a non-200 response from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: received non-200 status code: %d - %s", e.Op, e.StatusCode, e.Body)
}

// Client calls the image-processing service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// RemoveBackground posts img to /remove-background.
func (c *Client) RemoveBackground(ctx context.Context, img *artifact.Image, opts RemovalOptions) (*artifact.Image, error) {
	if _, err := LookupModel(opts.Model); err != nil {
		return nil, err
	}
	return c.post(ctx, "remove-background", img, map[string]string{
		"model":                opts.Model,
		"foreground_threshold": strconv.Itoa(opts.EdgeThreshold),
		"erode_size":           strconv.Itoa(opts.ErodeSize),
		"alpha_matting":        "true",
	})
}

// Fit posts img to /fit-image.
func (c *Client) Fit(ctx context.Context, img *artifact.Image, opts FitOptions) (*artifact.Image, error) {
	fields := map[string]string{
		"border_enabled":        strconv.FormatBool(opts.PaddingEnabled),
		"border_size":           strconv.Itoa(ClampPadding(opts.PaddingSize)),
		"maintain_aspect_ratio": strconv.FormatBool(opts.MaintainAspectRatio),
	}
	if opts.TargetWidth > 0 {
		fields["target_width"] = strconv.Itoa(opts.TargetWidth)
	}
	if opts.TargetHeight > 0 {
		fields["target_height"] = strconv.Itoa(opts.TargetHeight)
	}
	return c.post(ctx, "fit-image", img, fields)
}

// Resize posts img to /resize-image.
func (c *Client) Resize(ctx context.Context, img *artifact.Image, opts ResizeOptions) (*artifact.Image, error) {
	if err := ValidateDimension(opts.Width); err != nil {
		return nil, err
	}
	if err := ValidateDimension(opts.Height); err != nil {
		return nil, err
	}
	return c.post(ctx, "resize-image", img, map[string]string{
		"width":                 strconv.Itoa(opts.Width),
		"height":                strconv.Itoa(opts.Height),
		"maintain_aspect_ratio": strconv.FormatBool(opts.MaintainAspectRatio),
	})
}

// SwitchModel asks the service to preload model for later removals.
func (c *Client) SwitchModel(ctx context.Context, model string) error {
	if _, err := LookupModel(model); err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/switch-model", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("switch-model", resp)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op string, img *artifact.Image, fields map[string]string) (*artifact.Image, error) {
	log := logrus.WithFields(logrus.Fields{
		"op":       op,
		"artifact": img.ID,
	})
	start := time.Now()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+op, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	out, err := artifact.New(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.WithFields(logrus.Fields{
		"result":   out.ID,
		"width":    out.Width,
		"height":   out.Height,
		"duration": time.Since(start),
	}).Debug("Transform completed")
	return out, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
