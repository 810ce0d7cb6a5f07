// Package imagery calls the remote image-generation service for studio visuals
// and falls back to a fixed built-in set when it is unavailable.
package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FallbackImages is the built-in studio set used when generation fails or
// returns nothing.
var FallbackImages = []string{
	"/assets/studio-1.png",
	"/assets/studio-2.png",
	"/assets/studio-3.png",
	"/assets/studio-4.png",
	"/assets/studio-5.png",
}

// Imager produces display-ready image sources for a vehicle.
type Imager interface {
	Generate(ctx context.Context, brand, model string, year int) []string
}

// Request is the generate-images endpoint's payload.
type Request struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Response is the generate-images endpoint's reply. Each entry is a URL, a
// rooted path, a data URI, or a raw base64 payload.
type Response struct {
	Images []string `json:"images"`
	Cached bool     `json:"cached,omitempty"`
}

// Client calls the generate-images endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config holds imagery client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new imagery client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}, nil
}

// Generate requests studio visuals for the vehicle. Failure and empty results
// both yield the built-in fallback set; generation is never a user-visible
// error.
func (c *Client) Generate(ctx context.Context, brand, model string, year int) []string {
	images, err := c.generate(ctx, brand, model, year)
	if err != nil || len(images) == 0 {
		return FallbackImages
	}

	normalized := make([]string, len(images))
	for i, img := range images {
		normalized[i] = NormalizeSource(img)
	}
	return normalized
}

func (c *Client) generate(ctx context.Context, brand, model string, year int) ([]string, error) {
	jsonBody, err := json.Marshal(Request{Brand: brand, Model: model, Year: year})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-images", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image generation failed: status %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return out.Images, nil
}

// NormalizeSource turns an image entry into a display-ready source. URLs,
// rooted paths, blob references, asset paths and data URIs pass through; any
// other payload is treated as raw base64 PNG data.
func NormalizeSource(s string) string {
	switch {
	case strings.HasPrefix(s, "http"),
		strings.HasPrefix(s, "/"),
		strings.HasPrefix(s, "blob:"),
		strings.Contains(s, "assets/"),
		strings.HasPrefix(s, "data:"):
		return s
	default:
		return "data:image/png;base64," + s
	}
}

// MockImager returns a fixed image list, for tests.
type MockImager struct {
	Images []string
}

// Generate returns the configured images, or the fallback set when empty.
func (m *MockImager) Generate(ctx context.Context, brand, model string, year int) []string {
	if len(m.Images) == 0 {
		return FallbackImages
	}
	return m.Images
}

var (
	_ Imager = (*Client)(nil)
	_ Imager = (*MockImager)(nil)
)
