package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider fetches taxonomy snapshots.
type Provider interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Client fetches the taxonomy from the options endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config holds taxonomy client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new taxonomy client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}, nil
}

// Fetch retrieves the taxonomy snapshot from GET {base}/options.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/options", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

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
		return nil, fmt.Errorf("options fetch failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var snapshot Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &snapshot, nil
}

// MockProvider returns a fixed snapshot, for tests.
type MockProvider struct {
	Snapshot *Snapshot
	Err      error
	// Fetches counts calls.
	Fetches int
}

// Fetch returns the configured snapshot or error.
func (m *MockProvider) Fetch(ctx context.Context) (*Snapshot, error) {
	m.Fetches++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshot, nil
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*MockProvider)(nil)
)
