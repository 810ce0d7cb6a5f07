// Package insight generates localized vehicle narrative text: the vehicle
// brief shown alongside an appraisal and the market-analysis synthesis that
// accompanies a predicted price.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// TextSource produces narrative text for a vehicle.
type TextSource interface {
	CarInfo(ctx context.Context, req Request) (string, error)
}

// Request is the car-info endpoint's payload. Price is only present for
// market-analysis requests.
type Request struct {
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Language string  `json:"language"`
	Price    float64 `json:"price,omitempty"`
}

// Response is the car-info endpoint's reply.
type Response struct {
	Text string `json:"text"`
}

// Client calls the car-info endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Config holds insight client configuration.
type Config struct {
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new insight client.
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
		apiKey:     cfg.APIKey,
	}, nil
}

// CarInfo requests generated text for the vehicle.
func (c *Client) CarInfo(ctx context.Context, carReq Request) (string, error) {
	jsonBody, err := json.Marshal(carReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/car-info", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("car info request failed: status %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return out.Text, nil
}

// MockTextSource returns canned text, for tests.
type MockTextSource struct {
	Text string
	Err  error

	mu sync.Mutex
	// Requests records every payload seen, in order.
	Requests []Request
}

// CarInfo returns the configured text or error.
func (m *MockTextSource) CarInfo(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

var (
	_ TextSource = (*Client)(nil)
	_ TextSource = (*MockTextSource)(nil)
)
