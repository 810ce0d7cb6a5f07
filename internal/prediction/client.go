// Package prediction calls the remote price-prediction service and derives the
// displayed price figures from its point estimate.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vozant-ai/valuation-engine/internal/selection"
)

// Predictor produces a price estimate for a feature selection.
type Predictor interface {
	Predict(ctx context.Context, features selection.Features) (*Response, error)
}

// Response is the predict endpoint's reply.
type Response struct {
	EstimatedPrice  float64     `json:"estimatedPrice"`
	ConfidenceScore *float64    `json:"confidenceScore,omitempty"`
	Raw             *RawOutputs `json:"raw,omitempty"`
}

// RawOutputs carries the log-scale outputs of the individual ensemble models.
type RawOutputs struct {
	CatBoostLog float64 `json:"cb_log"`
	LightGBMLog float64 `json:"lgb_log"`
	XGBoostLog  float64 `json:"xgb_log"`
}

// Client calls the predict endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config holds prediction client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new prediction client.
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

// Predict posts the full feature tuple to POST {base}/predict. Any non-2xx
// response is a hard failure; callers must not build partial results from it.
func (c *Client) Predict(ctx context.Context, features selection.Features) (*Response, error) {
	jsonBody, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(jsonBody))
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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("prediction failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &out, nil
}

// MockPredictor returns a fixed response, for tests.
type MockPredictor struct {
	Response *Response
	Err      error
}

// Predict returns the configured response or error.
func (m *MockPredictor) Predict(ctx context.Context, features selection.Features) (*Response, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

var (
	_ Predictor = (*Client)(nil)
	_ Predictor = (*MockPredictor)(nil)
)
