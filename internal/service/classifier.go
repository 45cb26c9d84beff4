package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"phishguard/internal/model"
)

// Classifier is the abstract scoring capability the orchestrator is written
// against. The transport is swappable; tests substitute a stub.
type Classifier interface {
	Classify(ctx context.Context, url string, m model.ModelID) (*model.Classification, error)
	Health(ctx context.Context) error
}

// HTTPClassifier talks to the scoring backend over its HTTP API.
type HTTPClassifier struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		BaseURL: baseURL,
		// Per-request deadlines come from the caller's context; this is a
		// hard ceiling against a hung transport.
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type classifyRequest struct {
	URL   string `json:"url"`
	Model string `json:"model"`
}

// Classify sends POST /classify and decodes the verdict payload.
func (c *HTTPClassifier) Classify(ctx context.Context, url string, m model.ModelID) (*model.Classification, error) {
	body, err := json.Marshal(classifyRequest{URL: url, Model: string(m)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring backend returned HTTP %d", resp.StatusCode)
	}

	var result model.Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Health calls GET /health and reports reachability.
func (c *HTTPClassifier) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("scoring backend unreachable: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status: HTTP %d", resp.StatusCode)
	}
	return nil
}
