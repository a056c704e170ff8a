// Package embedding provides the vector-embedding provider client.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors. Check with errors.Is().
var (
	// ErrEmptyEmbedding indicates the provider answered without a usable vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
)

// DefaultTimeout bounds a single embedding round-trip.
const DefaultTimeout = 20 * time.Second

// Embedder turns free text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds the client's construction parameters.
type Config struct {
	BaseURL string // embeddings endpoint, e.g. https://api.openai.com/v1/embeddings
	APIKey  string
	Model   string
	Timeout time.Duration // zero = DefaultTimeout
}

// Client talks to an embeddings endpoint. Providers differ in response
// shape, so decoding tries the batch form first and falls back to the
// singular form before giving up.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// New creates an embedding client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// batchResponse is the OpenAI-style shape.
type batchResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// singularResponse is the shape some providers return for single-input
// requests.
type singularResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the vector for text. Failure after both decode
// attempts is a hard error for the call.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: c.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("encoding embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding provider error: status %d", resp.StatusCode)
	}

	var batch batchResponse
	if err := json.Unmarshal(raw, &batch); err == nil && len(batch.Data) > 0 && len(batch.Data[0].Embedding) > 0 {
		return batch.Data[0].Embedding, nil
	}

	var singular singularResponse
	if err := json.Unmarshal(raw, &singular); err == nil && len(singular.Embedding.Values) > 0 {
		return singular.Embedding.Values, nil
	}

	return nil, ErrEmptyEmbedding
}
