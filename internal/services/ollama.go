// Ollama implementation of [Embedder]
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/vibesync/internal/shared"
)

const (
	ollamaBaseURL = "http://localhost:11434"
	embedTimeout  = 30 * time.Second
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// OllamaEmbedder computes embeddings with the Ollama /api/embed endpoint.
type OllamaEmbedder struct {
	api   *APIService
	model string
	retry shared.RetryPolicy
}

// NewOllamaEmbedder creates an embedder from the embedding configuration.
func NewOllamaEmbedder(cfg shared.EmbeddingConfig) *OllamaEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = embedTimeout
	}

	client := &http.Client{Timeout: timeout}
	return &OllamaEmbedder{
		api:   NewAPIService(strings.TrimRight(baseURL, "/"), client, nil),
		model: cfg.Model,
		retry: cfg.Retry.Policy(),
	}
}

// Model returns the embedding model name.
func (o *OllamaEmbedder) Model() string {
	return o.model
}

// Embed implements [Embedder]. An empty input returns no vectors without a request.
//
// Transient failures are retried with the configured policy. Every terminal failure wraps
// [shared.ErrEmbeddingFailed] and no longer matches [shared.ErrTransient].
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		return o.api.PostJSON(ctx, "/api/embed", embedRequest{Model: o.model, Input: texts}, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmbeddingFailed, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", shared.ErrEmbeddingFailed, len(texts), len(resp.Embeddings))
	}
	for i, v := range resp.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", shared.ErrEmbeddingFailed, i)
		}
	}
	return resp.Embeddings, nil
}
