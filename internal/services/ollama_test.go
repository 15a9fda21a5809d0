package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/vibesync/internal/shared"
)

func testEmbeddingConfig(url string) shared.EmbeddingConfig {
	return shared.EmbeddingConfig{
		BaseURL: url,
		Model:   "nomic-embed-text",
		Retry: shared.RetryConfig{
			Attempts:    3,
			InitialWait: shared.Duration{Duration: time.Millisecond},
			MaxWait:     shared.Duration{Duration: 2 * time.Millisecond},
		},
	}
}

func TestOllamaEmbedder(t *testing.T) {
	t.Run("Embed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/embed" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req embedRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "nomic-embed-text" || len(req.Input) != 2 {
				t.Errorf("unexpected request %+v", req)
			}
			w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[0.1,0.2],[0.3,0.4]]}`))
		}))
		defer server.Close()

		e := NewOllamaEmbedder(shared.EmbeddingConfig{BaseURL: server.URL, Model: "nomic-embed-text"})
		vectors, err := e.Embed(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(vectors) != 2 || vectors[1][0] != 0.3 {
			t.Errorf("unexpected vectors %v", vectors)
		}
	})

	t.Run("Empty input makes no request", func(t *testing.T) {
		e := NewOllamaEmbedder(shared.EmbeddingConfig{BaseURL: "http://127.0.0.1:1"})
		vectors, err := e.Embed(context.Background(), nil)
		if err != nil || vectors != nil {
			t.Errorf("expected nil result, got %v %v", vectors, err)
		}
	})

	t.Run("Mismatched count", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"embeddings":[[0.1]]}`))
		}))
		defer server.Close()

		e := NewOllamaEmbedder(shared.EmbeddingConfig{BaseURL: server.URL})
		if _, err := e.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, shared.ErrEmbeddingFailed) {
			t.Errorf("expected ErrEmbeddingFailed, got %v", err)
		}
	})

	t.Run("Retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"embeddings":[[0.5,0.5]]}`))
		}))
		defer server.Close()

		vectors, err := NewOllamaEmbedder(testEmbeddingConfig(server.URL)).Embed(context.Background(), []string{"a"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(vectors) != 1 || calls.Load() != 2 {
			t.Errorf("expected one vector after 2 calls, got %v after %d", vectors, calls.Load())
		}
	})

	t.Run("Exhausted retries are terminal", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewOllamaEmbedder(testEmbeddingConfig(server.URL)).Embed(context.Background(), []string{"a"})
		if !errors.Is(err, shared.ErrEmbeddingFailed) {
			t.Errorf("expected ErrEmbeddingFailed, got %v", err)
		}
		if errors.Is(err, shared.ErrTransient) {
			t.Errorf("expected a terminal error, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := NewOllamaEmbedder(testEmbeddingConfig(server.URL)).Embed(context.Background(), []string{"a"})
		if !errors.Is(err, shared.ErrEmbeddingFailed) {
			t.Errorf("expected ErrEmbeddingFailed, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("Default timeout", func(t *testing.T) {
		e := NewOllamaEmbedder(shared.EmbeddingConfig{})
		if got := e.api.httpClient.Timeout; got != embedTimeout {
			t.Errorf("expected %v timeout, got %v", embedTimeout, got)
		}
	})
}
