package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// maxResults caps the n query parameter of /search.
const maxResults = 50

// VibeSearcher is implemented by tasks.Searcher.
type VibeSearcher interface {
	SearchByVibe(ctx context.Context, query string, n int) (*models.SearchResults, error)
}

// LibraryReader is implemented by tasks.Library.
type LibraryReader interface {
	Tracks(ctx context.Context) ([]models.IndexRecord, error)
	Count(ctx context.Context) (int, error)
}

// API serves the read-only vibe search endpoints.
type API struct {
	searcher VibeSearcher
	library  LibraryReader
	logger   *log.Logger
}

func NewAPI(searcher VibeSearcher, library LibraryReader, logger *log.Logger) *API {
	return &API{searcher: searcher, library: library, logger: logger}
}

// Register adds the API routes to r.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/health", a.health)
	r.HandleFunc(http.MethodGet, "/search", a.search)
	r.HandleFunc(http.MethodGet, "/library", a.tracks)
	r.HandleFunc(http.MethodGet, "/library/count", a.count)
}

// NewAPIRouter builds a router serving the API behind the recovery, logging and header middleware.
func NewAPIRouter(api *API, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RecoverPanic(logger), LogRequest(logger), CommonHeaders)
	api.Register(r)
	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	n := 0
	if raw := q.Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = min(v, maxResults)
	}

	results, err := a.searcher.SearchByVibe(r.Context(), q.Get("q"), n)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) tracks(w http.ResponseWriter, r *http.Request) {
	recs, err := a.library.Tracks(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(recs), "tracks": recs})
}

func (a *API) count(w http.ResponseWriter, r *http.Request) {
	n, err := a.library.Count(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrEmbeddingFailed), errors.Is(err, shared.ErrServiceUnavailable):
		a.logger.Error("upstream failure", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "embedding service unavailable")
	default:
		a.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
