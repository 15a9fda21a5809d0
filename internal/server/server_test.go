package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	"golang.org/x/oauth2"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Method filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "pong")
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != "GET" {
			t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
		}
	})

	t.Run("Middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("outer"), mark("inner"))
		r.HandleFunc(http.MethodGet, "/", func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "outer,inner,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Custom handler routes", func(t *testing.T) {
		r := NewBasicRouter()
		h := NewOAuthHandler(&oauth2.Config{}, "state")
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected callback route to be registered, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("RecoverPanic", func(t *testing.T) {
		h := RecoverPanic(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "internal server error") {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("LogRequest records status", func(t *testing.T) {
		var buf strings.Builder
		h := LogRequest(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))
		if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/tea") {
			t.Errorf("expected status and path in log, got %q", buf.String())
		}
	})

	t.Run("CommonHeaders", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CommonHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("expected nosniff header")
		}
	})
}

type fakeSearcher struct {
	results *models.SearchResults
	err     error
	gotN    int
}

func (f *fakeSearcher) SearchByVibe(ctx context.Context, query string, n int) (*models.SearchResults, error) {
	f.gotN = n
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be blank", shared.ErrInvalidInput)
	}
	return f.results, nil
}

type fakeLibrary struct {
	recs []models.IndexRecord
	err  error
}

func (f *fakeLibrary) Tracks(ctx context.Context) ([]models.IndexRecord, error) { return f.recs, f.err }
func (f *fakeLibrary) Count(ctx context.Context) (int, error)                   { return len(f.recs), f.err }

func TestAPI(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	searcher := &fakeSearcher{results: &models.SearchResults{
		Query:   "rain",
		Matches: []models.SearchMatch{{TrackID: "t1", TrackName: "Archangel", Score: 0.8}},
	}}
	library := &fakeLibrary{recs: []models.IndexRecord{{ID: "t1"}, {ID: "t2"}}}
	router := NewAPIRouter(NewAPI(searcher, library, logger), logger)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("Health", func(t *testing.T) {
		rec := get("/health")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Search", func(t *testing.T) {
		rec := get("/search?q=rain&n=3")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var res models.SearchResults
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if res.Total() != 1 || res.Matches[0].TrackName != "Archangel" {
			t.Errorf("unexpected results %+v", res)
		}
		if searcher.gotN != 3 {
			t.Errorf("expected n=3, got %d", searcher.gotN)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Error("expected JSON content type")
		}
	})

	t.Run("Search caps n", func(t *testing.T) {
		get("/search?q=rain&n=500")
		if searcher.gotN != maxResults {
			t.Errorf("expected n capped at %d, got %d", maxResults, searcher.gotN)
		}
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"Blank query", "/search?q=", http.StatusBadRequest},
		{"Invalid n", "/search?q=rain&n=abc", http.StatusBadRequest},
		{"Negative n", "/search?q=rain&n=-1", http.StatusBadRequest},
		{"Unknown route", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(tt.path); rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	t.Run("Library count", func(t *testing.T) {
		rec := get("/library/count")
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"count":2}` {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Library tracks", func(t *testing.T) {
		rec := get("/library")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":2`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Upstream failure", func(t *testing.T) {
		failing := NewAPIRouter(NewAPI(&fakeSearcher{err: shared.ErrEmbeddingFailed}, library, logger), logger)
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=rain", nil))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("Internal failure", func(t *testing.T) {
		failing := NewAPIRouter(NewAPI(searcher, &fakeLibrary{err: errors.New("disk gone")}, logger), logger)
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/library/count", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "disk gone") {
			t.Error("internal errors must not leak")
		}
	})
}

func newTokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthHandler(t *testing.T) {
	config := func(tokenURL string) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
	}

	t.Run("Successful exchange", func(t *testing.T) {
		h := NewOAuthHandler(config(newTokenServer(t, http.StatusOK).URL), "xyz")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Errorf("unexpected response %d", rec.Code)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		token, err := h.Wait(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	tests := []struct {
		name   string
		query  string
		status int
		token  int
	}{
		{"State mismatch", "state=bad&code=abc", http.StatusBadRequest, http.StatusOK},
		{"Access denied", "state=xyz&error=access_denied", http.StatusBadRequest, http.StatusOK},
		{"Exchange failure", "state=xyz&code=abc", http.StatusInternalServerError, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOAuthHandler(config(newTokenServer(t, tt.token).URL), "xyz")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if _, err := h.Wait(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	}

	t.Run("Second callback rejected", func(t *testing.T) {
		h := NewOAuthHandler(config(newTokenServer(t, http.StatusOK).URL), "xyz")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		h := NewOAuthHandler(config("http://127.0.0.1:1"), "xyz")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := h.Wait(ctx); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), shared.NewLogger(io.Discard))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
