// Genius lyrics implementation of [LyricsFinder]
//
// Song lookup uses https://docs.genius.com/#search-h2; the lyrics themselves are scraped
// from the song's page since the API does not expose them.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/shared"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
)

const (
	geniusBaseURL = "https://api.genius.com"

	// geniusTimeout bounds a single request when the configuration leaves it unset.
	geniusTimeout = 15 * time.Second
)

// GeniusHit is one search result.
type GeniusHit struct {
	Type   string     `json:"type"`
	Result GeniusSong `json:"result"`
}

// GeniusSong is the song summary attached to a search hit.
type GeniusSong struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	URL           string       `json:"url"`
	PrimaryArtist GeniusArtist `json:"primary_artist"`
}

// GeniusArtist is a Genius artist summary.
type GeniusArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type geniusSearchResponse struct {
	Response struct {
		Hits []GeniusHit `json:"hits"`
	} `json:"response"`
}

// GeniusService looks up lyrics on Genius.
//
// Requests are rate limited and transient failures retried; once attempts are exhausted the lookup
// yields no lyrics instead of an error.
type GeniusService struct {
	api     *APIService
	pages   *http.Client
	limiter *rate.Limiter
	retry   shared.RetryPolicy
	cleaner *TitleCleaner
	logger  *log.Logger
}

// NewGeniusService creates a Genius client from the lyrics configuration and API access token.
func NewGeniusService(cfg shared.LyricsConfig, token string, logger *log.Logger) *GeniusService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geniusBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = geniusTimeout
	}
	client := &http.Client{Timeout: timeout}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &GeniusService{
		api:     NewAPIService(strings.TrimRight(baseURL, "/"), client, BearerHeaders(token)),
		pages:   client,
		limiter: rate.NewLimiter(limit, 1),
		retry:   cfg.Retry.Policy(),
		cleaner: NewTitleCleaner(),
		logger:  logger,
	}
}

// Name returns the provider name.
func (g *GeniusService) Name() string {
	return "Genius"
}

// Search implements [LyricsFinder].
//
// Returns an empty string when no matching song exists or when the lookup keeps failing.
// Only context errors are returned.
func (g *GeniusService) Search(ctx context.Context, title, artist string) (string, error) {
	clean := g.cleaner.CleanTitle(title)
	g.logger.Debug("searching lyrics", "title", clean, "artist", artist, "original", title)

	var lyrics string
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		lyrics, err = g.fetch(ctx, clean, artist)
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return "", err
	default:
		g.logger.Warn("failed to fetch lyrics", "title", clean, "artist", artist, "error", err)
		return "", nil
	}

	if lyrics != "" {
		g.logger.Info("found lyrics", "title", clean, "artist", artist)
	}
	return lyrics, nil
}

func (g *GeniusService) fetch(ctx context.Context, title, artist string) (string, error) {
	song, err := g.findSong(ctx, title, artist)
	if err != nil || song == nil {
		return "", err
	}
	return g.songLyrics(ctx, song.URL)
}

// findSong returns the first song hit whose primary artist matches artist, or nil.
func (g *GeniusService) findSong(ctx context.Context, title, artist string) (*GeniusSong, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(title + " " + artist)
	var resp geniusSearchResponse
	if err := g.api.GetJSON(ctx, "/search?q="+url.QueryEscape(query), &resp); err != nil {
		return nil, err
	}

	for _, hit := range resp.Response.Hits {
		if hit.Type != "song" || hit.Result.URL == "" {
			continue
		}
		if ArtistMatches(hit.Result.PrimaryArtist.Name, artist) {
			song := hit.Result
			return &song, nil
		}
	}
	return nil, nil
}

func (g *GeniusService) songLyrics(ctx context.Context, pageURL string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := g.pages.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := StatusError(resp.StatusCode, nil); err != nil {
		return "", err
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse lyrics page: %v", shared.ErrAPIRequest, err)
	}

	return g.cleaner.CleanLyrics(ExtractLyrics(doc)), nil
}

// ExtractLyrics collects the text of every lyrics container in a Genius song page.
//
// Line breaks become newlines and annotation-only elements are skipped.
func ExtractLyrics(doc *html.Node) string {
	var containers []string

	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && attr(n, "data-lyrics-container") == "true" {
			var b strings.Builder
			writeText(&b, n)
			containers = append(containers, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	return strings.Join(containers, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
		if attr(n, "data-exclude-from-selection") == "true" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
