package testing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/vibesync/internal/models"
)

// NewSavedTrack builds a saved track fixture with one artist per entry of artistIDs.
func NewSavedTrack(id, name string, artistIDs ...string) models.SavedTrack {
	artists := make([]models.Artist, 0, len(artistIDs))
	for _, a := range artistIDs {
		artists = append(artists, models.Artist{ID: a, Name: "Artist " + a, Genres: []string{}})
	}
	return models.SavedTrack{
		Track: models.Track{
			ID:         id,
			Name:       name,
			Artists:    artists,
			Album:      models.Album{ID: "album-" + id, Name: "Album " + name},
			Popularity: 50,
			URL:        "https://open.spotify.com/track/" + id,
		},
		AddedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NewSavedTracks builds n fixtures with ids t0..t(n-1), each credited to artist "a<i%3>".
func NewSavedTracks(n int) []models.SavedTrack {
	tracks := make([]models.SavedTrack, n)
	for i := range n {
		tracks[i] = NewSavedTrack(fmt.Sprintf("t%d", i), fmt.Sprintf("Song %d", i), fmt.Sprintf("a%d", i%3))
	}
	return tracks
}

// PageCall records one SavedTracks request.
type PageCall struct {
	Limit  int
	Offset int
}

// MockCatalog is a test double for services.Catalog serving pages from Tracks.
type MockCatalog struct {
	Tracks      []models.SavedTrack
	ArtistsByID map[string]models.Artist
	User        *models.User

	SavedErr   error
	ArtistsErr error
	UserErr    error

	mu          sync.Mutex
	PageCalls   []PageCall
	ArtistCalls [][]string
}

func (m *MockCatalog) SavedTracks(ctx context.Context, limit, offset int) ([]models.SavedTrack, error) {
	m.mu.Lock()
	m.PageCalls = append(m.PageCalls, PageCall{Limit: limit, Offset: offset})
	m.mu.Unlock()

	if m.SavedErr != nil {
		return nil, m.SavedErr
	}
	if offset >= len(m.Tracks) {
		return []models.SavedTrack{}, nil
	}
	end := min(offset+limit, len(m.Tracks))
	return append([]models.SavedTrack(nil), m.Tracks[offset:end]...), nil
}

// Artists returns full artist records for ids found in ArtistsByID.
func (m *MockCatalog) Artists(ctx context.Context, ids []string) ([]models.Artist, error) {
	m.mu.Lock()
	m.ArtistCalls = append(m.ArtistCalls, append([]string(nil), ids...))
	m.mu.Unlock()

	if m.ArtistsErr != nil {
		return nil, m.ArtistsErr
	}
	artists := []models.Artist{}
	for _, id := range ids {
		if a, ok := m.ArtistsByID[id]; ok {
			artists = append(artists, a)
		}
	}
	return artists, nil
}

func (m *MockCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User == nil {
		return &models.User{ID: "mock-user", DisplayName: "Mock User"}, nil
	}
	return m.User, nil
}

// MockLyrics is a test double for services.LyricsFinder keyed by track title.
type MockLyrics struct {
	Lyrics map[string]string
	Errs   map[string]error

	// Delay is applied to every lookup; the lookup returns early when ctx ends.
	Delay time.Duration

	mu    sync.Mutex
	Calls []string
}

func (m *MockLyrics) Search(ctx context.Context, title, artist string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, title)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err := m.Errs[title]; err != nil {
		return "", err
	}
	return m.Lyrics[title], nil
}

// CallCount returns the number of lookups performed.
func (m *MockLyrics) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockGenerator is a test double for services.Generator.
//
// Reply, when set, computes the completion; otherwise Response and Err are returned.
type MockGenerator struct {
	Reply    func(prompt string) (string, error)
	Response string
	Err      error
	Panic    bool

	mu      sync.Mutex
	Prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.Panic {
		panic("generator exploded")
	}
	if m.Reply != nil {
		return m.Reply(prompt)
	}
	return m.Response, m.Err
}

// PromptCount returns the number of prompts received.
func (m *MockGenerator) PromptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// KeywordEmbedder is a deterministic services.Embedder: each dimension counts the occurrences of one
// vocabulary word in the text.
type KeywordEmbedder struct {
	Vocabulary []string
	Err        error

	mu    sync.Mutex
	Calls int
}

// NewKeywordEmbedder creates an embedder over a small mood vocabulary.
func NewKeywordEmbedder() *KeywordEmbedder {
	return &KeywordEmbedder{Vocabulary: []string{
		"sad", "happy", "love", "party", "night", "rain", "summer", "dance", "grief", "nostalgia",
	}}
}

func (k *KeywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	k.Calls++
	k.mu.Unlock()

	if k.Err != nil {
		return nil, k.Err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(k.Vocabulary))
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return r < 'a' || r > 'z'
		})
		for _, w := range words {
			for j, vocab := range k.Vocabulary {
				if w == vocab {
					v[j]++
				}
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

// CallCount returns the number of Embed calls.
func (k *KeywordEmbedder) CallCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.Calls
}

// MemoryIndex is an in-memory vector index for pipeline tests.
type MemoryIndex struct {
	Embedder *KeywordEmbedder

	ExistsErr error
	InsertErr map[string]error

	mu       sync.Mutex
	records  map[string]models.IndexRecord
	Inserted []string
}

// NewMemoryIndex creates an empty index ranking with a [KeywordEmbedder].
func NewMemoryIndex(recs ...models.IndexRecord) *MemoryIndex {
	idx := &MemoryIndex{
		Embedder:  NewKeywordEmbedder(),
		InsertErr: map[string]error{},
		records:   map[string]models.IndexRecord{},
	}
	for _, r := range recs {
		idx.records[r.ID] = r
	}
	return idx
}

func (m *MemoryIndex) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *MemoryIndex) Insert(ctx context.Context, rec models.IndexRecord) error {
	if rec.Document == "" {
		return nil
	}
	if err := m.InsertErr[rec.ID]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	m.Inserted = append(m.Inserted, rec.ID)
	return nil
}

func (m *MemoryIndex) InsertMany(ctx context.Context, recs []models.IndexRecord) error {
	for _, r := range recs {
		if err := m.Insert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryIndex) Delete(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryIndex) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	m.records = map[string]models.IndexRecord{}
	return n, nil
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// List returns records ordered by track name.
func (m *MemoryIndex) List(ctx context.Context) ([]models.IndexRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]models.IndexRecord, 0, len(m.records))
	for _, r := range m.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Metadata.TrackName == recs[j].Metadata.TrackName {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].Metadata.TrackName < recs[j].Metadata.TrackName
	})
	return recs, nil
}

func (m *MemoryIndex) Query(ctx context.Context, text string, n int) ([]models.IndexMatch, error) {
	recs, _ := m.List(ctx)
	if len(recs) == 0 || n <= 0 {
		return []models.IndexMatch{}, nil
	}

	texts := []string{text}
	for _, r := range recs {
		texts = append(texts, r.Document)
	}
	vectors, err := m.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	matches := make([]models.IndexMatch, len(recs))
	for i, r := range recs {
		matches[i] = models.IndexMatch{IndexRecord: r, Score: Cosine(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Record returns a stored record.
func (m *MemoryIndex) Record(id string) (models.IndexRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// Cosine returns the cosine similarity of a and b.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
