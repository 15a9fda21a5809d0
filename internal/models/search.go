package models

import "time"

// SearchMatch is one ranked track returned by a vibe search.
type SearchMatch struct {
	TrackID         string   `json:"track_id"`
	TrackName       string   `json:"track_name"`
	ArtistNames     string   `json:"artist_names"`
	AlbumName       string   `json:"album_name"`
	VibeDescription string   `json:"vibe_description"`
	Genres          []string `json:"genres"`
	SpotifyURL      string   `json:"spotify_url,omitempty"`
	Score           float64  `json:"similarity_score"`
}

// NewSearchMatch converts an [IndexMatch] to a [SearchMatch].
func NewSearchMatch(m IndexMatch) SearchMatch {
	return SearchMatch{
		TrackID:         m.ID,
		TrackName:       m.Metadata.TrackName,
		ArtistNames:     m.Metadata.ArtistNames,
		AlbumName:       m.Metadata.AlbumName,
		VibeDescription: m.Document,
		Genres:          m.Metadata.Genres,
		SpotifyURL:      m.Metadata.SpotifyURL,
		Score:           m.Score,
	}
}

// SearchResults is the ranked answer to a vibe query.
type SearchResults struct {
	Query   string        `json:"query"`
	Matches []SearchMatch `json:"matches"`
}

func (r *SearchResults) Total() int       { return len(r.Matches) }
func (r *SearchResults) HasResults() bool { return len(r.Matches) > 0 }

// SyncStatus is the terminal state of a [SyncRun].
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncAborted   SyncStatus = "aborted"
)

// SyncRun is the persisted history entry of one library sync call.
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     SyncStatus `json:"status"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Enriched   int        `json:"enriched"`
	WithLyrics int        `json:"with_lyrics"`
	Indexed    int        `json:"indexed"`
	Error      string     `json:"error,omitempty"`
}
