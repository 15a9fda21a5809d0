// package models defines the data model for the vibe search library
package models

import (
	"strings"
	"time"
)

// User is the authenticated catalog account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"` // premium, free, etc.
	ImageURL    string `json:"image_url,omitempty"`
}

// Image is a cover or profile image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is a performer with lazily populated genre tags.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Album holds cover images ordered by descending resolution.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// CoverURL returns the largest cover image, or an empty string.
func (a Album) CoverURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

// Track is a single song from the catalog.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	Popularity int      `json:"popularity"` // 0-100
	URL        string   `json:"url,omitempty"`
}

// ArtistNames joins artist names with ", " in credit order.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Genres flattens genre tags across all artists in credit order.
func (t Track) Genres() []string {
	genres := []string{}
	for _, a := range t.Artists {
		genres = append(genres, a.Genres...)
	}
	return genres
}

// ArtistIDs returns the non-empty artist ids of the track.
func (t Track) ArtistIDs() []string {
	ids := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// SavedTrack is a [Track] plus the instant the user saved it.
type SavedTrack struct {
	Track   Track     `json:"track"`
	AddedAt time.Time `json:"added_at"`
}

// EnrichedTrack is a [SavedTrack] with lyrics and an optional vibe description.
//
// Created once per sync pass and never mutated after it is emitted.
type EnrichedTrack struct {
	SavedTrack      SavedTrack `json:"saved_track"`
	Lyrics          string     `json:"lyrics"`
	VibeDescription string     `json:"vibe_description,omitempty"`
}

// NewEnrichedTrack builds an [EnrichedTrack].
func NewEnrichedTrack(saved SavedTrack, lyrics, vibe string) *EnrichedTrack {
	return &EnrichedTrack{SavedTrack: saved, Lyrics: lyrics, VibeDescription: vibe}
}

func (e *EnrichedTrack) TrackID() string { return e.SavedTrack.Track.ID }
func (e *EnrichedTrack) HasLyrics() bool { return e.Lyrics != "" }
func (e *EnrichedTrack) HasVibe() bool   { return e.VibeDescription != "" }

// Record projects the track into the [IndexRecord] stored by the index.
func (e *EnrichedTrack) Record() IndexRecord {
	t := e.SavedTrack.Track
	return IndexRecord{
		ID:       t.ID,
		Document: e.VibeDescription,
		Metadata: TrackMetadata{
			TrackID:     t.ID,
			TrackName:   t.Name,
			ArtistNames: t.ArtistNames(),
			AlbumName:   t.Album.Name,
			HasLyrics:   e.HasLyrics(),
			Genres:      t.Genres(),
			Popularity:  t.Popularity,
			SpotifyURL:  t.URL,
		},
	}
}

// SyncProgress is a transient progress event emitted once per fetched track.
type SyncProgress struct {
	Current    int    `json:"current"` // 1-based across the whole run
	Total      int    `json:"total"`
	SongTitle  string `json:"song_title"`
	ArtistName string `json:"artist_name"`
}

// TrackMetadata is the searchable metadata stored alongside a vibe document.
type TrackMetadata struct {
	TrackID     string   `json:"track_id"`
	TrackName   string   `json:"track_name"`
	ArtistNames string   `json:"artist_names"`
	AlbumName   string   `json:"album_name"`
	HasLyrics   bool     `json:"has_lyrics"`
	Genres      []string `json:"genres"`
	Popularity  int      `json:"popularity"`
	SpotifyURL  string   `json:"spotify_url"`
}

// IndexRecord is a single entry of the vector index keyed by track id.
type IndexRecord struct {
	ID       string        `json:"id"`
	Document string        `json:"document"`
	Metadata TrackMetadata `json:"metadata"`
}

// IndexMatch is an [IndexRecord] returned by a similarity query.
type IndexMatch struct {
	IndexRecord
	Score float64 `json:"score"` // cosine similarity
}
