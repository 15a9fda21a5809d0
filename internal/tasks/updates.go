package tasks

import (
	"fmt"

	"github.com/desertthunder/vibesync/internal/models"
)

// EventKind discriminates the payload of a [SyncEvent].
type EventKind int

const (
	EventProgress EventKind = iota
	EventTrack
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventTrack:
		return "track"
	default:
		return ""
	}
}

// SyncEvent is one element of the library sync stream: either a progress update or a finished track.
type SyncEvent struct {
	Kind     EventKind
	Progress models.SyncProgress   // set for EventProgress
	Track    *models.EnrichedTrack // set for EventTrack
}

// Message renders the event for line-oriented output.
func (e SyncEvent) Message() string {
	switch e.Kind {
	case EventProgress:
		p := e.Progress
		return fmt.Sprintf("[%d/%d] %s - %s", p.Current, p.Total, p.ArtistName, p.SongTitle)
	case EventTrack:
		t := e.Track.SavedTrack.Track
		switch {
		case e.Track.HasVibe():
			return fmt.Sprintf("✓ %s - %s: %s", t.ArtistNames(), t.Name, e.Track.VibeDescription)
		case e.Track.HasLyrics():
			return fmt.Sprintf("~ %s - %s (no vibe)", t.ArtistNames(), t.Name)
		default:
			return fmt.Sprintf("~ %s - %s (no lyrics)", t.ArtistNames(), t.Name)
		}
	default:
		return ""
	}
}

func progressEvent(current, total int, saved models.SavedTrack) SyncEvent {
	return SyncEvent{
		Kind: EventProgress,
		Progress: models.SyncProgress{
			Current:    current,
			Total:      total,
			SongTitle:  saved.Track.Name,
			ArtistName: saved.Track.ArtistNames(),
		},
	}
}

func trackEvent(track *models.EnrichedTrack) SyncEvent {
	return SyncEvent{Kind: EventTrack, Track: track}
}

// SyncSummary counts what a single sync call did.
type SyncSummary struct {
	RunID      string `json:"run_id"`
	Total      int    `json:"total"`       // tracks fetched after truncation
	Skipped    int    `json:"skipped"`     // already indexed
	Failed     int    `json:"failed"`      // dropped after a per-track error
	Enriched   int    `json:"enriched"`    // emitted EnrichedTrack events
	WithLyrics int    `json:"with_lyrics"` // emitted tracks that found lyrics
	WithVibes  int    `json:"with_vibes"`  // emitted tracks written to the index
}

func (s *SyncSummary) add(track *models.EnrichedTrack) {
	s.Enriched++
	if track.HasLyrics() {
		s.WithLyrics++
	}
	if track.HasVibe() {
		s.WithVibes++
	}
}
