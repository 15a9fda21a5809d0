package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vibesync/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = matchItem{}
)

// trackItem wraps an indexed [models.IndexRecord] to implement [list.Item].
type trackItem struct {
	record models.IndexRecord
}

func (i trackItem) FilterValue() string {
	return strings.Join([]string{i.record.Metadata.TrackName, i.record.Metadata.ArtistNames, i.record.Document}, " ")
}
func (i trackItem) Title() string {
	return fmt.Sprintf("%s - %s", i.record.Metadata.ArtistNames, i.record.Metadata.TrackName)
}
func (i trackItem) Description() string { return i.record.Document }

// matchItem wraps a [models.SearchMatch] to implement [list.Item].
type matchItem struct {
	match models.SearchMatch
}

func (i matchItem) FilterValue() string { return i.match.TrackName }
func (i matchItem) Title() string {
	return fmt.Sprintf("%s - %s (%.2f)", i.match.ArtistNames, i.match.TrackName, i.match.Score)
}
func (i matchItem) Description() string { return i.match.VibeDescription }

func trackItems(recs []models.IndexRecord) []list.Item {
	items := make([]list.Item, len(recs))
	for i, rec := range recs {
		items[i] = trackItem{record: rec}
	}
	return items
}

func matchItems(matches []models.SearchMatch) []list.Item {
	items := make([]list.Item, len(matches))
	for i, m := range matches {
		items[i] = matchItem{match: m}
	}
	return items
}
