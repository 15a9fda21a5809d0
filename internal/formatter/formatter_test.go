package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	th "github.com/desertthunder/vibesync/internal/testing"
)

func library() []models.IndexRecord {
	return []models.IndexRecord{
		{
			ID:       "track1",
			Document: "A dreamy shoegaze haze about fading summer love.",
			Metadata: models.TrackMetadata{
				TrackID:     "track1",
				TrackName:   "Alison",
				ArtistNames: "Slowdive",
				AlbumName:   "Souvlaki",
				HasLyrics:   true,
				Genres:      []string{"shoegaze", "dream pop"},
				Popularity:  61,
				SpotifyURL:  "https://open.spotify.com/track/track1",
			},
		},
		{
			ID:       "track2",
			Document: "Nocturnal, rain soaked loneliness.",
			Metadata: models.TrackMetadata{
				TrackID:     "track2",
				TrackName:   "Archangel",
				ArtistNames: "Burial",
				Genres:      []string{},
				Popularity:  55,
			},
		},
	}
}

func results() *models.SearchResults {
	return &models.SearchResults{
		Query: "rainy night",
		Matches: []models.SearchMatch{
			{TrackID: "track2", TrackName: "Archangel", ArtistNames: "Burial", VibeDescription: "Nocturnal.", Score: 0.91234},
			{TrackID: "track1", TrackName: "Alison", ArtistNames: "Slowdive", Genres: []string{"shoegaze"}, Score: 0.4, SpotifyURL: "https://open.spotify.com/track/track1"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", JSON},
		{"json", JSON},
		{"CSV", CSV},
		{"md", Markdown},
		{"markdown", Markdown},
		{"text", Text},
		{" txt ", Text},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("expected %s, got %s %v", tt.want, got, err)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestLibraryExporters(t *testing.T) {
	t.Run("LibraryToCSV", func(t *testing.T) {
		data, err := LibraryToCSV(library())
		if err != nil {
			t.Fatalf("LibraryToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Track,Artists,Album,Genres,Popularity,Has Lyrics,Vibe,Spotify URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Alison,Slowdive,Souvlaki,shoegaze; dream pop,61,true,") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "track2,Archangel,Burial,,,55,false,") {
			t.Errorf("CSV missing track2 row, got: %s", output)
		}
	})

	t.Run("LibraryToMarkdown", func(t *testing.T) {
		data, _ := LibraryToMarkdown(library())
		output := string(data)

		if !strings.Contains(output, "# Vibe Library") || !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing header, got: %s", output)
		}
		if !strings.Contains(output, "1. [Slowdive - Alison](https://open.spotify.com/track/track1) (Souvlaki) [shoegaze, dream pop]\n") {
			t.Errorf("Markdown missing linked track, got: %s", output)
		}
		if !strings.Contains(output, "2. Burial - Archangel\n   > Nocturnal, rain soaked loneliness.\n") {
			t.Errorf("Markdown missing plain track, got: %s", output)
		}
	})

	t.Run("LibraryToText", func(t *testing.T) {
		data, _ := LibraryToText(library())
		output := string(data)
		if !strings.Contains(output, "Tracks: 2") || !strings.Contains(output, "1. Slowdive - Alison\n") {
			t.Errorf("unexpected text export: %s", output)
		}
	})

	t.Run("ExportLibrary JSON", func(t *testing.T) {
		data, err := ExportLibrary(nil, JSON)
		if err != nil {
			t.Fatalf("ExportLibrary failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}

		data, _ = ExportLibrary(library(), JSON)
		var decoded []models.IndexRecord
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Metadata.AlbumName != "Souvlaki" {
			t.Errorf("unexpected decoded export %+v", decoded)
		}
	})

	t.Run("WriteLibraryExport", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "exports", "library.md")

		written, err := WriteLibraryExport(library(), Markdown, path)
		if err != nil {
			t.Fatalf("WriteLibraryExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		th.AssertDirExists(t, filepath.Join(tmpDir, "exports"))
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Vibe Library") {
			t.Errorf("unexpected file content: %s", content)
		}
	})

	t.Run("WriteLibraryExport default path", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		defer th.MustChdir(t, wd)

		written, err := WriteLibraryExport(library(), Text, "")
		if err != nil {
			t.Fatalf("WriteLibraryExport failed: %v", err)
		}
		if written != "vibesync_library.txt" {
			t.Errorf("expected default file name, got %s", written)
		}
		th.AssertFileExists(t, written)
	})
}

func TestSearchExporters(t *testing.T) {
	t.Run("SearchToText", func(t *testing.T) {
		output := string(SearchToText(results()))
		if !strings.Contains(output, `Tracks matching "rainy night": 2`) {
			t.Errorf("missing header, got: %s", output)
		}
		if !strings.Contains(output, "1. Burial - Archangel (0.912)\n   Nocturnal.\n") {
			t.Errorf("missing first match, got: %s", output)
		}
	})

	t.Run("SearchToText without matches", func(t *testing.T) {
		output := string(SearchToText(&models.SearchResults{Query: "polka"}))
		if output != "No tracks match \"polka\"\n" {
			t.Errorf("unexpected output %q", output)
		}
	})

	t.Run("SearchToMarkdown", func(t *testing.T) {
		output := string(SearchToMarkdown(results()))
		if !strings.Contains(output, "# Vibe search: rainy night") {
			t.Errorf("missing title, got: %s", output)
		}
		if !strings.Contains(output, "2. [Slowdive - Alison](https://open.spotify.com/track/track1) [shoegaze] **0.400**") {
			t.Errorf("missing second match, got: %s", output)
		}
	})

	t.Run("SearchToCSV", func(t *testing.T) {
		data, err := SearchToCSV(results())
		if err != nil {
			t.Fatalf("SearchToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), "1,track2,Archangel,Burial,,0.9123,Nocturnal.,") {
			t.Errorf("unexpected CSV: %s", data)
		}
	})

	t.Run("ExportSearch JSON", func(t *testing.T) {
		data, err := ExportSearch(results(), JSON)
		if err != nil {
			t.Fatalf("ExportSearch failed: %v", err)
		}
		if !strings.Contains(string(data), `"similarity_score": 0.91234`) {
			t.Errorf("expected score field, got %s", data)
		}
	})
}
