// package formatter renders the indexed library and vibe search results as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Format is an export format name.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat accepts a format name or one of its aliases (md, text). Empty means [JSON].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	case CSV:
		return ".csv"
	default:
		return ".json"
	}
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// LibraryToCSV converts indexed records to CSV with columns: ID, Track, Artists, Album, Genres, Popularity, Has Lyrics, Vibe, Spotify URL
func LibraryToCSV(recs []models.IndexRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track", "Artists", "Album", "Genres", "Popularity", "Has Lyrics", "Vibe", "Spotify URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range recs {
		m := rec.Metadata
		record := []string{
			rec.ID,
			m.TrackName,
			m.ArtistNames,
			m.AlbumName,
			strings.Join(m.Genres, "; "),
			strconv.Itoa(m.Popularity),
			strconv.FormatBool(m.HasLyrics),
			rec.Document,
			m.SpotifyURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// LibraryToMarkdown renders indexed records as a numbered Markdown list with the vibe quoted under each track
func LibraryToMarkdown(recs []models.IndexRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Vibe Library\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(recs)))

	buf.WriteString("## Tracks\n\n")
	for i, rec := range recs {
		m := rec.Metadata
		buf.WriteString(fmt.Sprintf("%d. %s%s%s\n", i+1, trackLink(m.ArtistNames, m.TrackName, m.SpotifyURL), albumPart(m.AlbumName), genrePart(m.Genres)))
		if rec.Document != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", rec.Document))
		}
	}

	return buf.Bytes(), nil
}

// LibraryToText renders indexed records as plain text, one track per line
func LibraryToText(recs []models.IndexRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(recs)))
	for i, rec := range recs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, rec.Metadata.ArtistNames, rec.Metadata.TrackName))
		if rec.Document != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", rec.Document))
		}
	}

	return buf.Bytes(), nil
}

// ExportLibrary renders recs in format f.
func ExportLibrary(recs []models.IndexRecord, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return LibraryToCSV(recs)
	case Markdown:
		return LibraryToMarkdown(recs)
	case Text:
		return LibraryToText(recs)
	default:
		if recs == nil {
			recs = []models.IndexRecord{}
		}
		return marshalJSON(recs)
	}
}

// WriteLibraryExport writes recs to path in format f and returns the path written.
//
// Defaults to vibesync_library{ext} in the working directory; parent directories are created.
func WriteLibraryExport(recs []models.IndexRecord, f Format, path string) (string, error) {
	if path == "" {
		path = "vibesync_library" + f.Extension()
	}

	data, err := ExportLibrary(recs, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// SearchToText renders results as plain text with similarity scores
func SearchToText(res *models.SearchResults) []byte {
	var buf bytes.Buffer

	if !res.HasResults() {
		buf.WriteString(fmt.Sprintf("No tracks match %q\n", res.Query))
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Tracks matching %q: %d\n\n", res.Query, res.Total()))
	for i, m := range res.Matches {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%.3f)\n", i+1, m.ArtistNames, m.TrackName, m.Score))
		if m.VibeDescription != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", m.VibeDescription))
		}
		if m.SpotifyURL != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", m.SpotifyURL))
		}
	}
	return buf.Bytes()
}

// SearchToMarkdown renders results as a numbered Markdown list
func SearchToMarkdown(res *models.SearchResults) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Vibe search: %s\n\n", res.Query))
	buf.WriteString(fmt.Sprintf("**Matches**: %d\n\n", res.Total()))
	for i, m := range res.Matches {
		buf.WriteString(fmt.Sprintf("%d. %s%s **%.3f**\n", i+1, trackLink(m.ArtistNames, m.TrackName, m.SpotifyURL), genrePart(m.Genres), m.Score))
		if m.VibeDescription != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", m.VibeDescription))
		}
	}
	return buf.Bytes()
}

// SearchToCSV converts results to CSV with columns: Rank, ID, Track, Artists, Album, Score, Vibe, Spotify URL
func SearchToCSV(res *models.SearchResults) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Rank", "ID", "Track", "Artists", "Album", "Score", "Vibe", "Spotify URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i, m := range res.Matches {
		record := []string{
			strconv.Itoa(i + 1),
			m.TrackID,
			m.TrackName,
			m.ArtistNames,
			m.AlbumName,
			strconv.FormatFloat(m.Score, 'f', 4, 64),
			m.VibeDescription,
			m.SpotifyURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportSearch renders res in format f.
func ExportSearch(res *models.SearchResults, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return SearchToCSV(res)
	case Markdown:
		return SearchToMarkdown(res), nil
	case Text:
		return SearchToText(res), nil
	default:
		return marshalJSON(res)
	}
}

func trackLink(artists, name, url string) string {
	label := fmt.Sprintf("%s - %s", artists, name)
	if url == "" {
		return label
	}
	return fmt.Sprintf("[%s](%s)", label, url)
}

func albumPart(album string) string {
	if album == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", album)
}

func genrePart(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	return fmt.Sprintf(" [%s]", strings.Join(genres, ", "))
}
