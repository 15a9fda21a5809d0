package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/vibesync/internal/formatter"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Library manages the tracks already stored in the index.
type Library struct {
	index Index
}

func NewLibrary(index Index) *Library {
	return &Library{index: index}
}

// Tracks returns every indexed record sorted by track name.
func (l *Library) Tracks(ctx context.Context) ([]models.IndexRecord, error) {
	recs, err := l.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	slices.SortStableFunc(recs, func(a, b models.IndexRecord) int {
		if c := strings.Compare(strings.ToLower(a.Metadata.TrackName), strings.ToLower(b.Metadata.TrackName)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return recs, nil
}

func (l *Library) Count(ctx context.Context) (int, error) {
	n, err := l.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count library: %w", err)
	}
	return n, nil
}

// Remove deletes the given track ids from the index and returns how many were stored.
func (l *Library) Remove(ctx context.Context, ids []string) (int, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, fmt.Errorf("%w: no track ids given", shared.ErrMissingArgument)
	}

	n, err := l.index.Delete(ctx, clean)
	if err != nil {
		return 0, fmt.Errorf("failed to remove tracks: %w", err)
	}
	return n, nil
}

// Clear empties the index and returns how many tracks were removed.
func (l *Library) Clear(ctx context.Context) (int, error) {
	n, err := l.index.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear library: %w", err)
	}
	return n, nil
}

// Export writes the whole library to path in format f and returns the written path.
// An empty path uses a default file name in the working directory.
func (l *Library) Export(ctx context.Context, f formatter.Format, path string) (string, error) {
	recs, err := l.Tracks(ctx)
	if err != nil {
		return "", err
	}
	return formatter.WriteLibraryExport(recs, f, path)
}
