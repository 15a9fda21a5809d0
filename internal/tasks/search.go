package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// DefaultResults is the number of matches returned when none is requested.
const DefaultResults = 5

// Searcher finds indexed tracks whose vibe description is closest to a free-text mood.
type Searcher struct {
	index Index
}

func NewSearcher(index Index) *Searcher {
	return &Searcher{index: index}
}

// SearchByVibe returns at most n tracks ranked by similarity to query. n <= 0 uses [DefaultResults].
//
// An empty index yields zero matches rather than an error.
func (s *Searcher) SearchByVibe(ctx context.Context, query string, n int) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be blank", shared.ErrInvalidInput)
	}
	if n <= 0 {
		n = DefaultResults
	}

	matches, err := s.index.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("vibe search failed: %w", err)
	}

	results := &models.SearchResults{Query: query, Matches: make([]models.SearchMatch, 0, len(matches))}
	for _, m := range matches {
		results.Matches = append(results.Matches, models.NewSearchMatch(m))
	}
	return results, nil
}
