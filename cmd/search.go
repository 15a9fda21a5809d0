package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/vibesync/internal/formatter"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search ranks indexed tracks against the query given as arguments.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		f = formatter.JSON
	}

	searcher, err := r.searcher()
	if err != nil {
		return err
	}

	results, err := searcher.SearchByVibe(ctx, query, cmd.Int("results"))
	if err != nil {
		return err
	}
	r.logger.Debug("vibe search", "query", query, "matches", results.Total())

	data, err := formatter.ExportSearch(results, f)
	if err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		return r.writePlain("✓ %d matches written to %s\n", results.Total(), out)
	}
	return r.writePlain("%s", data)
}
