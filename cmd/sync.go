package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/desertthunder/vibesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync runs the library sync, printing one line per event unless --json is set.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	limit := r.config.Sync.Limit
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}
	concurrency := cmd.Int("concurrency")
	if concurrency < 0 {
		return fmt.Errorf("%w: --concurrency must not be negative", shared.ErrInvalidFlag)
	}
	quiet := cmd.Bool("json")

	syncer, err := r.librarySync(concurrency)
	if err != nil {
		return err
	}

	r.logger.Info("starting library sync", "limit", limit, "concurrency", concurrency)

	summary, err := r.streamSync(ctx, syncer, limit, quiet)
	if err != nil {
		reauthed, authErr := r.handleSpotifyAuthError(ctx, err)
		if !reauthed {
			return err
		}
		if authErr != nil {
			return authErr
		}
		if summary, err = r.streamSync(ctx, syncer, limit, quiet); err != nil {
			return err
		}
	}

	if quiet {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}
	r.writeSummary(summary)
	return nil
}

func (r *Runner) streamSync(ctx context.Context, syncer *tasks.LibrarySync, limit int, quiet bool) (*tasks.SyncSummary, error) {
	stream := syncer.Stream(ctx, limit)
	for ev := range stream.Events() {
		if quiet {
			continue
		}
		if err := r.writePlain("%s\n", ev.Message()); err != nil {
			r.logger.Warn("failed to write sync event", "error", err)
		}
	}
	return stream.Wait()
}

func (r *Runner) writeSummary(s *tasks.SyncSummary) {
	r.writePlain("\n")
	r.writePlainHeader("Sync complete")
	r.writePlain("Run:             %s\n", s.RunID)
	r.writePlain("Fetched:         %d\n", s.Total)
	r.writePlain("Already indexed: %d\n", s.Skipped)
	r.writePlain("With lyrics:     %d\n", s.WithLyrics)
	r.writePlain("With vibes:      %d\n", s.WithVibes)
	r.writePlain("Failed:          %d\n", s.Failed)
}
