package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// History prints the most recent sync runs.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	runs, err := store.Runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded yet\n")
	}

	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		r.writePlain("%s  %-9s  %s  fetched %d, skipped %d, indexed %d, failed %d (%s)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Status,
			run.ID,
			run.Total,
			run.Skipped,
			run.Indexed,
			run.Failed,
			duration,
		)
		if run.Error != "" {
			r.writePlain("    error: %s\n", run.Error)
		}
	}
	return nil
}
