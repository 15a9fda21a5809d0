package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/vibesync/internal/formatter"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList prints every indexed track.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	lib, err := r.library()
	if err != nil {
		return err
	}
	recs, err := lib.Tracks(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.ExportLibrary(recs, f)
	if err != nil {
		return fmt.Errorf("failed to render library: %w", err)
	}
	return r.writePlain("%s", data)
}

func (r *Runner) LibraryCount(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}
	n, err := lib.Count(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%d\n", n)
}

// LibraryRemove deletes the track ids given as arguments.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	n, err := lib.Remove(ctx, ids)
	if err != nil {
		return err
	}
	r.logger.Info("removed tracks", "requested", len(ids), "removed", n)
	return r.writePlain("✓ Removed %d of %d tracks\n", n, len(ids))
}

// LibraryClear empties the index. Requires --yes.
func (r *Runner) LibraryClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to remove every indexed track", shared.ErrMissingArgument)
	}

	lib, err := r.library()
	if err != nil {
		return err
	}
	n, err := lib.Clear(ctx)
	if err != nil {
		return err
	}
	r.logger.Warn("library cleared", "removed", n)
	return r.writePlain("✓ Removed %d tracks\n", n)
}

// LibraryExport writes the index to a file.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if info, err := os.Stat(path); path != "" && err == nil && info.IsDir() {
		path = filepath.Join(path, "vibesync_library"+f.Extension())
	}

	lib, err := r.library()
	if err != nil {
		return err
	}
	written, err := lib.Export(ctx, f, path)
	if err != nil {
		return err
	}

	r.logger.Info("library exported", "path", written, "format", f)
	return r.writePlain("✓ Library exported to %s\n", written)
}
