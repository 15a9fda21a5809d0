package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// SyncRunRepository persists the history of library sync calls.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Start inserts run in the running state, generating an ID when it has none.
func (r *SyncRunRepository) Start(ctx context.Context, run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = models.SyncRunning

	query := `
		INSERT INTO sync_runs (id, started_at, status, requested_limit)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, run.ID, run.StartedAt, run.Status, run.Limit); err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// Finish stores the final counters, status and error of run.
func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	query := `
		UPDATE sync_runs
		SET finished_at = ?, status = ?, total = ?, skipped = ?, failed = ?, enriched = ?, with_lyrics = ?, indexed = ?, error = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		*run.FinishedAt,
		run.Status,
		run.Total,
		run.Skipped,
		run.Failed,
		run.Enriched,
		run.WithLyrics,
		run.Indexed,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", run.ID)
	}
	return nil
}

// Get retrieves a sync run by ID.
func (r *SyncRunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, status, requested_limit, total, skipped, failed, enriched, with_lyrics, indexed, error
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

// List retrieves the most recent sync runs, newest first. A limit of zero or less returns every run.
func (r *SyncRunRepository) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, status, requested_limit, total, skipped, failed, enriched, with_lyrics, indexed, error
		FROM sync_runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SyncRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var (
		run        models.SyncRun
		status     string
		finishedAt sql.NullTime
	)

	err := s.Scan(
		&run.ID,
		&run.StartedAt,
		&finishedAt,
		&status,
		&run.Limit,
		&run.Total,
		&run.Skipped,
		&run.Failed,
		&run.Enriched,
		&run.WithLyrics,
		&run.Indexed,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = models.SyncStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
