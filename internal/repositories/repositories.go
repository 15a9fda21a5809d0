// package repositories provides the SQLite persistence for the vector index and sync history.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Store bundles the database handle with the repositories built on it.
type Store struct {
	DB      *sql.DB
	Vectors *VectorRepository
	Runs    *SyncRunRepository
}

// Open connects to the database described by cfg, applies pending migrations and builds the repositories.
func Open(cfg shared.DatabaseConfig, embedder services.Embedder) (*Store, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Path != ":memory:" && cfg.MaxOpenConns > 0 {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewStore(db, embedder), nil
}

// NewStore builds the repositories over an already migrated database.
func NewStore(db *sql.DB, embedder services.Embedder) *Store {
	return &Store{
		DB:      db,
		Vectors: NewVectorRepository(db, embedder),
		Runs:    NewSyncRunRepository(db),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
