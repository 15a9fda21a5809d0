package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
)

const vectorColumns = `id, document, track_name, artist_names, album_name, has_lyrics, genres, popularity, spotify_url`

// VectorRepository is the vector index of vibe descriptions, stored in SQLite.
//
// Documents are embedded on write with the configured [services.Embedder]; queries rank every stored
// vector by cosine similarity. Re-inserting an id replaces the stored record.
type VectorRepository struct {
	db       *sql.DB
	embedder services.Embedder
}

// NewVectorRepository creates a new VectorRepository with the given database connection and embedder
func NewVectorRepository(db *sql.DB, embedder services.Embedder) *VectorRepository {
	return &VectorRepository{db: db, embedder: embedder}
}

// Exists reports whether a record with id is stored.
func (r *VectorRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM track_vectors WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check track %s: %w", id, err)
	}
	return exists, nil
}

// Insert embeds and upserts rec. A record with an empty document is ignored.
func (r *VectorRepository) Insert(ctx context.Context, rec models.IndexRecord) error {
	return r.InsertMany(ctx, []models.IndexRecord{rec})
}

// InsertMany embeds every record with a non-empty document in one request and upserts them in a single transaction.
func (r *VectorRepository) InsertMany(ctx context.Context, recs []models.IndexRecord) error {
	docs := make([]models.IndexRecord, 0, len(recs))
	for _, rec := range recs {
		if strings.TrimSpace(rec.Document) != "" && rec.ID != "" {
			docs = append(docs, rec)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Document
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: expected %d vectors, got %d", shared.ErrEmbeddingFailed, len(docs), len(vectors))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO track_vectors (` + vectorColumns + `, embedding, dimensions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			track_name = excluded.track_name,
			artist_names = excluded.artist_names,
			album_name = excluded.album_name,
			has_lyrics = excluded.has_lyrics,
			genres = excluded.genres,
			popularity = excluded.popularity,
			spotify_url = excluded.spotify_url,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			updated_at = excluded.updated_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, d := range docs {
		genres, err := json.Marshal(nonNil(d.Metadata.Genres))
		if err != nil {
			return fmt.Errorf("failed to encode genres: %w", err)
		}

		m := d.Metadata
		_, err = stmt.ExecContext(ctx,
			d.ID,
			d.Document,
			m.TrackName,
			m.ArtistNames,
			m.AlbumName,
			m.HasLyrics,
			string(genres),
			m.Popularity,
			m.SpotifyURL,
			encodeVector(vectors[i]),
			len(vectors[i]),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

// Get retrieves a single record by id.
func (r *VectorRepository) Get(ctx context.Context, id string) (*models.IndexRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+vectorColumns+" FROM track_vectors WHERE id = ?", id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return rec, nil
}

// Delete removes the records with the given ids and returns how many existed.
func (r *VectorRepository) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM track_vectors WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tracks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// Clear removes every record and returns how many were stored.
func (r *VectorRepository) Clear(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM track_vectors")
	if err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// Count returns the number of stored records.
func (r *VectorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM track_vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// List retrieves every record ordered by track name.
func (r *VectorRepository) List(ctx context.Context) ([]models.IndexRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+vectorColumns+" FROM track_vectors ORDER BY track_name COLLATE NOCASE ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	records := []models.IndexRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Query embeds text and returns at most n records ranked by descending cosine similarity.
//
// An empty index returns no matches without calling the embedder. Vectors whose dimension differs
// from the query (written by another embedding model) are skipped.
func (r *VectorRepository) Query(ctx context.Context, text string, n int) ([]models.IndexMatch, error) {
	if n <= 0 {
		return []models.IndexMatch{}, nil
	}

	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []models.IndexMatch{}, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", shared.ErrEmbeddingFailed, len(vectors))
	}
	query := vectors[0]

	rows, err := r.db.QueryContext(ctx, "SELECT "+vectorColumns+", embedding FROM track_vectors WHERE dimensions = ?", len(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	matches := []models.IndexMatch{}
	for rows.Next() {
		var (
			rec  models.IndexRecord
			blob []byte
		)
		if err := scanRecordInto(rows, &rec, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}

		v, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", rec.ID, err)
		}
		matches = append(matches, models.IndexMatch{IndexRecord: rec, Score: cosine(query, v)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.IndexRecord, error) {
	var rec models.IndexRecord
	if err := scanRecordInto(s, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanRecordInto scans the [vectorColumns] into rec followed by any extra destinations.
func scanRecordInto(s scanner, rec *models.IndexRecord, extra ...any) error {
	var genres string
	dest := []any{
		&rec.ID,
		&rec.Document,
		&rec.Metadata.TrackName,
		&rec.Metadata.ArtistNames,
		&rec.Metadata.AlbumName,
		&rec.Metadata.HasLyrics,
		&genres,
		&rec.Metadata.Popularity,
		&rec.Metadata.SpotifyURL,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	rec.Metadata.TrackID = rec.ID
	rec.Metadata.Genres = []string{}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &rec.Metadata.Genres); err != nil {
			return fmt.Errorf("failed to decode genres: %w", err)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
