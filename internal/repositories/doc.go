// Package repositories implements SQLite persistence for the vibe index.
//
// Key Implementations:
//   - [VectorRepository] : vibe descriptions with their embeddings and track metadata, keyed by track id
//   - [SyncRunRepository] : history of library sync calls with their counters and outcome
//
// Embeddings are stored as little-endian float32 blobs. Similarity queries load every vector of the
// query's dimension and rank by cosine similarity in process, which is adequate for a personal
// library of a few thousand tracks.
//
// [Open] applies the embedded migrations from the shared package before returning a [Store].
package repositories
