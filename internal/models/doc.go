// Package models defines the value types shared by the vibesync pipeline, its collaborators and its presentation layers.
//
// The package contains three groups of types:
//
// 1. Catalog values: immutable-by-convention records fetched fresh on every sync
//   - [User] : The authenticated account
//   - [Track], [Artist], [Album], [Image] : Song metadata; artist genres are filled in by a dedicated bulk pass
//   - [SavedTrack] : A track plus the instant it was liked
//
// 2. Pipeline values: produced while a sync is running and never persisted as-is
//   - [SyncProgress] : One event per fetched track, 1-based across the whole run
//   - [EnrichedTrack] : Lyrics plus an optional vibe description
//
// 3. Index values: what the vector index stores and returns
//   - [IndexRecord] and [TrackMetadata] : The projection written by [EnrichedTrack.Record]
//   - [IndexMatch], [SearchMatch], [SearchResults] : Ranked similarity answers
//   - [SyncRun] : History of sync calls
package models
