// Package tasks implements the library sync pipeline and the operations built on the vibe index.
//
// # Library Sync
//
// [LibrarySync.SyncLibrary] runs one pass over the user's saved tracks:
//
//  1. Fetch saved tracks 50 at a time until the library or the limit is exhausted
//  2. Fetch every distinct artist once and replace each credit with the full record (genres)
//  3. Split the tracks into batches of the configured concurrency
//  4. For each batch, emit one progress event per track, then enrich the batch concurrently:
//     existence check, lyrics lookup, vibe analysis (only with lyrics), index write (only with a vibe)
//  5. Emit the enriched tracks of the batch and move on once the whole batch is done
//
// Tracks already in the index are skipped without touching the lyrics or generation services, which
// makes repeated runs cheap. Failures of a single track are logged and the track dropped. Failing to
// read the catalog or the index aborts the run with [shared.ErrSyncAborted].
//
// # Events
//
// Events are sent on a caller supplied channel with blocking sends, so the pipeline runs at the pace
// of its consumer. [LibrarySync.Stream] wraps the call for consumers that prefer ranging over a channel.
//
// # Search & Library
//
// [Searcher] ranks indexed tracks by similarity to a free-text mood. [Library] lists, counts, removes,
// clears and exports indexed tracks.
package tasks
