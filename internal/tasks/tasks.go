package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
)

// DefaultConcurrency is the batch size used when none is configured.
const DefaultConcurrency = 5

// Index is the vector store mapping track id to vibe document and metadata.
//
// It is the single source of truth for which tracks were already processed.
type Index interface {
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, rec models.IndexRecord) error
	InsertMany(ctx context.Context, recs []models.IndexRecord) error
	Delete(ctx context.Context, ids []string) (int, error)
	List(ctx context.Context) ([]models.IndexRecord, error)
	Count(ctx context.Context) (int, error)
	Query(ctx context.Context, text string, n int) ([]models.IndexMatch, error)
	Clear(ctx context.Context) (int, error)
}

// RunRecorder persists the history of sync calls (repositories.SyncRunRepository).
type RunRecorder interface {
	Start(ctx context.Context, run *models.SyncRun) error
	Finish(ctx context.Context, run *models.SyncRun) error
}

// SyncOpts configures a [LibrarySync].
type SyncOpts struct {
	Concurrency int         // tracks enriched concurrently per batch, default [DefaultConcurrency]
	Recorder    RunRecorder // optional
	Logger      *log.Logger // defaults to stderr
}

// LibrarySync pulls the saved library, enriches new tracks with lyrics and a vibe description
// and writes them to the index.
type LibrarySync struct {
	catalog     services.Catalog
	lyrics      services.LyricsFinder
	analyzer    *Analyzer
	index       Index
	recorder    RunRecorder
	logger      *log.Logger
	concurrency int
}

// NewLibrarySync creates a LibrarySync over the given ports.
func NewLibrarySync(catalog services.Catalog, lyrics services.LyricsFinder, analyzer *Analyzer, index Index, opts SyncOpts) *LibrarySync {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &LibrarySync{
		catalog:     catalog,
		lyrics:      lyrics,
		analyzer:    analyzer,
		index:       index,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
}

// outcome is the result of enriching one track.
type outcome struct {
	track   *models.EnrichedTrack
	skipped bool
	fatal   error
}

// SyncLibrary runs one sync pass over at most limit saved tracks (limit <= 0 syncs the whole library),
// sending events on events as they happen.
//
// Each batch sends one [EventProgress] per track, in library order, before any of its tracks is enriched,
// then the [EventTrack] event of each track as soon as it is done, in completion order. The next batch
// starts only after every track of the current one is done. Already indexed tracks, and tracks whose
// lyrics lookup, analysis or index write failed, produce no EventTrack. Sends block until received or
// ctx is done. events may be nil.
//
// Fetch, artist enrichment and existence check failures abort the run with an error wrapping
// [shared.ErrSyncAborted]. Tracks of the aborted batch that finished first may already have been sent.
// Cancellation of ctx returns ctx.Err().
func (s *LibrarySync) SyncLibrary(ctx context.Context, limit int, events chan<- SyncEvent) (*SyncSummary, error) {
	summary := &SyncSummary{RunID: shared.GenerateID()}
	logger := shared.WithLogger(s.logger, "run", summary.RunID)

	run := s.startRun(ctx, logger, summary.RunID, limit)
	err := s.sync(ctx, logger, limit, events, summary)
	s.finishRun(ctx, logger, run, summary, err)

	if err != nil {
		logger.Error("library sync stopped", "err", err)
		return summary, err
	}
	logger.Info("library sync completed",
		"total", summary.Total,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"with_lyrics", summary.WithLyrics,
		"with_vibes", summary.WithVibes,
	)
	return summary, nil
}

func (s *LibrarySync) sync(ctx context.Context, logger *log.Logger, limit int, events chan<- SyncEvent, summary *SyncSummary) error {
	tracks, err := s.fetch(ctx, limit)
	if err != nil {
		return abort(ctx, "failed to fetch saved tracks", err)
	}
	summary.Total = len(tracks)
	logger.Info("fetched saved tracks", "count", len(tracks), "limit", limit)

	if tracks, err = s.enrichArtists(ctx, tracks); err != nil {
		return abort(ctx, "failed to fetch artists", err)
	}

	total := len(tracks)
	for start := 0; start < total; start += s.concurrency {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := tracks[start:min(start+s.concurrency, total)]
		for i, saved := range batch {
			if err := send(ctx, events, progressEvent(start+i+1, total, saved)); err != nil {
				return err
			}
		}

		if err := s.collect(ctx, s.dispatch(ctx, logger, batch), events, summary); err != nil {
			return err
		}
	}
	return nil
}

// collect consumes every outcome of a batch, sending each EventTrack as soon as its worker is done.
//
// It always drains results so no worker outlives the batch.
func (s *LibrarySync) collect(ctx context.Context, results <-chan outcome, events chan<- SyncEvent, summary *SyncSummary) error {
	var fatal, sendErr error
	for o := range results {
		if fatal != nil || sendErr != nil {
			continue
		}
		switch {
		case o.fatal != nil:
			fatal = o.fatal
		case o.skipped:
			summary.Skipped++
		case o.track == nil:
			summary.Failed++
		default:
			summary.add(o.track)
			sendErr = send(ctx, events, trackEvent(o.track))
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if fatal != nil {
		return abort(ctx, "failed to check index", fatal)
	}
	return sendErr
}

// dispatch enriches every track of batch concurrently. The returned channel yields one outcome per
// track in completion order and is closed once all of them are done.
func (s *LibrarySync) dispatch(ctx context.Context, logger *log.Logger, batch []models.SavedTrack) <-chan outcome {
	results := make(chan outcome, len(batch))

	var wg sync.WaitGroup
	for _, saved := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("track enrichment panicked", "track", saved.Track.ID, "panic", r)
					results <- outcome{}
				}
			}()
			results <- s.process(ctx, logger, saved)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (s *LibrarySync) process(ctx context.Context, logger *log.Logger, saved models.SavedTrack) outcome {
	t := saved.Track
	exists, err := s.index.Exists(ctx, t.ID)
	if err != nil {
		return outcome{fatal: fmt.Errorf("track %s: %w", t.ID, err)}
	}
	if exists {
		logger.Debug("track already indexed", "track", t.ID)
		return outcome{skipped: true}
	}

	lyrics, err := s.lyrics.Search(ctx, t.Name, t.ArtistNames())
	if err != nil {
		logger.Warn("lyrics lookup failed", "track", t.ID, "title", t.Name, "err", err)
		return outcome{}
	}

	var vibe string
	if lyrics != "" {
		vibe, _ = s.analyzer.Analyze(ctx, saved, lyrics)
	}

	enriched := models.NewEnrichedTrack(saved, lyrics, vibe)
	if enriched.HasVibe() {
		if err := s.index.Insert(ctx, enriched.Record()); err != nil {
			logger.Warn("failed to index track", "track", t.ID, "err", err)
			return outcome{}
		}
	}
	return outcome{track: enriched}
}

// fetch pages through the saved library until an empty page or limit tracks were collected.
func (s *LibrarySync) fetch(ctx context.Context, limit int) ([]models.SavedTrack, error) {
	tracks := []models.SavedTrack{}
	for offset := 0; limit <= 0 || len(tracks) < limit; offset += services.SpotifyPageSize {
		page, err := s.catalog.SavedTracks(ctx, services.SpotifyPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		tracks = append(tracks, page...)
	}

	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// enrichArtists replaces every artist credit with the full artist record fetched in one bulk pass.
// Credits missing from the response keep the original artist.
func (s *LibrarySync) enrichArtists(ctx context.Context, tracks []models.SavedTrack) ([]models.SavedTrack, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, saved := range tracks {
		for _, id := range saved.Track.ArtistIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return tracks, nil
	}

	artists, err := s.catalog.Artists(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Artist, len(artists))
	for _, a := range artists {
		byID[a.ID] = a
	}

	enriched := make([]models.SavedTrack, len(tracks))
	for i, saved := range tracks {
		credits := make([]models.Artist, len(saved.Track.Artists))
		for j, a := range saved.Track.Artists {
			if full, ok := byID[a.ID]; ok {
				credits[j] = full
			} else {
				credits[j] = a
			}
		}
		saved.Track.Artists = credits
		enriched[i] = saved
	}
	return enriched, nil
}

func (s *LibrarySync) startRun(ctx context.Context, logger *log.Logger, id string, limit int) *models.SyncRun {
	if s.recorder == nil {
		return nil
	}
	run := &models.SyncRun{ID: id, Limit: limit}
	if err := s.recorder.Start(ctx, run); err != nil {
		logger.Warn("failed to record sync run", "err", err)
		return nil
	}
	return run
}

func (s *LibrarySync) finishRun(ctx context.Context, logger *log.Logger, run *models.SyncRun, summary *SyncSummary, err error) {
	if run == nil {
		return
	}

	run.Status = models.SyncCompleted
	if err != nil {
		run.Status = models.SyncAborted
		run.Error = err.Error()
	}
	run.Total = summary.Total
	run.Skipped = summary.Skipped
	run.Failed = summary.Failed
	run.Enriched = summary.Enriched
	run.WithLyrics = summary.WithLyrics
	run.Indexed = summary.WithVibes

	if err := s.recorder.Finish(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record sync run", "err", err)
	}
}

// abort wraps a fatal error, preferring the context error when ctx ended first.
func abort(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrSyncAborted, msg, err)
}

func send(ctx context.Context, events chan<- SyncEvent, ev SyncEvent) error {
	if events == nil {
		return nil
	}
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncStream is a running [LibrarySync.SyncLibrary] call consumed through a channel.
type SyncStream struct {
	events  chan SyncEvent
	done    chan struct{}
	summary *SyncSummary
	err     error
}

// Stream starts a sync in the background. The events channel is closed when the sync ends.
func (s *LibrarySync) Stream(ctx context.Context, limit int) *SyncStream {
	st := &SyncStream{events: make(chan SyncEvent), done: make(chan struct{})}
	go func() {
		defer close(st.done)
		defer close(st.events)
		st.summary, st.err = s.SyncLibrary(ctx, limit, st.events)
	}()
	return st
}

// Events returns the event channel. It must be drained, or the stream's context cancelled.
func (st *SyncStream) Events() <-chan SyncEvent {
	return st.events
}

// Wait discards any remaining events and returns the result of the sync.
func (st *SyncStream) Wait() (*SyncSummary, error) {
	for range st.events {
	}
	<-st.done
	return st.summary, st.err
}
