package ui

import (
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/tasks"
)

// libraryLoadedMsg carries the indexed tracks shown in [LibraryView].
type libraryLoadedMsg struct {
	records []models.IndexRecord
	err     error
}

// removedMsg reports a finished removal.
type removedMsg struct {
	count int
	err   error
}

// syncEventMsg carries one event of the running sync.
type syncEventMsg tasks.SyncEvent

// syncCompleteMsg is sent once the sync stream is closed.
type syncCompleteMsg struct {
	summary *tasks.SyncSummary
	err     error
}

// searchResultsMsg carries the answer to a vibe query.
type searchResultsMsg struct {
	results *models.SearchResults
	err     error
}
