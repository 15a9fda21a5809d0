// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is organised around the vibe library:
//  1. [LibraryView] : Browse and filter indexed tracks, remove entries
//  2. [SyncView] : Follow a running library sync with a progress bar and the latest vibe descriptions
//  3. [SummaryView] : Counters of the finished sync
//  4. [SearchInputView] : Describe a mood
//  5. [SearchResultView] : Ranked matches with similarity scores
//
// Sync events are read from a [tasks.SyncStream] one message at a time, so the pipeline runs at the pace
// of the renderer. ctrl+c during a sync cancels it and shows what was done so far.
package ui
