package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/tasks"
)

// recentTracks is the number of enriched tracks shown under the sync progress bar.
const recentTracks = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	SyncView
	SummaryView
	SearchInputView
	SearchResultView
)

// Syncer starts a background library sync (tasks.LibrarySync).
type Syncer interface {
	Stream(ctx context.Context, limit int) *tasks.SyncStream
}

// VibeSearcher is implemented by tasks.Searcher.
type VibeSearcher interface {
	SearchByVibe(ctx context.Context, query string, n int) (*models.SearchResults, error)
}

// LibraryManager is implemented by tasks.Library.
type LibraryManager interface {
	Tracks(ctx context.Context) ([]models.IndexRecord, error)
	Remove(ctx context.Context, ids []string) (int, error)
}

// Options configures the TUI.
type Options struct {
	Limit   int // tracks per sync, 0 for the whole library
	Results int // matches per search
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	syncer  Syncer
	search  VibeSearcher
	library LibraryManager
	opts    Options
	width   int
	height  int

	tracks   list.Model
	matches  list.Model
	query    textinput.Model
	bar      progress.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	status   string
	err      error
	quitting bool

	stream     *tasks.SyncStream
	cancelSync context.CancelFunc
	progress   models.SyncProgress
	recent     []*models.EnrichedTrack
	summary    *tasks.SyncSummary
	results    *models.SearchResults
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, syncer Syncer, search VibeSearcher, library LibraryManager, opts Options) *Model {
	query := textinput.New()
	query.Placeholder = "melancholic songs for a rainy night"
	query.CharLimit = 200

	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tracks.Title = "Vibe Library"
	matches := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &Model{
		ctx:     ctx,
		view:    LibraryView,
		syncer:  syncer,
		search:  search,
		library: library,
		opts:    opts,
		tracks:  tracks,
		matches: matches,
		query:   query,
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the indexed library.
func (m *Model) Init() tea.Cmd {
	return m.loadLibrary()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tracks.SetSize(msg.Width-4, msg.Height-6)
		m.matches.SetSize(msg.Width-4, msg.Height-6)
		m.bar.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		case SearchInputView:
			return m.handleSearchInputKeys(msg)
		case SearchResultView:
			return m.handleSearchResultKeys(msg)
		}

	case libraryLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tracks.Title = fmt.Sprintf("Vibe Library (%d tracks)", len(msg.records))
		return m, m.tracks.SetItems(trackItems(msg.records))

	case removedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("Removed %d track(s)", msg.count)
		return m, m.loadLibrary()

	case syncEventMsg:
		m.applyEvent(tasks.SyncEvent(msg))
		return m, m.waitForEvent()

	case syncCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.stream = nil
		if m.cancelSync != nil {
			m.cancelSync()
			m.cancelSync = nil
		}
		m.view = SummaryView
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = SearchInputView
			return m, nil
		}
		m.err = nil
		m.results = msg.results
		m.matches.Title = fmt.Sprintf("Vibes like %q (%d)", msg.results.Query, msg.results.Total())
		m.view = SearchResultView
		return m, m.matches.SetItems(matchItems(msg.results.Matches))

	case spinner.TickMsg:
		if m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case SyncView:
		return m.renderSync()
	case SummaryView:
		return m.renderSummary()
	case SearchInputView:
		return m.renderSearchInput()
	case SearchResultView:
		return m.renderSearchResults()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tracks.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tracks, cmd = m.tracks.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.sync):
		return m, m.startSync()
	case key.Matches(msg, m.keys.search):
		m.view = SearchInputView
		m.err = nil
		m.query.SetValue("")
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.tracks.SelectedItem().(trackItem); ok {
			return m, m.removeTrack(item.record.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && m.cancelSync != nil {
		m.status = "Stopping sync..."
		m.cancelSync()
	}
	return m, nil
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.back):
		m.view = LibraryView
		m.err = nil
		m.status = ""
		return m, m.loadLibrary()
	}
	return m, nil
}

func (m *Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.query.Blur()
		m.view = LibraryView
		return m, nil
	case tea.KeyEnter:
		q := strings.TrimSpace(m.query.Value())
		if q == "" {
			return m, nil
		}
		m.query.Blur()
		return m, m.runSearch(q)
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchInputView
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.quit):
		m.view = LibraryView
		return m, nil
	}

	var cmd tea.Cmd
	m.matches, cmd = m.matches.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.tracks, cmd = m.tracks.Update(msg)
	case SearchResultView:
		m.matches, cmd = m.matches.Update(msg)
	case SearchInputView:
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *Model) applyEvent(ev tasks.SyncEvent) {
	switch ev.Kind {
	case tasks.EventProgress:
		m.progress = ev.Progress
	case tasks.EventTrack:
		m.recent = append(m.recent, ev.Track)
		if len(m.recent) > recentTracks {
			m.recent = m.recent[len(m.recent)-recentTracks:]
		}
	}
}

func (m *Model) percent() float64 {
	if m.progress.Total == 0 {
		return 0
	}
	return float64(m.progress.Current) / float64(m.progress.Total)
}

func (m *Model) loadLibrary() tea.Cmd {
	return func() tea.Msg {
		recs, err := m.library.Tracks(m.ctx)
		return libraryLoadedMsg{records: recs, err: err}
	}
}

func (m *Model) removeTrack(id string) tea.Cmd {
	return func() tea.Msg {
		n, err := m.library.Remove(m.ctx, []string{id})
		return removedMsg{count: n, err: err}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := m.search.SearchByVibe(m.ctx, query, m.opts.Results)
		return searchResultsMsg{results: results, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSync = cancel
	m.stream = m.syncer.Stream(ctx, m.opts.Limit)
	m.view = SyncView
	m.progress = models.SyncProgress{}
	m.recent = nil
	m.summary = nil
	m.err = nil
	m.status = ""
	return tea.Batch(m.waitForEvent(), m.spinner.Tick)
}

func (m *Model) waitForEvent() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		if stream == nil {
			return syncCompleteMsg{}
		}
		ev, ok := <-stream.Events()
		if !ok {
			summary, err := stream.Wait()
			return syncCompleteMsg{summary: summary, err: err}
		}
		return syncEventMsg(ev)
	}
}

func (m *Model) renderLibrary() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.sync, m.keys.search, m.keys.remove, m.keys.quit})

	var footer string
	switch {
	case m.err != nil:
		footer = styles.error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		footer = styles.success.Render(m.status)
	}
	return fmt.Sprintf("%s\n%s\n%s", m.tracks.View(), footer, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Liked Songs")

	var b strings.Builder
	b.WriteString(title + "\n")
	if m.progress.Total == 0 {
		b.WriteString(fmt.Sprintf("%s Fetching library...\n", m.spinner.View()))
	} else {
		b.WriteString(fmt.Sprintf("%s [%d/%d] %s - %s\n", m.spinner.View(), m.progress.Current, m.progress.Total, m.progress.ArtistName, m.progress.SongTitle))
	}
	b.WriteString(m.bar.ViewAs(m.percent()) + "\n\n")

	for _, t := range m.recent {
		line := fmt.Sprintf("%s - %s", t.SavedTrack.Track.ArtistNames(), t.SavedTrack.Track.Name)
		if t.HasVibe() {
			b.WriteString(styles.success.Render("✓ ") + line + "\n")
			b.WriteString(styles.vibe.Render(t.VibeDescription) + "\n")
		} else {
			b.WriteString(styles.warning.Render("~ ") + line + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + styles.warning.Render(m.status))
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	return b.String()
}

func (m *Model) renderSummary() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render(fmt.Sprintf("Sync stopped: %v", m.err)), helpView)
	}
	if m.summary == nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render("No result available"), helpView)
	}

	s := m.summary
	title := styles.success.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nFetched: %d\nAlready indexed: %d\nWith lyrics: %d\nWith vibes: %d\nFailed: %d",
		s.Total, s.Skipped, s.WithLyrics, s.WithVibes, s.Failed,
	)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderSearchInput() string {
	title := styles.title.Render("Describe a vibe")
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		m.keys.back,
	})

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.error.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.query.View(), errLine, helpView)
}

func (m *Model) renderSearchResults() string {
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "new search")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "library")),
	})
	if m.results != nil && !m.results.HasResults() {
		return fmt.Sprintf("%s\n\n%s", styles.warning.Render(fmt.Sprintf("No tracks match %q. Sync your library first.", m.results.Query)), helpView)
	}
	return fmt.Sprintf("%s\n%s", m.matches.View(), helpView)
}
