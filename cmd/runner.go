package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/repositories"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/desertthunder/vibesync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.OAuthService
	lyrics     services.LyricsFinder
	generator  services.Generator
	embedder   services.Embedder
	store      *repositories.Store
	ownsStore  bool
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.OAuthService
	Lyrics     services.LyricsFinder
	Generator  services.Generator
	Embedder   services.Embedder
	Store      *repositories.Store // opened from Config.Database on first use when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		lyrics:     opts.Lyrics,
		generator:  opts.Generator,
		embedder:   opts.Embedder,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, whoamiCommand, syncCommand, searchCommand,
		libraryCommand, historyCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database opened by [Runner.openStore].
func (r *Runner) Close() error {
	if r.store == nil || !r.ownsStore {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not initialized", shared.ErrServiceUnavailable)
	}

	store, err := repositories.Open(r.config.Database, r.embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.store = store
	r.ownsStore = true
	return store, nil
}

func (r *Runner) library() (*tasks.Library, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	return tasks.NewLibrary(store.Vectors), nil
}

func (r *Runner) searcher() (*tasks.Searcher, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	return tasks.NewSearcher(store.Vectors), nil
}

// librarySync wires the Spotify catalog, lyrics, LLM and index into a [tasks.LibrarySync].
func (r *Runner) librarySync(concurrency int) (*tasks.LibrarySync, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}
	if r.lyrics == nil || r.generator == nil {
		return nil, fmt.Errorf("%w: lyrics and llm services must be configured", shared.ErrServiceUnavailable)
	}

	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	if concurrency < 1 {
		concurrency = r.config.Sync.Concurrency
	}
	analyzer := tasks.NewAnalyzer(r.generator, r.logger)
	return tasks.NewLibrarySync(r.spotify, r.lyrics, analyzer, store.Vectors, tasks.SyncOpts{
		Concurrency: concurrency,
		Recorder:    store.Runs,
		Logger:      r.logger,
	}), nil
}

// saveTokens stores token in the configuration, or clears the cached one when token is nil, and writes
// the config file when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if token == nil {
		r.config.Credentials.Spotify.ClearToken()
	} else if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("spotify tokens saved", "path", r.configPath, "cleared", token == nil)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
