package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
)

const promptTemplate = `Act as an expert music critic. Analyze this song:
    - **Title:** %s
    - **Artist:** %s
    - **Album:** %s
    - **Musical Genres:** %s
    - **Popularity:** %d/100
    - **Lyrics Snippet:** "%s"

    **Task:**
    1. Detect the core theme of the lyrics (love, protest, grief, party, nostalgia, etc.)
    2. Analyze the emotional tone and mood of the lyrics
    3. Consider how the genre and artist style might contrast or align with the lyrical content
    4. Generate a synthetic **Vibe Description** for semantic search purposes

    **Output:** Only the descriptive sentence (max 2-3 sentences). Focus on the emotional essence and searchable characteristics.

    **Example:** "An indie folk track with melancholic lyrics about lost love and regret, delivered through poetic storytelling that evokes deep nostalgia and bittersweet reflection."

    Vibe Description:
`

// BuildPrompt renders the vibe description prompt for a track and its lyrics.
func BuildPrompt(saved models.SavedTrack, lyrics string) string {
	t := saved.Track
	return fmt.Sprintf(promptTemplate,
		t.Name,
		t.ArtistNames(),
		t.Album.Name,
		strings.Join(t.Genres(), ", "),
		t.Popularity,
		lyrics,
	)
}

// Analyzer turns a track and its lyrics into a vibe description.
type Analyzer struct {
	generator services.Generator
	logger    *log.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger logs to stderr.
func NewAnalyzer(generator services.Generator, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Analyzer{generator: generator, logger: logger}
}

// Analyze asks the generator for a vibe description.
//
// Failures of any kind, including a panicking generator, yield ("", false).
func (a *Analyzer) Analyze(ctx context.Context, saved models.SavedTrack, lyrics string) (vibe string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("track analysis panicked", "track", saved.Track.ID, "panic", r)
			vibe, ok = "", false
		}
	}()

	reply, err := a.generator.Generate(ctx, BuildPrompt(saved, lyrics))
	if err != nil {
		a.logger.Warn("track analysis failed", "track", saved.Track.ID, "err", err)
		return "", false
	}

	vibe = strings.TrimSpace(reply)
	if vibe == "" {
		return "", false
	}
	return vibe, true
}
