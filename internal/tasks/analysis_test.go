package tasks

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	tu "github.com/desertthunder/vibesync/internal/testing"
)

func TestBuildPrompt(t *testing.T) {
	saved := tu.NewSavedTrack("t1", "Alison", "a1", "a2")
	saved.Track.Artists[0] = models.Artist{ID: "a1", Name: "Slowdive", Genres: []string{"shoegaze", "dream pop"}}
	saved.Track.Artists[1].Genres = []string{"ambient"}
	saved.Track.Popularity = 61

	prompt := BuildPrompt(saved, "lovely dreams")

	want := []string{
		"Act as an expert music critic. Analyze this song:\n",
		"    - **Title:** Alison\n",
		"    - **Artist:** Slowdive, Artist a2\n",
		"    - **Album:** Album Alison\n",
		"    - **Musical Genres:** shoegaze, dream pop, ambient\n",
		"    - **Popularity:** 61/100\n",
		"    - **Lyrics Snippet:** \"lovely dreams\"\n",
		"    1. Detect the core theme of the lyrics (love, protest, grief, party, nostalgia, etc.)\n",
		"    4. Generate a synthetic **Vibe Description** for semantic search purposes\n",
		"    **Output:** Only the descriptive sentence (max 2-3 sentences).",
		"    Vibe Description:\n",
	}
	for _, w := range want {
		if !strings.Contains(prompt, w) {
			t.Errorf("expected prompt to contain %q", w)
		}
	}
	if !strings.HasPrefix(prompt, "Act as an expert music critic.") {
		t.Error("expected prompt to start with the role")
	}
	if BuildPrompt(saved, "lovely dreams") != prompt {
		t.Error("expected a deterministic prompt")
	}
}

func TestAnalyzer(t *testing.T) {
	ctx := context.Background()
	saved := tu.NewSavedTrack("t1", "Song", "a1")
	logger := shared.NewLogger(io.Discard)

	tests := []struct {
		name      string
		generator *tu.MockGenerator
		wantVibe  string
		wantOK    bool
	}{
		{"trims the reply", &tu.MockGenerator{Response: "\n  A hazy summer love song.  \n"}, "A hazy summer love song.", true},
		{"empty reply", &tu.MockGenerator{Response: "   "}, "", false},
		{"generator error", &tu.MockGenerator{Err: shared.ErrGenerationFailed}, "", false},
		{"generator panic", &tu.MockGenerator{Panic: true}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vibe, ok := NewAnalyzer(tt.generator, logger).Analyze(ctx, saved, "some lyrics")
			if vibe != tt.wantVibe || ok != tt.wantOK {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.wantVibe, tt.wantOK, vibe, ok)
			}
			if tt.generator.PromptCount() != 1 {
				t.Errorf("expected exactly one generation call, got %d", tt.generator.PromptCount())
			}
		})
	}
}
