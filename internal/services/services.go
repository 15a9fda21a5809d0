package services

import (
	"context"

	"github.com/desertthunder/vibesync/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is a music library provider holding the user's saved tracks.
type Catalog interface {
	// SavedTracks returns one page of the user's saved tracks, most recently added first.
	// An empty page means the library is exhausted.
	SavedTracks(ctx context.Context, limit, offset int) ([]models.SavedTrack, error)

	// Artists returns full artist records (with genres) for the given IDs.
	// Unknown IDs are omitted from the result.
	Artists(ctx context.Context, ids []string) ([]models.Artist, error)

	// CurrentUser returns the profile of the authenticated user.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// LyricsFinder looks up song lyrics by title and artist.
//
// A song that cannot be found returns an empty string and a nil error.
type LyricsFinder interface {
	Search(ctx context.Context, title, artist string) (string, error)
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder converts texts into fixed-length vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OAuthService is a [Catalog] that authorizes through the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// Authenticate accepts either an "access_token" or an "auth_code" credential.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// OAuthenticate restores a session from a previously stored token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// GetAuthURL returns the provider login URL carrying state.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the config used to exchange callback codes.
	GetOAuthConfig() *oauth2.Config

	Name() string
}
