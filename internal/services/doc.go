// Package services defines the ports the library sync pipeline depends on and implements them
// against real providers.
//
// # Ports
//
//   - [Catalog] : saved tracks, artist genres and the current user
//   - [LyricsFinder] : lyrics lookup by title and artist
//   - [Generator] : text completion for the vibe description prompt
//   - [Embedder] : text to vector conversion for the vector index
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
// Every refreshed token is reported through [SpotifyService.SetTokenRefreshCallback] so the CLI can persist it.
//
// # Genius Implementation
//
// [GeniusService] normalizes titles with [TitleCleaner], searches the Genius API and scrapes the
// lyrics containers of the first song whose primary artist matches.
// Lookups are rate limited and retried; a failed lookup yields no lyrics rather than an error.
//
// # LLM and Embeddings
//
// [OpenAIService] talks to any OpenAI-compatible /chat/completions endpoint.
// [OllamaEmbedder] calls the Ollama /api/embed endpoint.
// Both are built on the JSON client [APIService].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called, or the provider rejected credentials
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrTransient] : retryable status (408, 429, 5xx)
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrGenerationFailed] : completion failed after retries
//   - [shared.ErrEmbeddingFailed] : embedding request failed
package services
