// Package server provides HTTP routing, middleware and the handlers used by the CLI.
//
// # Router
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] dispatches with
// an [http.ServeMux] and composes [Middleware] with justinas/alice; the first middleware added is the
// outermost.
//
// # OAuth Callback
//
// [OAuthHandler] serves the redirect URI of the Spotify authorization code flow. It validates the state
// parameter, exchanges the code for a token and reports the result on a channel. Only one callback is
// accepted. The `vibesync auth` command runs it on a temporary local server.
//
// # Search API
//
// [API] exposes the vibe index over JSON for `vibesync serve`:
//
//	GET /health
//	GET /search?q=<mood>&n=<count>
//	GET /library
//	GET /library/count
package server
