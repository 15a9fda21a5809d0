package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vibesync/internal/server"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or .env", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx, r.spotify, "authorization")
	if err != nil {
		return err
	}
	if err := r.saveTokens(token); err != nil {
		return err
	}
	if err := r.spotify.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: vibesync sync\n")
	return nil
}

// SpotifyLogout clears the cached Spotify tokens. Client credentials are kept.
func (r *Runner) SpotifyLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.saveTokens(nil); err != nil {
		return err
	}
	r.writePlainln("✓ Disconnected from Spotify")
	return nil
}

// Whoami prints the profile of the authenticated Spotify user.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	user, err := r.spotify.CurrentUser(ctx)
	if err != nil {
		reauthed, authErr := r.handleSpotifyAuthError(ctx, err)
		if !reauthed {
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}
		if authErr != nil {
			return authErr
		}
		if user, err = r.spotify.CurrentUser(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Logged in as %s (%s)\n", user.DisplayName, user.ID)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	return nil
}

type tokenResult struct {
	token *oauth2.Token
	err   error
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RecoverPanic(r.logger))
	router.Handler(oauthHandler)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	serverCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		serverErrors <- server.Serve(serverCtx, serverAddr, router, r.logger)
	}()

	tokens := make(chan tokenResult, 1)
	go func() {
		token, err := oauthHandler.Wait(ctx)
		tokens <- tokenResult{token: token, err: err}
	}()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	var result tokenResult
	select {
	case result = <-tokens:
	case err := <-serverErrors:
		if err != nil {
			return nil, fmt.Errorf("server error: %w", err)
		}
		result = <-tokens
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.err != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.err)
	}
	if result.token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.token, nil
}

// handleSpotifyAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) && !errors.Is(err, shared.ErrNotAuthenticated) {
		return false, err
	}

	r.writePlainln("⚠ Spotify session expired or missing. Starting reauthorization...\n")

	token, reauthErr := r.doOAuth(ctx, r.spotify, "reauthorization")
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}
	if saveErr := r.saveTokens(token); saveErr != nil {
		return true, saveErr
	}
	if authErr := r.spotify.OAuthenticate(ctx, token); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", authErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")
	return true, nil
}
