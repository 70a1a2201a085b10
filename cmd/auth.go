package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the authorization-code flow in the browser and caches the refresh token.
//
// Starts a local HTTP server, opens the browser at it, and exchanges the returned code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	auth, err := r.authenticator(config)
	if err != nil {
		return err
	}

	store := r.tokenStore(config)
	if _, err := auth.Authorize(ctx, store, r.authorizeFunc(config, auth, cmd.Bool("reauth"))); err != nil {
		return err
	}

	r.logger.Info("authorization successful")
	if _, err := store.Load(); err != nil {
		return r.writePlain("✓ Authorization successful\n⚠ Refresh token was not cached, you will be asked again next time\n")
	}
	return r.writePlain("✓ Authorization successful\n✓ Refresh token saved to %s\n", store.Path())
}

// AuthStatus reports whether a refresh token is cached.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store := r.tokenStore(config)
	_, err = store.Load()
	switch {
	case err == nil:
		return r.writePlain("✓ Authorized\nToken cache: %s\n", store.Path())
	case errors.Is(err, shared.ErrNoRefreshToken):
		return r.writePlain("✗ Not authorized\nRun 'tunex auth login' to authorize\n")
	default:
		return fmt.Errorf("failed to check token cache: %w", err)
	}
}

// AuthLogout removes the cached refresh token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store := r.tokenStore(config)
	if err := store.Clear(); err != nil {
		return err
	}

	r.logger.Info("token cache cleared", "path", store.Path())
	return r.writePlain("✓ Logged out\n")
}
