package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/desertthunder/tunex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlist prints every track of the playlist given as argument.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	r.logger.Infof("fetching spotify playlist %v", playlistID)
	return r.run(ctx, cmd, appAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.PlaylistTracks(ctx, token, playlistID, withFeatures)
	})
}

// Album prints every track of the album given as argument.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.StringArg("id")
	if albumID == "" {
		return fmt.Errorf("%w: album id is required", shared.ErrMissingArgument)
	}

	r.logger.Infof("fetching spotify album %v", albumID)
	return r.run(ctx, cmd, appAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.AlbumTracks(ctx, token, albumID, withFeatures)
	})
}

// Search prints the first track matching --title and --artist.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	artist := cmd.String("artist")
	if title == "" {
		return fmt.Errorf("%w: --title is required", shared.ErrMissingArgument)
	}

	return r.run(ctx, cmd, appAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.Search(ctx, token, title, artist, withFeatures)
	})
}

// LibraryPlaylists prints the tracks of every playlist of the authorized user.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, cmd, userAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.LibraryPlaylists(ctx, token, withFeatures)
	})
}

// LibraryAlbums prints the tracks of every album the authorized user saved.
func (r *Runner) LibraryAlbums(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, cmd, userAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.LibraryAlbums(ctx, token, withFeatures)
	})
}

// LikedSongs prints the authorized user's liked songs.
func (r *Runner) LikedSongs(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, cmd, userAccess, func(ctx context.Context, e *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error) {
		return e.LikedSongs(ctx, token, withFeatures)
	})
}
