// package services defines the Spotify Web API transport and authentication
package services

import (
	"context"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/paging"
)

// Token is a bearer credential for the Spotify Web API.
//
// It is a plain value handed to every request-issuing call. Nothing in this package retains it.
type Token string

// Valid reports whether the token is non-empty.
func (t Token) Valid() bool {
	return t != ""
}

func (t Token) String() string {
	if len(t) <= 8 {
		return "****"
	}
	return string(t[:4]) + "****"
}

// Catalog defines the Spotify reads tunex needs. Every call takes the [Token] to present.
//
// Page methods take the cursor from the previous page's Next, or "" for the first page.
type Catalog interface {
	// PlaylistTracks fetches one page of a playlist's items.
	PlaylistTracks(ctx context.Context, token Token, playlistID, cursor string) (paging.Page[models.PlaylistEntry], error)

	// AlbumTracks fetches one page of an album's (simplified) tracks.
	AlbumTracks(ctx context.Context, token Token, albumID, cursor string) (paging.Page[models.Track], error)

	// Album fetches an album summary.
	Album(ctx context.Context, token Token, albumID string) (*models.Album, error)

	// UserPlaylists fetches one page of the current user's playlists.
	UserPlaylists(ctx context.Context, token Token, cursor string) (paging.Page[models.PlaylistSummary], error)

	// SavedAlbums fetches one page of the current user's saved albums.
	SavedAlbums(ctx context.Context, token Token, cursor string) (paging.Page[models.SavedAlbum], error)

	// SavedTracks fetches one page of the current user's liked songs.
	SavedTracks(ctx context.Context, token Token, cursor string) (paging.Page[models.SavedTrack], error)

	// SearchTrack returns the first track matching title and artist.
	// Returns [shared.ErrTrackNotFound] when nothing matches.
	SearchTrack(ctx context.Context, token Token, title, artist string) (*models.Track, error)

	// AudioFeatures fetches features for up to [MaxFeatureIDs] ids, one entry per id in order.
	// Unknown ids yield nil entries.
	AudioFeatures(ctx context.Context, token Token, ids []string) ([]*models.AudioFeatures, error)

	// Name returns the name of the service
	Name() string
}
