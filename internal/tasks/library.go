package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/paging"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

// Options configures [NewLibrary] and [NewEngine].
type Options struct {
	MaxPages          int                   // per-collection page ceiling, defaults to paging.DefaultMaxPages
	FeaturesBatchSize int                   // ids per audio-features request, defaults to services.MaxFeatureIDs
	Logger            *log.Logger           // defaults to a discarding logger
	Progress          chan<- ProgressUpdate // optional, sends never block
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = paging.DefaultMaxPages
	}
	if o.FeaturesBatchSize <= 0 || o.FeaturesBatchSize > services.MaxFeatureIDs {
		o.FeaturesBatchSize = services.MaxFeatureIDs
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(io.Discard)
	}
	return o
}

// Library walks the collections behind a playlist, an album, or the current user's library and
// returns their tracks in listing order.
//
// Every walk either completes or returns nil with the first error.
type Library struct {
	catalog  services.Catalog
	maxPages int
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// NewLibrary creates a Library reading from catalog.
func NewLibrary(catalog services.Catalog, opts Options) *Library {
	opts = opts.withDefaults()
	return &Library{
		catalog:  catalog,
		maxPages: opts.MaxPages,
		logger:   shared.WithLogger(opts.Logger, "component", "library"),
		progress: opts.Progress,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// collect paginates fetch to completion under the library's page ceiling.
func collect[T any](ctx context.Context, l *Library, source string, fetch paging.Fetcher[T]) ([]T, error) {
	onPage := func(n, items int, next string) {
		l.logger.Debug("fetched page", "source", source, "page", n, "items", items, "more", next != "")
	}

	items, err := paging.Paginate(ctx, fetch, paging.MaxPages(l.maxPages), paging.OnPage(onPage))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	return items, nil
}

// PlaylistTracks returns the tracks of one playlist in playlist order. Entries whose track was
// removed from the catalog are skipped.
func (l *Library) PlaylistTracks(ctx context.Context, token services.Token, playlistID string) ([]models.Track, error) {
	entries, err := collect(ctx, l, "playlist "+playlistID, func(ctx context.Context, cursor string) (paging.Page[models.PlaylistEntry], error) {
		return l.catalog.PlaylistTracks(ctx, token, playlistID, cursor)
	})
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(entries))
	for i, entry := range entries {
		if entry.Track == nil {
			l.logger.Debug("skipping unavailable playlist item", "playlist", playlistID, "position", i)
			continue
		}
		track := *entry.Track
		track.IsLocal = track.IsLocal || entry.IsLocal
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// AlbumTracks returns the tracks of album in disc order, each carrying the album summary.
func (l *Library) AlbumTracks(ctx context.Context, token services.Token, album models.Album) ([]models.Track, error) {
	tracks, err := collect(ctx, l, "album "+album.ID, func(ctx context.Context, cursor string) (paging.Page[models.Track], error) {
		return l.catalog.AlbumTracks(ctx, token, album.ID, cursor)
	})
	if err != nil {
		return nil, err
	}

	summary := album.Summary()
	for i := range tracks {
		tracks[i].Album = summary
	}
	return tracks, nil
}

// Playlists lists the current user's playlists and returns the tracks of each, in listing order
// then playlist order.
func (l *Library) Playlists(ctx context.Context, token services.Token) ([]models.Track, error) {
	sendProgress(l.progress, listPlaylistsUpdate())
	playlists, err := collect(ctx, l, "user playlists", func(ctx context.Context, cursor string) (paging.Page[models.PlaylistSummary], error) {
		return l.catalog.UserPlaylists(ctx, token, cursor)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("listed playlists", "count", len(playlists))

	var tracks []models.Track
	for i, playlist := range playlists {
		sendProgress(l.progress, playlistTracksUpdate(i+1, len(playlists), playlist.Name))

		items, err := l.PlaylistTracks(ctx, token, playlist.ID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, items...)
	}

	return nonNil(tracks), nil
}

// Albums lists the current user's saved albums and returns the tracks of each, in listing order
// then album order.
func (l *Library) Albums(ctx context.Context, token services.Token) ([]models.Track, error) {
	sendProgress(l.progress, listAlbumsUpdate())
	saved, err := collect(ctx, l, "saved albums", func(ctx context.Context, cursor string) (paging.Page[models.SavedAlbum], error) {
		return l.catalog.SavedAlbums(ctx, token, cursor)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("listed saved albums", "count", len(saved))

	var tracks []models.Track
	for i, entry := range saved {
		sendProgress(l.progress, albumTracksUpdate(i+1, len(saved), entry.Album.Name))

		items, err := l.AlbumTracks(ctx, token, entry.Album)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, items...)
	}

	return nonNil(tracks), nil
}

// Liked returns the current user's liked songs in library order.
func (l *Library) Liked(ctx context.Context, token services.Token) ([]models.Track, error) {
	sendProgress(l.progress, likedUpdate())
	saved, err := collect(ctx, l, "liked songs", func(ctx context.Context, cursor string) (paging.Page[models.SavedTrack], error) {
		return l.catalog.SavedTracks(ctx, token, cursor)
	})
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, len(saved))
	for i, entry := range saved {
		tracks[i] = entry.Track
	}
	return tracks, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
