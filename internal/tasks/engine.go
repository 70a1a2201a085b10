package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/paging"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

// Result is the complete outcome of one engine operation.
type Result struct {
	Source   string                     // what was fetched, e.g. "playlist:37i9dQZF1DXcBWIGoYBM5M"
	Features bool                       // whether audio features were requested
	Single   bool                       // a single-track lookup rather than a collection
	Records  []models.TrackWithFeatures // in source order
}

// Engine runs each tunex read operation: fetch a track collection and optionally enrich it with
// audio features.
type Engine struct {
	catalog   services.Catalog
	library   *Library
	batchSize int
	logger    *log.Logger
	progress  chan<- ProgressUpdate
}

// NewEngine creates an Engine reading from catalog.
func NewEngine(catalog services.Catalog, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		catalog:   catalog,
		library:   NewLibrary(catalog, opts),
		batchSize: opts.FeaturesBatchSize,
		logger:    shared.WithLogger(opts.Logger, "component", "engine"),
		progress:  opts.Progress,
	}
}

// Library returns the engine's source aggregator.
func (e *Engine) Library() *Library {
	return e.library
}

// PlaylistTracks fetches every track of a playlist.
func (e *Engine) PlaylistTracks(ctx context.Context, token services.Token, playlistID string, withFeatures bool) (Result, error) {
	sendProgress(e.progress, playlistTracksUpdate(1, 1, playlistID))
	tracks, err := e.library.PlaylistTracks(ctx, token, playlistID)
	if err != nil {
		return Result{}, err
	}
	return e.finish(ctx, token, "playlist:"+playlistID, tracks, withFeatures)
}

// AlbumTracks fetches an album summary and every track of the album.
func (e *Engine) AlbumTracks(ctx context.Context, token services.Token, albumID string, withFeatures bool) (Result, error) {
	album, err := e.catalog.Album(ctx, token, albumID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch album %s: %w", albumID, err)
	}

	sendProgress(e.progress, albumTracksUpdate(1, 1, album.Name))
	tracks, err := e.library.AlbumTracks(ctx, token, *album)
	if err != nil {
		return Result{}, err
	}
	return e.finish(ctx, token, "album:"+albumID, tracks, withFeatures)
}

// Search returns the first track matching title and artist, with its features when requested.
//
// Missing features for the match are [shared.ErrFeaturesNotFound].
func (e *Engine) Search(ctx context.Context, token services.Token, title, artist string, withFeatures bool) (Result, error) {
	query := services.SearchQuery(title, artist)
	sendProgress(e.progress, searchUpdate(query))

	track, err := e.catalog.SearchTrack(ctx, token, title, artist)
	if err != nil {
		return Result{}, err
	}

	result := Result{Source: "search:" + query, Features: withFeatures, Single: true}
	if !withFeatures {
		result.Records = models.Plain([]models.Track{*track})
		sendProgress(e.progress, doneUpdate(1))
		return result, nil
	}

	var features []*models.AudioFeatures
	if track.ID != "" {
		sendProgress(e.progress, featuresUpdate(1))
		features, err = e.catalog.AudioFeatures(ctx, token, []string{track.ID})
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch audio features: %w", err)
		}
	}

	record, err := models.SingleWithFeatures(*track, features)
	if err != nil {
		return Result{}, err
	}

	result.Records = []models.TrackWithFeatures{record}
	sendProgress(e.progress, doneUpdate(1))
	return result, nil
}

// LibraryPlaylists fetches the tracks of every playlist of the current user.
func (e *Engine) LibraryPlaylists(ctx context.Context, token services.Token, withFeatures bool) (Result, error) {
	tracks, err := e.library.Playlists(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return e.finish(ctx, token, "library:playlists", tracks, withFeatures)
}

// LibraryAlbums fetches the tracks of every album the current user saved.
func (e *Engine) LibraryAlbums(ctx context.Context, token services.Token, withFeatures bool) (Result, error) {
	tracks, err := e.library.Albums(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return e.finish(ctx, token, "library:albums", tracks, withFeatures)
}

// LikedSongs fetches the current user's liked songs.
func (e *Engine) LikedSongs(ctx context.Context, token services.Token, withFeatures bool) (Result, error) {
	tracks, err := e.library.Liked(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return e.finish(ctx, token, "library:liked", tracks, withFeatures)
}

func (e *Engine) finish(ctx context.Context, token services.Token, source string, tracks []models.Track, withFeatures bool) (Result, error) {
	result := Result{Source: source, Features: withFeatures}

	if withFeatures {
		records, err := e.enrich(ctx, token, tracks)
		if err != nil {
			return Result{}, err
		}
		result.Records = records
	} else {
		result.Records = models.Plain(tracks)
	}

	e.logger.Info("collected tracks", "source", source, "count", len(result.Records), "features", withFeatures)
	sendProgress(e.progress, doneUpdate(len(result.Records)))
	return result, nil
}

// enrich fetches features for tracks in batches and joins them by position.
//
// Tracks without an id (local files) have no features to fetch and are left out.
func (e *Engine) enrich(ctx context.Context, token services.Token, tracks []models.Track) ([]models.TrackWithFeatures, error) {
	withIDs := make([]models.Track, 0, len(tracks))
	for i, track := range tracks {
		if track.ID == "" {
			e.logger.Warn("dropping track without id from enriched output", "position", i, "name", track.Name)
			continue
		}
		withIDs = append(withIDs, track)
	}

	sendProgress(e.progress, featuresUpdate(len(withIDs)))
	features, err := paging.Batch(ctx, models.TrackIDs(withIDs), e.batchSize,
		func(ctx context.Context, ids []string) ([]*models.AudioFeatures, error) {
			return e.catalog.AudioFeatures(ctx, token, ids)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio features: %w", err)
	}

	return models.MergeFeatures(withIDs, features)
}
