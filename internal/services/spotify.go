// Spotify Web API implementation of [Catalog]
//
// Response shapes follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/paging"
	"github.com/desertthunder/tunex/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// MaxFeatureIDs is the most ids /audio-features accepts per request.
	MaxFeatureIDs = 100

	playlistPageLimit = 100
	maxPageLimit      = 50
)

// pageResponse is the paging object wrapping every collection endpoint.
type pageResponse[T any] struct {
	Href   string  `json:"href"`
	Items  []T     `json:"items"`
	Limit  int     `json:"limit"`
	Next   *string `json:"next"`
	Offset int     `json:"offset"`
	Total  int     `json:"total"`
}

func (p pageResponse[T]) page() paging.Page[T] {
	page := paging.Page[T]{Items: p.Items}
	if p.Next != nil {
		page.Next = *p.Next
	}
	return page
}

type searchResponse struct {
	Tracks pageResponse[models.Track] `json:"tracks"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*models.AudioFeatures `json:"audio_features"`
}

// SpotifyOptions configures [NewSpotify]. Zero values fall back to production defaults.
type SpotifyOptions struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	PageLimit         int
	Logger            *log.Logger
}

// Spotify issues authenticated GET requests against the Spotify Web API.
//
// Requests are paced by a client-side limiter. Failures are returned on the first attempt.
type Spotify struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	pageLimit  int
	logger     *log.Logger
}

// NewSpotify creates a Spotify transport from opts.
func NewSpotify(opts SpotifyOptions) (*Spotify, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = spotifyBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: api base URL %q", shared.ErrInvalidConfig, raw)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	pageLimit := opts.PageLimit
	if pageLimit <= 0 || pageLimit > maxPageLimit {
		pageLimit = maxPageLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &Spotify{
		baseURL:    base,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		pageLimit:  pageLimit,
		logger:     shared.WithLogger(logger, "service", "spotify"),
	}, nil
}

func (s *Spotify) Name() string {
	return "Spotify"
}

// endpoint builds an absolute URL for path under the API base.
func (s *Spotify) endpoint(path string, query url.Values) string {
	u := *s.baseURL
	u.Path = s.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

// pageURL returns cursor when set, otherwise the first-page URL for path.
//
// Cursors must point at the API host so the bearer token is never sent elsewhere.
func (s *Spotify) pageURL(cursor, path string, limit int) (string, error) {
	if cursor == "" {
		return s.endpoint(path, url.Values{"limit": {strconv.Itoa(limit)}}), nil
	}

	u, err := url.Parse(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: malformed cursor %q: %v", shared.ErrAPIRequest, cursor, err)
	}
	if u.Scheme != s.baseURL.Scheme || u.Host != s.baseURL.Host {
		return "", fmt.Errorf("%w: cursor %q is outside %s", shared.ErrAPIRequest, cursor, s.baseURL.Host)
	}
	return cursor, nil
}

// get performs one authenticated GET and decodes the JSON body into result.
func (s *Spotify) get(ctx context.Context, token Token, rawURL string, result any) error {
	if !token.Valid() {
		return fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	s.logger.Debug("GET", "url", rawURL, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.NewStatusError(resp.StatusCode, rawURL, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: failed to decode response from %s: %v", shared.ErrAPIRequest, rawURL, err)
	}
	return nil
}

func fetchPage[T any](ctx context.Context, s *Spotify, token Token, cursor, path string, limit int) (paging.Page[T], error) {
	u, err := s.pageURL(cursor, path, limit)
	if err != nil {
		return paging.Page[T]{}, err
	}

	var response pageResponse[T]
	if err := s.get(ctx, token, u, &response); err != nil {
		return paging.Page[T]{}, err
	}
	return response.page(), nil
}

// PlaylistTracks fetches one page of playlist items, up to 100 per page.
func (s *Spotify) PlaylistTracks(ctx context.Context, token Token, playlistID, cursor string) (paging.Page[models.PlaylistEntry], error) {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	return fetchPage[models.PlaylistEntry](ctx, s, token, cursor, path, playlistPageLimit)
}

// AlbumTracks fetches one page of an album's tracks. Items carry no album object.
func (s *Spotify) AlbumTracks(ctx context.Context, token Token, albumID, cursor string) (paging.Page[models.Track], error) {
	path := "/albums/" + url.PathEscape(albumID) + "/tracks"
	return fetchPage[models.Track](ctx, s, token, cursor, path, s.pageLimit)
}

// Album fetches an album by ID.
func (s *Spotify) Album(ctx context.Context, token Token, albumID string) (*models.Album, error) {
	var album models.Album
	if err := s.get(ctx, token, s.endpoint("/albums/"+url.PathEscape(albumID), nil), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// UserPlaylists fetches one page of the current user's playlists.
func (s *Spotify) UserPlaylists(ctx context.Context, token Token, cursor string) (paging.Page[models.PlaylistSummary], error) {
	return fetchPage[models.PlaylistSummary](ctx, s, token, cursor, "/me/playlists", s.pageLimit)
}

// SavedAlbums fetches one page of the current user's saved albums.
func (s *Spotify) SavedAlbums(ctx context.Context, token Token, cursor string) (paging.Page[models.SavedAlbum], error) {
	return fetchPage[models.SavedAlbum](ctx, s, token, cursor, "/me/albums", s.pageLimit)
}

// SavedTracks fetches one page of the current user's liked songs.
func (s *Spotify) SavedTracks(ctx context.Context, token Token, cursor string) (paging.Page[models.SavedTrack], error) {
	return fetchPage[models.SavedTrack](ctx, s, token, cursor, "/me/tracks", s.pageLimit)
}

// SearchQuery builds the field-filtered query for a title and optional artist.
func SearchQuery(title, artist string) string {
	q := "track:" + strings.TrimSpace(title)
	if artist = strings.TrimSpace(artist); artist != "" {
		q += " artist:" + artist
	}
	return q
}

// SearchTrack returns the first track matching title and artist.
func (s *Spotify) SearchTrack(ctx context.Context, token Token, title, artist string) (*models.Track, error) {
	query := url.Values{
		"q":     {SearchQuery(title, artist)},
		"type":  {"track"},
		"limit": {"1"},
	}

	var response searchResponse
	if err := s.get(ctx, token, s.endpoint("/search", query), &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query.Get("q"))
	}
	return &response.Tracks.Items[0], nil
}

// AudioFeatures fetches features for ids in a single request.
func (s *Spotify) AudioFeatures(ctx context.Context, token Token, ids []string) ([]*models.AudioFeatures, error) {
	if len(ids) == 0 {
		return []*models.AudioFeatures{}, nil
	}
	if len(ids) > MaxFeatureIDs {
		return nil, fmt.Errorf("%w: at most %d ids per audio features request, got %d",
			shared.ErrInvalidArgument, MaxFeatureIDs, len(ids))
	}

	var response audioFeaturesResponse
	u := s.endpoint("/audio-features", url.Values{"ids": {strings.Join(ids, ",")}})
	if err := s.get(ctx, token, u, &response); err != nil {
		return nil, err
	}
	return response.AudioFeatures, nil
}
