// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/paging"
	"github.com/desertthunder/tunex/internal/services"
)

// MockCatalog is a test double for [services.Catalog] serving canned pages.
//
// Page cursors are "page-N". Errors are keyed by call: "user_playlists", "saved_albums",
// "saved_tracks", "search", "audio_features", "playlist:<id>", "album:<id>", "album_tracks:<id>".
type MockCatalog struct {
	UserPlaylistPages [][]models.PlaylistSummary
	PlaylistPages     map[string][][]models.PlaylistEntry
	Albums            map[string]models.Album
	AlbumTrackPages   map[string][][]models.Track
	SavedAlbumPages   [][]models.SavedAlbum
	SavedTrackPages   [][]models.SavedTrack
	SearchResults     map[string]models.Track // keyed by services.SearchQuery
	Features          map[string]*models.AudioFeatures
	Errors            map[string]error

	Calls        []string   // call keys in order, with the cursor for page calls
	FeatureCalls [][]string // ids of each audio features request
	Tokens       []services.Token
}

var _ services.Catalog = (*MockCatalog)(nil)

func (m *MockCatalog) record(token services.Token, key string) error {
	m.Tokens = append(m.Tokens, token)
	m.Calls = append(m.Calls, key)
	base, _, _ := strings.Cut(key, "@")
	if err, ok := m.Errors[base]; ok {
		return err
	}
	return nil
}

func servePage[T any](pages [][]T, cursor string) (paging.Page[T], error) {
	index := 0
	if cursor != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
		if err != nil {
			return paging.Page[T]{}, fmt.Errorf("bad cursor %q", cursor)
		}
		index = n
	}
	if index >= len(pages) {
		if index == 0 {
			return paging.Page[T]{Items: []T{}}, nil
		}
		return paging.Page[T]{}, fmt.Errorf("cursor %q out of range", cursor)
	}

	page := paging.Page[T]{Items: pages[index]}
	if index+1 < len(pages) {
		page.Next = fmt.Sprintf("page-%d", index+1)
	}
	return page, nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, token services.Token, playlistID, cursor string) (paging.Page[models.PlaylistEntry], error) {
	if err := m.record(token, "playlist:"+playlistID+"@"+cursor); err != nil {
		return paging.Page[models.PlaylistEntry]{}, err
	}
	return servePage(m.PlaylistPages[playlistID], cursor)
}

func (m *MockCatalog) AlbumTracks(ctx context.Context, token services.Token, albumID, cursor string) (paging.Page[models.Track], error) {
	if err := m.record(token, "album_tracks:"+albumID+"@"+cursor); err != nil {
		return paging.Page[models.Track]{}, err
	}
	return servePage(m.AlbumTrackPages[albumID], cursor)
}

func (m *MockCatalog) Album(ctx context.Context, token services.Token, albumID string) (*models.Album, error) {
	if err := m.record(token, "album:"+albumID); err != nil {
		return nil, err
	}
	album, ok := m.Albums[albumID]
	if !ok {
		return nil, fmt.Errorf("album %s not found", albumID)
	}
	return &album, nil
}

func (m *MockCatalog) UserPlaylists(ctx context.Context, token services.Token, cursor string) (paging.Page[models.PlaylistSummary], error) {
	if err := m.record(token, "user_playlists@"+cursor); err != nil {
		return paging.Page[models.PlaylistSummary]{}, err
	}
	return servePage(m.UserPlaylistPages, cursor)
}

func (m *MockCatalog) SavedAlbums(ctx context.Context, token services.Token, cursor string) (paging.Page[models.SavedAlbum], error) {
	if err := m.record(token, "saved_albums@"+cursor); err != nil {
		return paging.Page[models.SavedAlbum]{}, err
	}
	return servePage(m.SavedAlbumPages, cursor)
}

func (m *MockCatalog) SavedTracks(ctx context.Context, token services.Token, cursor string) (paging.Page[models.SavedTrack], error) {
	if err := m.record(token, "saved_tracks@"+cursor); err != nil {
		return paging.Page[models.SavedTrack]{}, err
	}
	return servePage(m.SavedTrackPages, cursor)
}

func (m *MockCatalog) SearchTrack(ctx context.Context, token services.Token, title, artist string) (*models.Track, error) {
	if err := m.record(token, "search"); err != nil {
		return nil, err
	}
	track, ok := m.SearchResults[services.SearchQuery(title, artist)]
	if !ok {
		return nil, fmt.Errorf("no match for %s", services.SearchQuery(title, artist))
	}
	return &track, nil
}

func (m *MockCatalog) AudioFeatures(ctx context.Context, token services.Token, ids []string) ([]*models.AudioFeatures, error) {
	if err := m.record(token, "audio_features"); err != nil {
		return nil, err
	}
	m.FeatureCalls = append(m.FeatureCalls, ids)

	out := make([]*models.AudioFeatures, len(ids))
	for i, id := range ids {
		out[i] = m.Features[id]
	}
	return out, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
