package tasks

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	tu "github.com/desertthunder/tunex/internal/testing"
)

const token = services.Token("test-token")

func tr(id string) models.Track {
	return models.Track{ID: id, Name: "Song " + id, Type: "track", URI: "spotify:track:" + id}
}

func entry(id string) models.PlaylistEntry {
	t := tr(id)
	return models.PlaylistEntry{Track: &t}
}

func feat(id string) *models.AudioFeatures {
	return &models.AudioFeatures{ID: id, Tempo: 100, Type: "audio_features"}
}

func ids(records []models.TrackWithFeatures) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func trackIDs(tracks []models.Track) []string {
	return models.TrackIDs(tracks)
}

// libraryCatalog has two playlists with two and three tracks, spread over several pages.
func libraryCatalog() *tu.MockCatalog {
	return &tu.MockCatalog{
		UserPlaylistPages: [][]models.PlaylistSummary{
			{{ID: "P1", Name: "First"}},
			{{ID: "P2", Name: "Second"}},
		},
		PlaylistPages: map[string][][]models.PlaylistEntry{
			"P1": {{entry("P1.t1"), entry("P1.t2")}},
			"P2": {{entry("P2.t1")}, {entry("P2.t2"), entry("P2.t3")}},
		},
		Features: map[string]*models.AudioFeatures{},
	}
}

func TestLibrary(t *testing.T) {
	t.Run("Playlists", func(t *testing.T) {
		t.Run("flattens in listing then playlist order", func(t *testing.T) {
			catalog := libraryCatalog()
			lib := NewLibrary(catalog, Options{})

			got, err := lib.Playlists(context.Background(), token)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []string{"P1.t1", "P1.t2", "P2.t1", "P2.t2", "P2.t3"}
			if !reflect.DeepEqual(trackIDs(got), want) {
				t.Errorf("expected %v, got %v", want, trackIDs(got))
			}

			wantCalls := []string{
				"user_playlists@", "user_playlists@page-1",
				"playlist:P1@",
				"playlist:P2@", "playlist:P2@page-1",
			}
			if !reflect.DeepEqual(catalog.Calls, wantCalls) {
				t.Errorf("expected calls %v, got %v", wantCalls, catalog.Calls)
			}
			for _, tok := range catalog.Tokens {
				if tok != token {
					t.Errorf("expected every call to carry the token, got %q", string(tok))
				}
			}
		})

		t.Run("inner failure aborts with no partial result", func(t *testing.T) {
			catalog := libraryCatalog()
			catalog.Errors = map[string]error{
				"playlist:P2": shared.NewStatusError(502, "https://api.spotify.com/v1/playlists/P2/tracks", nil),
			}
			lib := NewLibrary(catalog, Options{})

			got, err := lib.Playlists(context.Background(), token)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if got != nil {
				t.Errorf("expected nil tracks, got %v", got)
			}
		})

		t.Run("outer failure aborts", func(t *testing.T) {
			catalog := libraryCatalog()
			catalog.Errors = map[string]error{"user_playlists": shared.NewStatusError(401, "x", nil)}
			lib := NewLibrary(catalog, Options{})

			if _, err := lib.Playlists(context.Background(), token); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if len(catalog.Calls) != 1 {
				t.Errorf("expected no playlist fetches, got %v", catalog.Calls)
			}
		})

		t.Run("no playlists", func(t *testing.T) {
			lib := NewLibrary(&tu.MockCatalog{}, Options{})

			got, err := lib.Playlists(context.Background(), token)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil result, got %v", got)
			}
		})

		t.Run("page ceiling applies per collection", func(t *testing.T) {
			catalog := libraryCatalog()
			lib := NewLibrary(catalog, Options{MaxPages: 1})

			_, err := lib.Playlists(context.Background(), token)
			if !errors.Is(err, shared.ErrPageLimit) {
				t.Errorf("expected ErrPageLimit, got %v", err)
			}
		})

		t.Run("reports progress", func(t *testing.T) {
			progress := make(chan ProgressUpdate, 10)
			lib := NewLibrary(libraryCatalog(), Options{Progress: progress})

			if _, err := lib.Playlists(context.Background(), token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			var phases []string
			for u := range progress {
				phases = append(phases, u.Phase.String())
			}
			want := []string{"list_playlists", "fetch_playlist_tracks", "fetch_playlist_tracks"}
			if !reflect.DeepEqual(phases, want) {
				t.Errorf("expected %v, got %v", want, phases)
			}
		})
	})

	t.Run("PlaylistTracks skips removed items", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			PlaylistPages: map[string][][]models.PlaylistEntry{
				"P": {{entry("a"), {Track: nil}, {IsLocal: true, Track: &models.Track{Name: "local"}}}},
			},
		}
		lib := NewLibrary(catalog, Options{})

		got, err := lib.PlaylistTracks(context.Background(), token, "P")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 || got[0].ID != "a" || !got[1].IsLocal {
			t.Errorf("unexpected tracks %+v", got)
		}
	})

	t.Run("Albums attaches album summary", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SavedAlbumPages: [][]models.SavedAlbum{
				{{Album: models.Album{ID: "A1", Name: "One", AvailableMarkets: []string{"US"}}}},
				{{Album: models.Album{ID: "A2", Name: "Two"}}},
			},
			AlbumTrackPages: map[string][][]models.Track{
				"A1": {{tr("a1.1")}, {tr("a1.2")}},
				"A2": {{tr("a2.1")}},
			},
		}
		lib := NewLibrary(catalog, Options{})

		got, err := lib.Albums(context.Background(), token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := []string{"a1.1", "a1.2", "a2.1"}; !reflect.DeepEqual(trackIDs(got), want) {
			t.Errorf("expected %v, got %v", want, trackIDs(got))
		}
		if got[0].AlbumName() != "One" || got[2].AlbumName() != "Two" {
			t.Errorf("expected album summaries attached, got %q and %q", got[0].AlbumName(), got[2].AlbumName())
		}
		if got[0].Album.AvailableMarkets != nil {
			t.Error("expected trimmed album summary")
		}
	})

	t.Run("Liked unwraps saved tracks", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SavedTrackPages: [][]models.SavedTrack{
				{{Track: tr("l1")}, {Track: tr("l2")}},
				{{Track: tr("l3")}},
			},
		}
		lib := NewLibrary(catalog, Options{})

		got, err := lib.Liked(context.Background(), token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := []string{"l1", "l2", "l3"}; !reflect.DeepEqual(trackIDs(got), want) {
			t.Errorf("expected %v, got %v", want, trackIDs(got))
		}
	})
}

func TestEngine(t *testing.T) {
	t.Run("PlaylistTracks without features", func(t *testing.T) {
		catalog := libraryCatalog()
		engine := NewEngine(catalog, Options{})

		result, err := engine.PlaylistTracks(context.Background(), token, "P2", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Source != "playlist:P2" || result.Features || result.Single {
			t.Errorf("unexpected result header %+v", result)
		}
		if want := []string{"P2.t1", "P2.t2", "P2.t3"}; !reflect.DeepEqual(ids(result.Records), want) {
			t.Errorf("expected %v, got %v", want, ids(result.Records))
		}
		if len(catalog.FeatureCalls) != 0 {
			t.Error("expected no feature requests")
		}
	})

	t.Run("features are batched and aligned", func(t *testing.T) {
		tracks := make([]models.Track, 5)
		features := map[string]*models.AudioFeatures{}
		for i := range tracks {
			id := string(rune('a' + i))
			tracks[i] = tr(id)
			features[id] = feat(id)
		}

		catalog := &tu.MockCatalog{
			SavedTrackPages: [][]models.SavedTrack{{
				{Track: tracks[0]}, {Track: tracks[1]}, {Track: tracks[2]}, {Track: tracks[3]}, {Track: tracks[4]},
			}},
			Features: features,
		}
		engine := NewEngine(catalog, Options{FeaturesBatchSize: 2})

		result, err := engine.LikedSongs(context.Background(), token, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(catalog.FeatureCalls) != 3 {
			t.Fatalf("expected 3 feature requests, got %d", len(catalog.FeatureCalls))
		}
		if strings.Join(catalog.FeatureCalls[2], ",") != "e" {
			t.Errorf("expected last chunk [e], got %v", catalog.FeatureCalls[2])
		}
		for i, r := range result.Records {
			if r.Features == nil || r.Features.ID != r.ID {
				t.Errorf("record %d misaligned: %+v", i, r)
			}
		}
		if !result.Features {
			t.Error("expected features flag")
		}
	})

	t.Run("unknown features stay empty", func(t *testing.T) {
		catalog := libraryCatalog()
		catalog.Features = map[string]*models.AudioFeatures{"P1.t1": feat("P1.t1")}
		engine := NewEngine(catalog, Options{})

		result, err := engine.PlaylistTracks(context.Background(), token, "P1", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Records[0].Features == nil || result.Records[1].Features != nil {
			t.Errorf("unexpected features %+v", result.Records)
		}
	})

	t.Run("tracks without ids are left out of enriched output", func(t *testing.T) {
		local := models.Track{Name: "local file", IsLocal: true}
		catalog := &tu.MockCatalog{
			PlaylistPages: map[string][][]models.PlaylistEntry{
				"P": {{entry("a"), {IsLocal: true, Track: &local}, entry("b")}},
			},
			Features: map[string]*models.AudioFeatures{"a": feat("a"), "b": feat("b")},
		}
		engine := NewEngine(catalog, Options{})

		result, err := engine.PlaylistTracks(context.Background(), token, "P", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := []string{"a", "b"}; !reflect.DeepEqual(ids(result.Records), want) {
			t.Errorf("expected %v, got %v", want, ids(result.Records))
		}
		if strings.Join(catalog.FeatureCalls[0], ",") != "a,b" {
			t.Errorf("expected only ids requested, got %v", catalog.FeatureCalls[0])
		}
	})

	t.Run("feature failure aborts", func(t *testing.T) {
		catalog := libraryCatalog()
		catalog.Errors = map[string]error{"audio_features": shared.NewStatusError(403, "x", nil)}
		engine := NewEngine(catalog, Options{})

		result, err := engine.LibraryPlaylists(context.Background(), token, true)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if result.Records != nil {
			t.Errorf("expected no records, got %v", result.Records)
		}
	})

	t.Run("AlbumTracks", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			Albums:          map[string]models.Album{"A": {ID: "A", Name: "Record"}},
			AlbumTrackPages: map[string][][]models.Track{"A": {{tr("x")}, {tr("y")}}},
		}
		engine := NewEngine(catalog, Options{})

		result, err := engine.AlbumTracks(context.Background(), token, "A", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Source != "album:A" || len(result.Records) != 2 {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.Records[1].AlbumName() != "Record" {
			t.Errorf("expected album attached, got %q", result.Records[1].AlbumName())
		}
		if catalog.Calls[0] != "album:A" {
			t.Errorf("expected album summary first, got %v", catalog.Calls)
		}
	})

	t.Run("LibraryAlbums", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SavedAlbumPages: [][]models.SavedAlbum{{{Album: models.Album{ID: "A", Name: "Record"}}}},
			AlbumTrackPages: map[string][][]models.Track{"A": {{tr("x")}}},
		}
		engine := NewEngine(catalog, Options{})

		result, err := engine.LibraryAlbums(context.Background(), token, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Source != "library:albums" || len(result.Records) != 1 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Search", func(t *testing.T) {
		newCatalog := func() *tu.MockCatalog {
			return &tu.MockCatalog{
				SearchResults: map[string]models.Track{"track:Song artist:Band": tr("s1")},
				Features:      map[string]*models.AudioFeatures{"s1": feat("s1")},
			}
		}

		t.Run("with features", func(t *testing.T) {
			engine := NewEngine(newCatalog(), Options{})

			result, err := engine.Search(context.Background(), token, "Song", "Band", true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !result.Single || len(result.Records) != 1 || result.Records[0].Features == nil {
				t.Errorf("unexpected result %+v", result)
			}
			if result.Source != "search:track:Song artist:Band" {
				t.Errorf("unexpected source %s", result.Source)
			}
		})

		t.Run("without features", func(t *testing.T) {
			catalog := newCatalog()
			engine := NewEngine(catalog, Options{})

			result, err := engine.Search(context.Background(), token, "Song", "Band", false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Records[0].Features != nil || len(catalog.FeatureCalls) != 0 {
				t.Error("expected no feature lookup")
			}
		})

		t.Run("features not found", func(t *testing.T) {
			catalog := newCatalog()
			catalog.Features = map[string]*models.AudioFeatures{}
			engine := NewEngine(catalog, Options{})

			_, err := engine.Search(context.Background(), token, "Song", "Band", true)
			if !errors.Is(err, shared.ErrFeaturesNotFound) {
				t.Errorf("expected ErrFeaturesNotFound, got %v", err)
			}
		})

		t.Run("track not found", func(t *testing.T) {
			catalog := newCatalog()
			catalog.Errors = map[string]error{"search": shared.ErrTrackNotFound}
			engine := NewEngine(catalog, Options{})

			_, err := engine.Search(context.Background(), token, "Other", "", true)
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		catalog := libraryCatalog()
		_, err := NewEngine(catalog, Options{}).LibraryPlaylists(ctx, token, false)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no calls, got %v", catalog.Calls)
		}
	})
}

func TestProgress(t *testing.T) {
	t.Run("full channel never blocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		engine := NewEngine(libraryCatalog(), Options{Progress: progress})

		result, err := engine.LibraryPlaylists(context.Background(), token, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Records) != 5 {
			t.Errorf("expected 5 records, got %d", len(result.Records))
		}
	})

	t.Run("done update carries record count", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		engine := NewEngine(libraryCatalog(), Options{Progress: progress})

		if _, err := engine.PlaylistTracks(context.Background(), token, "P1", false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var last ProgressUpdate
		for u := range progress {
			last = u
		}
		if last.Phase != Done || last.Total != 2 {
			t.Errorf("unexpected final update %+v", last)
		}
	})

	t.Run("Phase names", func(t *testing.T) {
		tests := []struct {
			phase Phase
			want  string
		}{
			{ListPlaylists, "list_playlists"},
			{FetchPlaylistTracks, "fetch_playlist_tracks"},
			{ListAlbums, "list_albums"},
			{FetchAlbumTracks, "fetch_album_tracks"},
			{FetchLiked, "fetch_liked"},
			{SearchTrack, "search_track"},
			{FetchFeatures, "fetch_features"},
			{Done, "done"},
			{Phase(99), ""},
		}

		for _, tt := range tests {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
			}
		}
	})
}
