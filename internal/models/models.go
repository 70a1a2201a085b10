// package models defines the Spotify entities tunex fetches and the combined track records it prints
package models

import (
	"strings"

	"github.com/samber/lo"
)

// Image is an artwork rendition.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist is a simplified artist object.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Href string `json:"href,omitempty"`
	Type string `json:"type,omitempty"`
	URI  string `json:"uri"`
}

// Album is a simplified album object, as embedded in tracks and saved-album entries.
type Album struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	AlbumType            string   `json:"album_type,omitempty"`
	Artists              []Artist `json:"artists,omitempty"`
	AvailableMarkets     []string `json:"available_markets,omitempty"`
	Href                 string   `json:"href,omitempty"`
	Images               []Image  `json:"images,omitempty"`
	ReleaseDate          string   `json:"release_date,omitempty"`
	ReleaseDatePrecision string   `json:"release_date_precision,omitempty"`
	TotalTracks          int      `json:"total_tracks,omitempty"`
	Type                 string   `json:"type,omitempty"`
	URI                  string   `json:"uri"`
}

// Summary strips an album down to the fields attached to each of its tracks.
func (a Album) Summary() *Album {
	return &Album{
		ID:          a.ID,
		Name:        a.Name,
		AlbumType:   a.AlbumType,
		Artists:     a.Artists,
		Href:        a.Href,
		Images:      a.Images,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
		Type:        a.Type,
		URI:         a.URI,
	}
}

// Track is a Spotify track. Album tracks arrive without Album and have it attached after decode.
type Track struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Album            *Album   `json:"album,omitempty"`
	Artists          []Artist `json:"artists"`
	AvailableMarkets []string `json:"available_markets,omitempty"`
	DiscNumber       int      `json:"disc_number"`
	DurationMS       int      `json:"duration_ms"`
	Explicit         bool     `json:"explicit"`
	Href             string   `json:"href,omitempty"`
	IsLocal          bool     `json:"is_local,omitempty"`
	Popularity       int      `json:"popularity,omitempty"`
	PreviewURL       *string  `json:"preview_url"`
	TrackNumber      int      `json:"track_number"`
	Type             string   `json:"type"`
	URI              string   `json:"uri"`
}

// ArtistNames joins the track's artist names with ", ".
func (t Track) ArtistNames() string {
	return strings.Join(lo.Map(t.Artists, func(a Artist, _ int) string { return a.Name }), ", ")
}

// AlbumName returns the name of the attached album, if any.
func (t Track) AlbumName() string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Name
}

// PlaylistEntry is one item of a playlist. Track is nil for items removed from the catalog.
type PlaylistEntry struct {
	AddedAt *string `json:"added_at"`
	IsLocal bool    `json:"is_local"`
	Track   *Track  `json:"track"`
}

// SavedTrack is an entry of the user's liked songs.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// SavedAlbum is an entry of the user's saved albums.
type SavedAlbum struct {
	AddedAt string `json:"added_at"`
	Album   Album  `json:"album"`
}

// Owner identifies the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TrackCount is the track reference carried by playlist listings.
type TrackCount struct {
	Href  string `json:"href,omitempty"`
	Total int    `json:"total"`
}

// PlaylistSummary is a playlist as returned by the user's playlist listing.
type PlaylistSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       Owner      `json:"owner"`
	Public      *bool      `json:"public"`
	Tracks      TrackCount `json:"tracks"`
	URI         string     `json:"uri"`
}

// TrackIDs returns the ids of tracks in order.
func TrackIDs(tracks []Track) []string {
	return lo.Map(tracks, func(t Track, _ int) string { return t.ID })
}
