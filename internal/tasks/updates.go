package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send updates to the CLI for display while a collection is being walked.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ListPlaylists Phase = iota
	FetchPlaylistTracks
	ListAlbums
	FetchAlbumTracks
	FetchLiked
	SearchTrack
	FetchFeatures
	Done
)

func (p Phase) String() string {
	switch p {
	case ListPlaylists:
		return "list_playlists"
	case FetchPlaylistTracks:
		return "fetch_playlist_tracks"
	case ListAlbums:
		return "list_albums"
	case FetchAlbumTracks:
		return "fetch_album_tracks"
	case FetchLiked:
		return "fetch_liked"
	case SearchTrack:
		return "search_track"
	case FetchFeatures:
		return "fetch_features"
	case Done:
		return "done"
	default:
		return ""
	}
}

func listPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ListPlaylists, Message: "Listing playlists..."}
}

func playlistTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylistTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks of playlist %q...", name),
	}
}

func listAlbumsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ListAlbums, Message: "Listing saved albums..."}
}

func albumTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbumTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks of album %q...", name),
	}
}

func likedUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchLiked, Message: "Fetching liked songs..."}
}

func searchUpdate(query string) ProgressUpdate {
	return ProgressUpdate{Phase: SearchTrack, Message: fmt.Sprintf("Searching for %s...", query)}
}

func featuresUpdate(tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Total:   tracks,
		Message: fmt.Sprintf("Fetching audio features for %d tracks...", tracks),
	}
}

func doneUpdate(records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    records,
		Total:   records,
		Message: fmt.Sprintf("Collected %d tracks", records),
		Data:    records,
	}
}
