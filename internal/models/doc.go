// Package models defines the Spotify Web API entities decoded by tunex and the combined records it prints.
//
// Entities mirror the API's JSON objects and are immutable after decode:
//   - [Track], [Album], [Artist], [Image] : catalog objects
//   - [PlaylistEntry] : playlist item, with a nil Track for removed items
//   - [SavedTrack], [SavedAlbum] : library entries
//   - [PlaylistSummary] : user playlist listing entry
//   - [AudioFeatures] : per-track audio analysis summary
//
// [TrackWithFeatures] joins a track with its features and encodes both as one flat JSON object.
// [MergeFeatures] builds these records positionally, [SingleWithFeatures] handles the one-track case.
package models
