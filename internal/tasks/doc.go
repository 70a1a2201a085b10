// Package tasks runs the read operations of tunex against a [services.Catalog] with non-blocking
// progress reporting.
//
// # Collections
//
// [Library] flattens the two-level collections of a user library into one ordered track list:
//
//  1. [Library.Playlists] : every track of every playlist the user owns or follows
//     - Lists the playlists, then walks each one in listing order
//     - Items removed from the catalog (null track) are skipped
//
//  2. [Library.Albums] : every track of every saved album
//     - Each track carries a trimmed summary of its album
//
//  3. [Library.Liked] : the user's liked songs in library order
//
// Every walk is all-or-nothing. The first failed page aborts it and nothing collected so far is
// returned.
//
// # Enrichment
//
// [Engine] wraps a Library and, when asked, fetches audio features in batches of at most
// [services.MaxFeatureIDs] ids and joins them to the tracks by position. Tracks without an id
// (local files) are left out of enriched output.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, and a message. Updates use select with
// default so a slow or absent reader never blocks a walk.
package tasks
