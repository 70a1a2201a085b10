// Package paging walks cursor-paginated collections, batches secondary lookups, and joins
// independently fetched sequences by position.
//
// # Paginator
//
// [Paginate] calls a [Fetcher] with an empty cursor, then with each page's Next cursor until a
// page reports no successor. Items are appended in arrival order. Two guards fail closed: a page
// ceiling ([shared.ErrPageLimit], see [MaxPages]) and a repeated cursor ([shared.ErrCursorCycle]).
//
// # Batcher
//
// [Batch] splits keys into chunks of at most size, issues one call per chunk in order, and
// concatenates the results. Each chunk must yield exactly one result per key.
//
// # Merger
//
// [Zip] pairs two sequences by position. Sequences of different length are rejected with
// [shared.ErrLengthMismatch] rather than truncated.
//
// Every function returns nil alongside an error. Callers never see a partial collection.
package paging
