package paging

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunex/internal/shared"
	"github.com/samber/lo"
)

// DefaultMaxPages bounds a single pagination walk.
const DefaultMaxPages = 10000

// Page is one response of a cursor-paginated collection.
//
// Next is the fully-qualified URL of the follow-up request, empty on the last page.
type Page[T any] struct {
	Items []T
	Next  string
}

// Last reports whether no page follows this one.
func (p Page[T]) Last() bool {
	return p.Next == ""
}

// Fetcher retrieves the page addressed by cursor. The empty cursor addresses the first page.
type Fetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// ChunkFetcher resolves one chunk of keys, returning one result per key in key order.
type ChunkFetcher[K, R any] func(ctx context.Context, chunk []K) ([]R, error)

type options struct {
	maxPages int
	onPage   func(n, items int, next string)
}

// Option configures [Paginate].
type Option func(*options)

// MaxPages overrides [DefaultMaxPages]. Values below one are ignored.
func MaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// OnPage registers a hook called after each page is received with its 1-based number,
// its item count and its Next cursor.
func OnPage(fn func(n, items int, next string)) Option {
	return func(o *options) {
		o.onPage = fn
	}
}

// Paginate follows cursors from the first page until a page has no successor and returns every
// item in arrival order.
//
// Any fetch failure aborts the walk and discards what was collected so far.
func Paginate[T any](ctx context.Context, fetch Fetcher[T], opts ...Option) ([]T, error) {
	o := options{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(&o)
	}

	var items []T
	seen := make(map[string]struct{})
	cursor := ""

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n > o.maxPages {
			return nil, fmt.Errorf("%w: more than %d pages", shared.ErrPageLimit, o.maxPages)
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", n, err)
		}

		items = append(items, page.Items...)
		if o.onPage != nil {
			o.onPage(n, len(page.Items), page.Next)
		}

		if page.Last() {
			break
		}
		if _, ok := seen[page.Next]; ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrCursorCycle, page.Next)
		}
		seen[page.Next] = struct{}{}
		cursor = page.Next
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Batch resolves keys in chunks of at most size, one call per chunk, and concatenates the
// results in key order. Empty input makes no calls.
func Batch[K, R any](ctx context.Context, keys []K, size int, fetch ChunkFetcher[K, R]) ([]R, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", shared.ErrInvalidChunkSize, size)
	}

	results := make([]R, 0, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	for i, chunk := range lo.Chunk(keys, size) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		got, err := fetch(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chunk %d: %w", i+1, err)
		}
		if len(got) != len(chunk) {
			return nil, fmt.Errorf("%w: chunk %d requested %d keys, got %d results",
				shared.ErrLengthMismatch, i+1, len(chunk), len(got))
		}

		results = append(results, got...)
	}

	return results, nil
}

// Zip joins as and bs element by element with join. Both sequences must have the same length.
func Zip[A, B, C any](as []A, bs []B, join func(A, B) C) ([]C, error) {
	if len(as) != len(bs) {
		return nil, fmt.Errorf("%w: %d vs %d", shared.ErrLengthMismatch, len(as), len(bs))
	}

	out := make([]C, len(as))
	for i := range as {
		out[i] = join(as[i], bs[i])
	}
	return out, nil
}
