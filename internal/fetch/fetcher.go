package fetch

import (
	"context"

	"github.com/bassista/proto_cache/internal/catalog"
)

// Fetcher abstracts the upstream catalog API.
// The repository trusts this contract and classifies any returned error; it
// never re-validates HTTP semantics itself.
type Fetcher interface {
	FetchPage(ctx context.Context, params catalog.FetchParams) ([]catalog.RawPrototype, error)
}
