package repository

import (
	"context"

	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/cache"
)

// Mutator covers the snapshot-populating operations.
// Small interface used by handlers and background jobs that only refresh.
type Mutator interface {
	SetupSnapshot(ctx context.Context, params catalog.FetchParams) Result
	RefreshSnapshot(ctx context.Context) Result
}

// Reader covers the snapshot read operations; they never touch the network.
type Reader interface {
	AllFromSnapshot() []catalog.Prototype
	FromSnapshotByID(id int) (*catalog.Prototype, error)
	RandomFromSnapshot() *catalog.Prototype
	RandomSampleFromSnapshot(size int) ([]catalog.Prototype, error)
	IDsFromSnapshot() []int
	Stats() cache.Stats
	Config() cache.Config
}

// Repository is the full snapshot repository contract.
type Repository interface {
	Mutator
	Reader
}
