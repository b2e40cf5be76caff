package cache

import "github.com/bassista/proto_cache/internal/catalog"

// Reader is the minimal snapshot API for read-only consumers.
type Reader interface {
	GetAll() []catalog.Prototype
	GetByID(id int) (catalog.Prototype, bool)
	IDs() []int
	Size() int
}

// StatsReporter exposes derived snapshot metadata.
type StatsReporter interface {
	Stats() Stats
	Expired() bool
	Config() Config
}

// Writer is the snapshot API the refresh pipeline drives.
type Writer interface {
	SetAll(records []catalog.Prototype) (int64, error)
	RunExclusive(task func() (any, error)) (any, bool, error)
	RefreshInFlight() bool
	Clear()
}

// SnapshotStore is the full store contract.
// It is intentionally broad: it supports the repository, the API controllers
// and the background refresh scheduler.
type SnapshotStore interface {
	Reader
	StatsReporter
	Writer
}
