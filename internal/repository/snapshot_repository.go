package repository

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/errs"
	"github.com/bassista/proto_cache/internal/fetch"
	"github.com/bassista/proto_cache/internal/logger"
	json "github.com/goccy/go-json"
)

// SnapshotRepository drives the fetch-normalize-store pipeline and serves
// reads from the current snapshot. Any pipeline failure leaves the
// last-known-good snapshot untouched and fully served.
type SnapshotRepository struct {
	store      cache.SnapshotStore
	fetcher    fetch.Fetcher
	normalizer catalog.Normalizer

	mu         sync.Mutex
	lastParams *catalog.FetchParams
}

// NewSnapshotRepository creates a repository over the given collaborators.
func NewSnapshotRepository(store cache.SnapshotStore, fetcher fetch.Fetcher, normalizer catalog.Normalizer) (*SnapshotRepository, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is nil")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer is nil")
	}
	return &SnapshotRepository{store: store, fetcher: fetcher, normalizer: normalizer}, nil
}

// SetupSnapshot populates the snapshot with the given query, merged over the
// defaults. The merged params are remembered for future refreshes only when
// the pipeline succeeds.
func (r *SnapshotRepository) SetupSnapshot(ctx context.Context, params catalog.FetchParams) Result {
	merged := params.Merge(catalog.DefaultFetchParams())
	result := r.runExclusivePipeline(ctx, merged)
	if result.OK {
		r.mu.Lock()
		remembered := merged
		r.lastParams = &remembered
		r.mu.Unlock()
		logger.WithComponent("snapshot-repo").Debugf("setup succeeded, remembered params %+v", merged)
	}
	return result
}

// RefreshSnapshot re-runs the pipeline with the last successful setup params,
// or the defaults if setup never succeeded. It never changes the remembered
// params, whatever the outcome.
func (r *SnapshotRepository) RefreshSnapshot(ctx context.Context) Result {
	r.mu.Lock()
	params := catalog.DefaultFetchParams()
	if r.lastParams != nil {
		params = *r.lastParams
	}
	r.mu.Unlock()

	return r.runExclusivePipeline(ctx, params)
}

// runExclusivePipeline funnels the pipeline through the store's exclusive
// guard: concurrent callers share one in-flight execution and its Result.
func (r *SnapshotRepository) runExclusivePipeline(ctx context.Context, params catalog.FetchParams) Result {
	v, shared, err := r.store.RunExclusive(func() (any, error) {
		return r.fetchAndStore(ctx, params), nil
	})
	if err != nil {
		// The pipeline reports failures through Result; anything here is a
		// guard-level surprise.
		return failure(errs.StoreUnknown("exclusive refresh failed", err))
	}
	if shared {
		logger.WithComponent("snapshot-repo").Debugf("joined in-flight refresh instead of starting a new one")
	}
	return v.(Result)
}

func (r *SnapshotRepository) fetchAndStore(ctx context.Context, params catalog.FetchParams) Result {
	raw, err := r.fetcher.FetchPage(ctx, params)
	if err != nil {
		fault := errs.Classify(err)
		logger.WithComponent("snapshot-repo").Warnf("fetch failed (%s/%s): %s", fault.Kind, fault.Code, fault.Message)
		return failure(fault)
	}

	records := r.normalizer.Normalize(raw)

	if _, err := r.store.SetAll(records); err != nil {
		fault := storeFault(err)
		logger.WithComponent("snapshot-repo").Warnf("store rejected snapshot (%s/%s): %s", fault.Kind, fault.Code, fault.Message)
		return failure(fault)
	}

	stats := r.store.Stats()
	logger.WithComponent("snapshot-repo").Infof("snapshot populated: %d records, %d bytes", stats.Size, stats.SizeBytes)
	return success(stats)
}

// storeFault maps a SetAll error onto the store side of the taxonomy.
func storeFault(err error) *errs.Fault {
	var fault *errs.Fault
	if errors.As(err, &fault) {
		return fault
	}

	var unsupportedType *json.UnsupportedTypeError
	var unsupportedValue *json.UnsupportedValueError
	var marshaler *json.MarshalerError
	if errors.As(err, &unsupportedType) || errors.As(err, &unsupportedValue) || errors.As(err, &marshaler) {
		return errs.Serialization("snapshot size estimation failed", err)
	}

	return errs.StoreUnknown("unexpected store failure", err)
}

// AllFromSnapshot returns the current records by reference, zero-copy.
// Callers must not mutate the returned slice.
func (r *SnapshotRepository) AllFromSnapshot() []catalog.Prototype {
	return r.store.GetAll()
}

// FromSnapshotByID returns the prototype with the given id, or nil when the
// snapshot has no such record. A non-positive id is programmer misuse and
// yields a validation error before the store is consulted.
func (r *SnapshotRepository) FromSnapshotByID(id int) (*catalog.Prototype, error) {
	if id <= 0 {
		return nil, errs.Validation("prototype id must be a positive integer", map[string]string{
			"prototypeId": strconv.Itoa(id),
		})
	}
	rec, ok := r.store.GetByID(id)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// RandomFromSnapshot returns a uniformly chosen record, or nil when empty.
func (r *SnapshotRepository) RandomFromSnapshot() *catalog.Prototype {
	records := r.store.GetAll()
	if len(records) == 0 {
		return nil
	}
	rec := records[rand.IntN(len(records))]
	return &rec
}

// RandomSampleFromSnapshot returns size distinct records chosen without
// replacement, in randomized order, via a partial Fisher-Yates shuffle over a
// copy of the snapshot. size greater than the population yields the full
// population; a negative size is a validation error.
func (r *SnapshotRepository) RandomSampleFromSnapshot(size int) ([]catalog.Prototype, error) {
	if size < 0 {
		return nil, errs.Validation("sample size must be a non-negative integer", map[string]string{
			"size": strconv.Itoa(size),
		})
	}
	if size == 0 {
		return []catalog.Prototype{}, nil
	}

	records := r.store.GetAll()
	pool := make([]catalog.Prototype, len(records))
	copy(pool, records)

	if size > len(pool) {
		size = len(pool)
	}
	for i := 0; i < size; i++ {
		j := i + rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:size], nil
}

// IDsFromSnapshot lists the ids of the current snapshot.
func (r *SnapshotRepository) IDsFromSnapshot() []int {
	return r.store.IDs()
}

// Stats reports the current snapshot statistics.
func (r *SnapshotRepository) Stats() cache.Stats {
	return r.store.Stats()
}

// Config returns the store limits.
func (r *SnapshotRepository) Config() cache.Config {
	return r.store.Config()
}
