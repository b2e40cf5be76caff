package cache

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/errs"
	"github.com/bassista/proto_cache/internal/logger"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// refreshKey is the singleflight key shared by all refresh attempts; there is
// exactly one snapshot, so exactly one refresh may be in flight.
const refreshKey = "snapshot-refresh"

// Store keeps exactly one full snapshot of normalized prototypes in memory.
// Reads never block behind a refresh; the snapshot reference is only swapped
// when SetAll succeeds.
type Store struct {
	cfg Config

	mu        sync.RWMutex
	records   []catalog.Prototype
	index     map[int]int // prototype id -> position in records
	cachedAt  time.Time
	sizeBytes int64

	flight   singleflight.Group
	inFlight atomic.Bool

	now func() time.Time
}

// Stats is derived on demand from the snapshot, the config and the wall clock.
type Stats struct {
	Size            int        `json:"size"`
	CachedAt        *time.Time `json:"cachedAt"`
	IsExpired       bool       `json:"isExpired"`
	RemainingTTLMs  int64      `json:"remainingTtlMs"`
	SizeBytes       int64      `json:"sizeBytes"`
	RefreshInFlight bool       `json:"refreshInFlight"`
}

// NewStore creates an empty snapshot store. Zero config fields fall back to
// defaults; values outside the hard limits are rejected here, not later.
func NewStore(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Store{
		cfg:     cfg,
		records: []catalog.Prototype{},
		index:   map[int]int{},
		now:     time.Now,
	}, nil
}

// Config returns the immutable store limits.
func (s *Store) Config() Config {
	return s.cfg
}

// SetAll replaces the whole snapshot. The incoming records are size-estimated
// first; if the estimate exceeds the configured ceiling the call fails and
// the previous snapshot stays authoritative. On success the records slice,
// the id index, the byte size and the cache timestamp are swapped together.
// Duplicate ids are deduplicated last-write-wins with a diagnostic log.
func (s *Store) SetAll(records []catalog.Prototype) (int64, error) {
	estimated, err := estimateSize(records)
	if err != nil {
		// Fail-open: an unestimable payload bypasses the ceiling instead of
		// rejecting the refresh. See DESIGN.md.
		logger.WithComponent("snapshot-store").Warnf("size estimation failed, skipping capacity check: %v", err)
		estimated = 0
	}

	if estimated > s.cfg.MaxSizeBytes {
		logger.WithComponent("snapshot-store").Warnf("rejecting snapshot: estimated %d bytes exceeds limit %d", estimated, s.cfg.MaxSizeBytes)
		return 0, errs.StorageLimit("snapshot exceeds configured size limit", map[string]string{
			"estimatedBytes": strconv.FormatInt(estimated, 10),
			"maxSizeBytes":   strconv.FormatInt(s.cfg.MaxSizeBytes, 10),
			"records":        strconv.Itoa(len(records)),
		})
	}

	deduped := make([]catalog.Prototype, 0, len(records))
	index := make(map[int]int, len(records))
	duplicates := 0
	for _, rec := range records {
		if pos, seen := index[rec.ID]; seen {
			deduped[pos] = rec // last write wins
			duplicates++
			continue
		}
		index[rec.ID] = len(deduped)
		deduped = append(deduped, rec)
	}
	if duplicates > 0 {
		logger.WithComponent("snapshot-store").Warnf("snapshot contained %d duplicate prototype ids, kept last occurrence", duplicates)
	}

	s.mu.Lock()
	s.records = deduped
	s.index = index
	s.sizeBytes = estimated
	s.cachedAt = s.now()
	s.mu.Unlock()

	logger.WithComponent("snapshot-store").Debugf("snapshot replaced: %d records, %d bytes", len(deduped), estimated)
	return estimated, nil
}

// GetByID returns the prototype with the given id, if present.
func (s *Store) GetByID(id int) (catalog.Prototype, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return catalog.Prototype{}, false
	}
	return s.records[pos], true
}

// GetAll returns the current backing slice by reference, zero-copy.
// Callers must treat it as read-only; it is swapped wholesale on refresh and
// never mutated in place.
func (s *Store) GetAll() []catalog.Prototype {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// IDs materializes the ids of the current snapshot in record order.
// This is O(n) per call; callers iterating repeatedly should keep the result.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, len(s.records))
	for i, rec := range s.records {
		ids[i] = rec.ID
	}
	return ids
}

// Size returns the number of records in the snapshot.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Expired reports whether the snapshot is stale. Expired data remains fully
// readable; staleness is advisory, not eviction.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiredLocked()
}

func (s *Store) expiredLocked() bool {
	if s.cachedAt.IsZero() {
		return true
	}
	return s.now().Sub(s.cachedAt) > s.cfg.TTL
}

// Stats computes the current snapshot statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Size:            len(s.records),
		SizeBytes:       s.sizeBytes,
		IsExpired:       s.expiredLocked(),
		RefreshInFlight: s.inFlight.Load(),
	}
	if !s.cachedAt.IsZero() {
		cachedAt := s.cachedAt
		stats.CachedAt = &cachedAt
		if !stats.IsExpired {
			stats.RemainingTTLMs = (s.cfg.TTL - s.now().Sub(s.cachedAt)).Milliseconds()
		}
	}
	return stats
}

// Clear resets the snapshot to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = []catalog.Prototype{}
	s.index = map[int]int{}
	s.cachedAt = time.Time{}
	s.sizeBytes = 0
	s.mu.Unlock()
}

// RunExclusive executes task unless a refresh is already in flight, in which
// case the caller piggybacks on the running one: the task is not invoked a
// second time and the in-flight outcome (value and error) is shared with all
// concurrent callers. This is de-duplication, not queuing. The returned bool
// reports whether the result was shared with another caller.
func (s *Store) RunExclusive(task func() (any, error)) (any, bool, error) {
	v, err, shared := s.flight.Do(refreshKey, func() (any, error) {
		s.inFlight.Store(true)
		defer s.inFlight.Store(false)
		return task()
	})
	return v, shared, err
}

// RefreshInFlight reports whether a refresh task is currently running.
func (s *Store) RefreshInFlight() bool {
	return s.inFlight.Load()
}

// estimateSize sums per-record serialized lengths plus the JSON array
// overhead. Records are marshaled one at a time so the peak allocation is a
// single record, not the whole snapshot.
func estimateSize(records []catalog.Prototype) (int64, error) {
	// "[" + "]" plus a comma between records.
	total := int64(2)
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, err
		}
		total += int64(len(payload))
		if i > 0 {
			total++
		}
	}
	return total, nil
}
