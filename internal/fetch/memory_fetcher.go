package fetch

import (
	"context"
	"sync"

	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/logger"
)

// MemoryFetcher is a Fetcher implementation that serves pages from an
// in-memory record set. It is useful while no upstream catalog is reachable,
// to execute tests or other development tasks.
type MemoryFetcher struct {
	mu      sync.RWMutex
	records []catalog.RawPrototype
	err     error
}

func NewMemoryFetcher(records []catalog.RawPrototype) *MemoryFetcher {
	return &MemoryFetcher{records: records}
}

// SetRecords replaces the backing record set.
func (m *MemoryFetcher) SetRecords(records []catalog.RawPrototype) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// FailWith makes every subsequent FetchPage return err. Pass nil to recover.
func (m *MemoryFetcher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryFetcher) FetchPage(ctx context.Context, params catalog.FetchParams) ([]catalog.RawPrototype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	if params.PrototypeID > 0 {
		for _, rec := range m.records {
			if rec.ID == params.PrototypeID {
				return []catalog.RawPrototype{rec}, nil
			}
		}
		logger.WithComponent("memory-fetcher").Debugf("record %d not found", params.PrototypeID)
		return []catalog.RawPrototype{}, nil
	}

	start := params.Offset
	if start > len(m.records) {
		start = len(m.records)
	}
	end := start + params.Limit
	if params.Limit <= 0 || end > len(m.records) {
		end = len(m.records)
	}

	page := make([]catalog.RawPrototype, end-start)
	copy(page, m.records[start:end])
	logger.WithComponent("memory-fetcher").Debugf("serving %d records (offset=%d, limit=%d)", len(page), params.Offset, params.Limit)
	return page, nil
}
