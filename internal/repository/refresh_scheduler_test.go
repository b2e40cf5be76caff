package repository

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/catalog"
)

type countingMutator struct {
	refreshes atomic.Int64
	result    Result
}

func (c *countingMutator) SetupSnapshot(ctx context.Context, params catalog.FetchParams) Result {
	return c.result
}

func (c *countingMutator) RefreshSnapshot(ctx context.Context) Result {
	c.refreshes.Add(1)
	return c.result
}

type fakeExpiry struct {
	expired bool
	size    int
}

func (f *fakeExpiry) Expired() bool { return f.expired }
func (f *fakeExpiry) Size() int     { return f.size }

func TestRefreshIfStale_SkipsEmptyStore(t *testing.T) {
	repo := &countingMutator{result: success(cache.Stats{})}
	refreshIfStale(context.Background(), repo, &fakeExpiry{expired: true, size: 0})

	if got := repo.refreshes.Load(); got != 0 {
		t.Errorf("expected no refresh for a never-populated store, got %d", got)
	}
}

func TestRefreshIfStale_SkipsFreshSnapshot(t *testing.T) {
	repo := &countingMutator{result: success(cache.Stats{})}
	refreshIfStale(context.Background(), repo, &fakeExpiry{expired: false, size: 3})

	if got := repo.refreshes.Load(); got != 0 {
		t.Errorf("expected no refresh for a fresh snapshot, got %d", got)
	}
}

func TestRefreshIfStale_RefreshesExpiredSnapshot(t *testing.T) {
	repo := &countingMutator{result: success(cache.Stats{Size: 3})}
	refreshIfStale(context.Background(), repo, &fakeExpiry{expired: true, size: 3})

	if got := repo.refreshes.Load(); got != 1 {
		t.Errorf("expected one refresh, got %d", got)
	}
}

func TestStartRefreshScheduler_TicksAndStops(t *testing.T) {
	repo := &countingMutator{result: success(cache.Stats{Size: 1})}
	store := &fakeExpiry{expired: true, size: 1}

	ctx, cancel := context.WithCancel(context.Background())
	done := StartRefreshScheduler(ctx, repo, store, 10*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for repo.refreshes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never refreshed the expired snapshot")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
