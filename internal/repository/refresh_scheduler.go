package repository

import (
	"context"
	"time"

	"github.com/bassista/proto_cache/internal/logger"
)

// Expiry is the minimal store API the refresh scheduler needs.
type Expiry interface {
	Expired() bool
	Size() int
}

// StartRefreshScheduler runs a goroutine that re-runs the refresh pipeline
// whenever the snapshot has gone stale. It only refreshes a snapshot that was
// populated at least once; an empty store waits for the first explicit setup.
// Returns a channel that is closed when the scheduler has shut down.
func StartRefreshScheduler(
	ctx context.Context,
	repo Mutator,
	store Expiry,
	interval time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("refresh").Debugf("starting refresh scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		logger.WithComponent("refresh").Debugf("refresh scheduler running")
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("refresh").Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				logger.WithComponent("refresh").Tracef("refresh scheduler tick, checking staleness")
				refreshIfStale(ctx, repo, store)
			}
		}
	}()
	return done
}

// refreshIfStale re-runs the pipeline when the snapshot is stale. A failed
// refresh is logged and retried on the next tick; the stale snapshot keeps
// being served meanwhile.
func refreshIfStale(ctx context.Context, repo Mutator, store Expiry) {
	if store.Size() == 0 {
		logger.WithComponent("refresh").Tracef("store never populated, skipping")
		return
	}
	if !store.Expired() {
		logger.WithComponent("refresh").Tracef("snapshot still fresh, skipping")
		return
	}

	logger.WithComponent("refresh").Debugf("snapshot expired, refreshing")
	result := repo.RefreshSnapshot(ctx)
	if !result.OK {
		logger.WithComponent("refresh").Errorf("scheduled refresh failed: %v", result.Fault)
		return
	}
	logger.WithComponent("refresh").Infof("snapshot refreshed: %d records", result.Stats.Size)
}
