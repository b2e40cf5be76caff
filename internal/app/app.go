package app

import (
	"context"
	"errors"

	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/config"
	"github.com/bassista/proto_cache/internal/repository"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config *config.Config
	Repo   repository.Repository
	Store  cache.SnapshotStore

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo repository.Repository, store cache.SnapshotStore) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("snapshot store is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:  cfg,
		Repo:    repo,
		Store:   store,
		BaseCtx: ctx,
		Cancel:  cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartBackground launches the staleness-driven refresh scheduler. It runs
// until Shutdown cancels the base context.
func (a *App) StartBackground() {
	repository.StartRefreshScheduler(a.BaseCtx, a.Repo, a.Store, a.Config.Cache.RefreshPoll)
}
