package repository

import (
	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/errs"
)

// Result is the discriminated outcome of every snapshot mutation. Exactly one
// of Stats and Fault is set.
type Result struct {
	OK    bool         `json:"ok"`
	Stats *cache.Stats `json:"stats,omitempty"`
	Fault *errs.Fault  `json:"fault,omitempty"`
}

func success(stats cache.Stats) Result {
	return Result{OK: true, Stats: &stats}
}

func failure(fault *errs.Fault) Result {
	return Result{OK: false, Fault: fault}
}
