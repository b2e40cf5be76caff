package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	route "github.com/bassista/proto_cache/internal/api/route"
	appctx "github.com/bassista/proto_cache/internal/app"
	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/config"
	"github.com/bassista/proto_cache/internal/fetch"
	"github.com/bassista/proto_cache/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Second
	cfg.Cache.RefreshPoll = time.Minute

	store, err := cache.NewStore(cache.Config{})
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	fetcher := fetch.NewMemoryFetcher([]catalog.RawPrototype{{ID: 1, Name: "one"}})
	repo, err := repository.NewSnapshotRepository(store, fetcher, catalog.NewDefaultNormalizer())
	if err != nil {
		t.Fatalf("unexpected error creating repository: %v", err)
	}
	app, err := appctx.New(cfg, repo, store)
	if err != nil {
		t.Fatalf("unexpected error creating app: %v", err)
	}
	t.Cleanup(app.Shutdown)

	r := gin.New()
	route.SetupRoutes(r, app)
	return r
}

func TestRouting_Health(t *testing.T) {
	r := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
}

func TestRouting_AllEndpointsRegistered(t *testing.T) {
	r := newTestEngine(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/snapshot/setup"},
		{http.MethodPost, "/snapshot/refresh"},
		{http.MethodGet, "/snapshot/stats"},
		{http.MethodDelete, "/snapshot"},
		{http.MethodGet, "/prototypes"},
		{http.MethodGet, "/prototypes/ids"},
		{http.MethodGet, "/prototypes/sample"},
		{http.MethodGet, "/prototypes/random"},
		{http.MethodGet, "/prototype/1"},
		{http.MethodGet, "/configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code == http.StatusNotFound && tt.path != "/prototype/1" && tt.path != "/prototypes/random" {
				t.Errorf("route not registered: %s %s", tt.method, tt.path)
			}
		})
	}
}

func TestRouting_SetupThenRead(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/snapshot/setup", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("setup failed with %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prototype/1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 after setup, got %d", w.Code)
	}
}
