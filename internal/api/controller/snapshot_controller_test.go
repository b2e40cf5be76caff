package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/fetch"
	"github.com/bassista/proto_cache/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSnapshotFixture(t *testing.T, records []catalog.RawPrototype) (*SnapshotController, *fetch.MemoryFetcher, *cache.Store) {
	t.Helper()
	fetcher := fetch.NewMemoryFetcher(records)
	store, err := cache.NewStore(cache.Config{})
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	repo, err := repository.NewSnapshotRepository(store, fetcher, catalog.NewDefaultNormalizer())
	if err != nil {
		t.Fatalf("unexpected error creating repository: %v", err)
	}
	return NewSnapshotController(repo, store, store), fetcher, store
}

func performRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSnapshotController_Setup(t *testing.T) {
	sc, _, store := newSnapshotFixture(t, []catalog.RawPrototype{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}})

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)

	w := performRequest(r, http.MethodPost, "/snapshot/setup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result repository.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.OK || result.Stats == nil || result.Stats.Size != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if store.Size() != 2 {
		t.Errorf("expected 2 records in store, got %d", store.Size())
	}
}

func TestSnapshotController_Setup_WithBody(t *testing.T) {
	sc, fetcher, _ := newSnapshotFixture(t, nil)

	records := make([]catalog.RawPrototype, 30)
	for i := range records {
		records[i] = catalog.RawPrototype{ID: i + 1, Name: "proto"}
	}
	fetcher.SetRecords(records)

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)

	w := performRequest(r, http.MethodPost, "/snapshot/setup", `{"offset":5,"limit":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result repository.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Stats == nil || result.Stats.Size != 10 {
		t.Errorf("expected the requested page of 10, got %+v", result.Stats)
	}
}

func TestSnapshotController_Setup_MalformedBody(t *testing.T) {
	sc, _, _ := newSnapshotFixture(t, nil)

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)

	w := performRequest(r, http.MethodPost, "/snapshot/setup", `{"offset": "nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSnapshotController_Setup_NegativeOffset(t *testing.T) {
	sc, _, _ := newSnapshotFixture(t, nil)

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)

	w := performRequest(r, http.MethodPost, "/snapshot/setup", `{"offset":-1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSnapshotController_Setup_UpstreamDown(t *testing.T) {
	sc, fetcher, _ := newSnapshotFixture(t, nil)
	fetcher.FailWith(context.DeadlineExceeded)

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)

	w := performRequest(r, http.MethodPost, "/snapshot/setup", "")
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504 for upstream timeout, got %d", w.Code)
	}

	var result repository.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.OK || result.Fault == nil {
		t.Errorf("expected a fault in the body, got %+v", result)
	}
	if result.Fault.Code != "TIMEOUT" {
		t.Errorf("expected TIMEOUT code, got %s", result.Fault.Code)
	}
}

func TestSnapshotController_Refresh(t *testing.T) {
	sc, _, _ := newSnapshotFixture(t, []catalog.RawPrototype{{ID: 7, Name: "seven"}})

	r := gin.New()
	r.POST("/snapshot/refresh", sc.Refresh)

	w := performRequest(r, http.MethodPost, "/snapshot/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSnapshotController_Stats(t *testing.T) {
	sc, _, _ := newSnapshotFixture(t, nil)

	r := gin.New()
	r.GET("/snapshot/stats", sc.Stats)

	w := performRequest(r, http.MethodGet, "/snapshot/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats cache.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Size != 0 || !stats.IsExpired {
		t.Errorf("expected empty expired snapshot, got %+v", stats)
	}
}

func TestSnapshotController_Clear(t *testing.T) {
	sc, _, store := newSnapshotFixture(t, []catalog.RawPrototype{{ID: 1, Name: "one"}})

	r := gin.New()
	r.POST("/snapshot/setup", sc.Setup)
	r.DELETE("/snapshot", sc.Clear)

	performRequest(r, http.MethodPost, "/snapshot/setup", "")
	if store.Size() != 1 {
		t.Fatal("setup did not populate the store")
	}

	w := performRequest(r, http.MethodDelete, "/snapshot", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.Size() != 0 {
		t.Errorf("expected empty store after clear, got %d", store.Size())
	}
}
