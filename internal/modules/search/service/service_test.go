package search

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/punjabready/portal-api/internal/entity"
)

// fakeMeili answers the handful of Meilisearch endpoints the index uses.
type fakeMeili struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	hits     []string
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/search") {
		hits := make([]map[string]string, 0, len(f.hits))
		for _, id := range f.hits {
			hits = append(hits, map[string]string{"id": id})
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits":               hits,
			"estimatedTotalHits": 42,
			"offset":             0,
			"limit":              len(hits),
			"processingTimeMs":   1,
			"query":              "flood",
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"taskUid":    7,
		"indexUid":   modulesIndex,
		"status":     "enqueued",
		"type":       "documentAdditionOrUpdate",
		"enqueuedAt": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
}

func (f *fakeMeili) saw(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == key {
			return true
		}
	}
	return false
}

func newIndex(t *testing.T, hits ...string) (ModuleIndex, *fakeMeili) {
	t.Helper()
	fake := &fakeMeili{bodies: map[string]string{}, hits: hits}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewMeiliModuleIndex(meilisearch.New(srv.URL, meilisearch.WithAPIKey("test"))), fake
}

func TestIndexAndDeleteModule(t *testing.T) {
	idx, fake := newIndex(t)
	if !fake.saw("PUT /indexes/modules/settings/searchable-attributes") {
		t.Errorf("searchable attributes not configured: %v", fake.requests)
	}

	m := &entity.Module{
		ID:          uuid.New(),
		Title:       "Flood evacuation drill",
		Description: "<b>Steps</b> for village sarpanch",
		Category:    "Flood Preparedness",
		Type:        entity.ModuleTypeYouTube,
		Status:      entity.ModuleStatusActive,
		CreatedAt:   time.Now(),
	}
	if err := idx.IndexModule(m); err != nil {
		t.Fatalf("IndexModule: %v", err)
	}
	doc := fake.bodies["POST /indexes/modules/documents"]
	if !strings.Contains(doc, m.ID.String()) || strings.Contains(doc, "<b>") {
		t.Errorf("indexed document = %s", doc)
	}

	if err := idx.DeleteModule(m.ID); err != nil {
		t.Fatalf("DeleteModule: %v", err)
	}
	if !fake.saw("DELETE /indexes/modules/documents/" + m.ID.String()) {
		t.Errorf("delete not sent: %v", fake.requests)
	}
}

func TestSearchModulesSkipsMalformedIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	idx, fake := newIndex(t, a.String(), "not-a-uuid", b.String())

	ids, total, err := idx.SearchModules(t.Context(), "flood", 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 42 || len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("ids = %v total = %d", ids, total)
	}

	var req struct {
		Q      string `json:"q"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(fake.bodies["POST /indexes/modules/search"]), &req); err != nil {
		t.Fatal(err)
	}
	if req.Q != "flood" || req.Offset != 20 || req.Limit != 10 {
		t.Errorf("search request = %+v", req)
	}
}
