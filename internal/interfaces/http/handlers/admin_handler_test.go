package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wexpcoder/roadcrew/internal/application/services"
)

func newTestRouter(cache *services.FolderCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(cache, nil)
	router := gin.New()
	router.GET("/healthz", h.Health)
	router.DELETE("/api/v1/cache", h.ClearCache)
	router.DELETE("/api/v1/cache/entries", h.InvalidateCacheEntries)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestAdminHandler_Health(t *testing.T) {
	cache := services.NewFolderCache()
	cache.Put("ROOT", "2025-06-01", "id-1")
	router := newTestRouter(cache)

	w, body := doRequest(t, router, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["status"] != "ok" || body["cacheEntries"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestAdminHandler_ClearCache(t *testing.T) {
	cache := services.NewFolderCache()
	cache.Put("ROOT", "2025-06-01", "id-1")
	cache.Put("ROOT", "2025-06-02", "id-2")
	router := newTestRouter(cache)

	w, body := doRequest(t, router, http.MethodDelete, "/api/v1/cache")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["evicted"] != float64(2) {
		t.Errorf("evicted = %v, want 2", body["evicted"])
	}
	if cache.Len() != 0 {
		t.Errorf("cache not empty after clear: %d", cache.Len())
	}
}

func TestAdminHandler_InvalidateCacheEntries(t *testing.T) {
	cache := services.NewFolderCache()
	cache.Put("date-1", "alice_42", "id-1")
	cache.Put("date-1", "bob_7", "id-2")
	router := newTestRouter(cache)

	w, body := doRequest(t, router, http.MethodDelete, "/api/v1/cache/entries?match=alice")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["evicted"] != float64(1) {
		t.Errorf("evicted = %v, want 1", body["evicted"])
	}
	if cache.Len() != 1 {
		t.Errorf("expected one surviving entry, got %d", cache.Len())
	}

	w, _ = doRequest(t, router, http.MethodDelete, "/api/v1/cache/entries")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing match should be 400, got %d", w.Code)
	}
}
