package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	svcerrors "github.com/wexpcoder/roadcrew/internal/shared/errors"
)

// fakeStorage is an in-memory StorageClient with call counters and
// injectable failures, shared by the resolver, coordinator and session
// tests.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]contracts.Metadata
	parents map[string]string
	nextID  int

	getCalls          int
	listCalls         int
	createFolderCalls int
	createFileCalls   int
	grantCalls        int

	getErr       map[string]error
	listOverride func(parentID, name string) ([]contracts.Metadata, error)
	createErr    error
	fileErr      error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string]contracts.Metadata),
		parents: make(map[string]string),
		getErr:  make(map[string]error),
	}
}

func (f *fakeStorage) addFolder(id, name, parentID, created string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = contracts.Metadata{ID: id, Name: name, MimeType: "application/vnd.google-apps.folder", CreatedTime: created}
	f.parents[id] = parentID
}

func (f *fakeStorage) GetMetadata(_ context.Context, id string) (*contracts.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err, ok := f.getErr[id]; ok {
		return nil, err
	}
	if meta, ok := f.objects[id]; ok {
		return &meta, nil
	}
	return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeNotFound, "object missing")
}

func (f *fakeStorage) ListChildren(_ context.Context, parentID, name string) ([]contracts.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listOverride != nil {
		return f.listOverride(parentID, name)
	}
	var out []contracts.Metadata
	for id, meta := range f.objects {
		if f.parents[id] == parentID && meta.Name == name && meta.MimeType == "application/vnd.google-apps.folder" {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (f *fakeStorage) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFolderCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("folder-%d", f.nextID)
	f.objects[id] = contracts.Metadata{ID: id, Name: name, MimeType: "application/vnd.google-apps.folder"}
	f.parents[id] = parentID
	return id, nil
}

func (f *fakeStorage) CreateFile(_ context.Context, name, mimeType, parentID string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFileCalls++
	if f.fileErr != nil {
		return "", f.fileErr
	}
	f.nextID++
	id := fmt.Sprintf("file-%d", f.nextID)
	f.objects[id] = contracts.Metadata{ID: id, Name: name, MimeType: mimeType}
	f.parents[id] = parentID
	return id, nil
}

func (f *fakeStorage) GrantPermission(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grantCalls++
	return nil
}

func (f *fakeStorage) counts() (get, list, folder, file int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.listCalls, f.createFolderCalls, f.createFileCalls
}

func TestFolderResolver_CacheMissCreatesExactlyOnce(t *testing.T) {
	storage := newFakeStorage()
	resolver := NewFolderResolver(storage, NewFolderCache())

	folder, err := resolver.Resolve(context.Background(), "2025-06-01", "ROOT", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if folder.FolderID == "" || !folder.Verified {
		t.Errorf("unexpected resolved folder: %+v", folder)
	}
	if _, list, create, _ := storage.counts(); list != 1 || create != 1 {
		t.Errorf("expected 1 search and 1 create, got list=%d create=%d", list, create)
	}
}

func TestFolderResolver_IdempotentResolution(t *testing.T) {
	storage := newFakeStorage()
	resolver := NewFolderResolver(storage, NewFolderCache())
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "2025-06-01", "ROOT", false)
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := resolver.Resolve(ctx, "2025-06-01", "ROOT", false)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if first.FolderID != second.FolderID {
		t.Errorf("ids differ: %s vs %s", first.FolderID, second.FolderID)
	}
	if _, _, create, _ := storage.counts(); create != 1 {
		t.Errorf("expected exactly 1 create, got %d", create)
	}
}

func TestFolderResolver_SearchHitSkipsCreate(t *testing.T) {
	storage := newFakeStorage()
	storage.addFolder("existing", "2025-06-01", "ROOT", "")
	resolver := NewFolderResolver(storage, NewFolderCache())

	folder, err := resolver.Resolve(context.Background(), "2025-06-01", "ROOT", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if folder.FolderID != "existing" {
		t.Errorf("expected existing folder, got %s", folder.FolderID)
	}
	if _, _, create, _ := storage.counts(); create != 0 {
		t.Errorf("expected no create, got %d", create)
	}
}

func TestFolderResolver_StaleCacheSelfHeal(t *testing.T) {
	storage := newFakeStorage()
	cache := NewFolderCache()
	resolver := NewFolderResolver(storage, cache)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "alice_42", "date-folder", false)
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}

	// Delete the folder out-of-band; the cached id now points at nothing.
	storage.mu.Lock()
	delete(storage.objects, first.FolderID)
	delete(storage.parents, first.FolderID)
	storage.mu.Unlock()

	second, err := resolver.Resolve(ctx, "alice_42", "date-folder", false)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if second.FolderID == first.FolderID {
		t.Errorf("stale id %s was handed back to the caller", first.FolderID)
	}
	if id, ok := cache.Get("date-folder", "alice_42"); !ok || id != second.FolderID {
		t.Errorf("cache not updated after self-heal: id=%s ok=%v", id, ok)
	}
}

func TestFolderResolver_BackendUnavailableOnProbePropagates(t *testing.T) {
	storage := newFakeStorage()
	cache := NewFolderCache()
	cache.Put("ROOT", "2025-06-01", "cached-id")
	storage.getErr["cached-id"] = svcerrors.NewServiceError(svcerrors.ErrorCodeBackendUnavailable, "down")
	resolver := NewFolderResolver(storage, cache)

	_, err := resolver.Resolve(context.Background(), "2025-06-01", "ROOT", false)
	if !svcerrors.IsBackendUnavailable(err) {
		t.Fatalf("expected BACKEND_UNAVAILABLE, got %v", err)
	}
	// Transport failure must not evict the possibly-good entry.
	if _, ok := cache.Get("ROOT", "2025-06-01"); !ok {
		t.Error("cache entry evicted on transport failure")
	}
}

func TestFolderResolver_ForcedRefreshBypassesCache(t *testing.T) {
	storage := newFakeStorage()
	storage.addFolder("real-folder", "2025-06-01", "ROOT", "")
	cache := NewFolderCache()
	// The cached value verifies fine, but forceRefresh must ignore it.
	cache.Put("ROOT", "2025-06-01", "stale-cached")
	storage.addFolder("stale-cached", "2025-06-01", "ELSEWHERE", "")
	resolver := NewFolderResolver(storage, cache)

	folder, err := resolver.Resolve(context.Background(), "2025-06-01", "ROOT", true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if folder.FolderID == "stale-cached" {
		t.Errorf("forceRefresh returned the pre-call cache value")
	}
	if get, _, _, _ := storage.counts(); get != 0 {
		t.Errorf("forceRefresh probed the cached id anyway (%d get calls)", get)
	}
}

func TestFolderResolver_AmbiguousStateNotRetried(t *testing.T) {
	storage := newFakeStorage()
	storage.listOverride = func(string, string) ([]contracts.Metadata, error) {
		return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeAmbiguousState, "response missing file list")
	}
	resolver := NewFolderResolver(storage, NewFolderCache())

	_, err := resolver.ResolveWithRefresh(context.Background(), "2025-06-01", "ROOT")
	if !svcerrors.IsAmbiguousState(err) {
		t.Fatalf("expected AMBIGUOUS_STATE, got %v", err)
	}
	if _, list, _, _ := storage.counts(); list != 1 {
		t.Errorf("ambiguous state was retried: %d list calls", list)
	}
}

func TestFolderResolver_RetryRecoversAfterTransientFailure(t *testing.T) {
	storage := newFakeStorage()
	failures := 1
	storage.listOverride = func(parentID, name string) ([]contracts.Metadata, error) {
		if failures > 0 {
			failures--
			return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeBackendUnavailable, "down")
		}
		return nil, nil
	}
	resolver := NewFolderResolver(storage, NewFolderCache())

	folder, err := resolver.ResolveWithRefresh(context.Background(), "alice_42", "date-folder")
	if err != nil {
		t.Fatalf("ResolveWithRefresh() error = %v", err)
	}
	if folder.FolderID == "" {
		t.Error("expected a created folder id")
	}
}

func TestPreferOldest(t *testing.T) {
	candidates := []contracts.Metadata{
		{ID: "b", CreatedTime: "2025-06-02T10:00:00Z"},
		{ID: "a", CreatedTime: "2025-06-01T10:00:00Z"},
		{ID: "c", CreatedTime: ""},
	}
	if got := PreferOldest(candidates).ID; got != "a" {
		t.Errorf("PreferOldest() = %s, want a", got)
	}
	if got := FirstMatch(candidates).ID; got != "b" {
		t.Errorf("FirstMatch() = %s, want b", got)
	}
}
