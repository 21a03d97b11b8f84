package services

import (
	"strings"
	"sync"
	"time"

	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// FolderCache maps (parentFolderID, folderName) to a remote folder id.
// Entries are hints, never authoritative: every consumer must tolerate the
// backend rejecting a cached id. The cache is rebuildable from the backend,
// so eviction is unconditional: a periodic full sweep plus targeted
// invalidation, no LRU.
type FolderCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewFolderCache() *FolderCache {
	return &FolderCache{entries: make(map[string]string)}
}

func cacheKey(parentID, name string) string {
	return parentID + ":" + name
}

// Get returns the cached folder id for (parentID, name).
func (c *FolderCache) Get(parentID, name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[cacheKey(parentID, name)]
	return id, ok
}

// Put stores the winner of a resolution. Concurrent resolutions for the
// same key may both call Put; last write wins, which is safe because both
// ids point at real backend folders.
func (c *FolderCache) Put(parentID, name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(parentID, name)] = id
}

// Invalidate drops the entry for (parentID, name) if present.
func (c *FolderCache) Invalidate(parentID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(parentID, name))
}

// InvalidateMatching drops every entry whose key contains substr and
// returns how many were removed.
func (c *FolderCache) InvalidateMatching(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if strings.Contains(key, substr) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the cache and returns the number of evicted entries.
func (c *FolderCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := len(c.entries)
	c.entries = make(map[string]string)
	return evicted
}

// Len returns the number of live entries.
func (c *FolderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweeper clears the whole cache on a fixed interval. Returns a stop
// function; stopping is idempotent.
func (c *FolderCache) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				if evicted := c.Clear(); evicted > 0 {
					logger.Info("Folder cache swept", "evicted", evicted)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
