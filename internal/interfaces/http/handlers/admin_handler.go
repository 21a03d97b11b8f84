package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wexpcoder/roadcrew/internal/application/services"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// AdminHandler exposes the operator surface: health, cache eviction and
// the current roster.
type AdminHandler struct {
	cache  *services.FolderCache
	roster *services.RosterService
}

func NewAdminHandler(cache *services.FolderCache, roster *services.RosterService) *AdminHandler {
	return &AdminHandler{cache: cache, roster: roster}
}

func (h *AdminHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"cacheEntries": h.cache.Len(),
	})
}

// ClearCache evicts every folder cache entry.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	evicted := h.cache.Clear()
	logger.Info("Folder cache cleared by operator", "evicted", evicted)
	c.JSON(http.StatusOK, gin.H{"evicted": evicted})
}

// InvalidateCacheEntries evicts entries whose key contains the match
// substring.
func (h *AdminHandler) InvalidateCacheEntries(c *gin.Context) {
	match := c.Query("match")
	if match == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'match' is required"})
		return
	}
	evicted := h.cache.InvalidateMatching(match)
	logger.Info("Folder cache entries invalidated by operator", "match", match, "evicted", evicted)
	c.JSON(http.StatusOK, gin.H{"evicted": evicted, "match": match})
}

// Roster returns the currently scheduled usernames.
func (h *AdminHandler) Roster(c *gin.Context) {
	usernames, err := h.roster.Usernames(c.Request.Context())
	if err != nil {
		logger.Error("Failed to read roster", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"usernames": usernames,
		"count":     len(usernames),
	})
}
