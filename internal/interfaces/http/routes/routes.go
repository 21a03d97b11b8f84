package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/wexpcoder/roadcrew/internal/application/services"
	"github.com/wexpcoder/roadcrew/internal/interfaces/http/handlers"
)

// SetupRoutes builds the admin API router.
func SetupRoutes(container *services.ServiceContainer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	admin := handlers.NewAdminHandler(container.Cache, container.Roster)

	router.GET("/healthz", admin.Health)

	v1 := router.Group("/api/v1")
	{
		v1.DELETE("/cache", admin.ClearCache)
		v1.DELETE("/cache/entries", admin.InvalidateCacheEntries)
		v1.GET("/roster", admin.Roster)
	}

	return router
}
