package services

import (
	"fmt"
	"time"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/config"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/repository"
)

// ServiceContainer wires the application services once at startup.
type ServiceContainer struct {
	Cache     *FolderCache
	Resolver  *FolderResolver
	Uploads   *UploadCoordinator
	Sessions  *UploadSessionService
	Roster    *RosterService
	Roles     *RoleService
	Scheduler *SchedulerService

	stopSweeper func()
}

func NewServiceContainer(cfg *config.Config, storage contracts.StorageClient, directory contracts.ChatDirectory, notifier contracts.Notifier, repo *repository.RosterRepository) (*ServiceContainer, error) {
	location, err := time.LoadLocation(cfg.Upload.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Upload.Timezone, err)
	}

	cache := NewFolderCache()
	resolver := NewFolderResolver(storage, cache)
	uploads := NewUploadCoordinator(storage, cfg.Upload.ScratchDir)
	sessions := NewUploadSessionService(resolver, uploads, storage,
		cfg.Drive.RootFolderID, cfg.Drive.AdminEmail, location, cfg.Upload.MinPhotos, cfg.Upload.AllowedTypes)
	roster := NewRosterService(repo, cfg.Upload.ScratchDir, location)
	roles := NewRoleService(directory, roster, cfg.Roles.TomorrowRole, cfg.Roles.ActiveRole)
	scheduler := NewSchedulerService(&cfg.Scheduler, roles, notifier, cfg.Discord.TaskChannelID)

	c := &ServiceContainer{
		Cache:     cache,
		Resolver:  resolver,
		Uploads:   uploads,
		Sessions:  sessions,
		Roster:    roster,
		Roles:     roles,
		Scheduler: scheduler,
	}
	if cfg.Cache.SweepInterval > 0 {
		c.stopSweeper = cache.StartSweeper(cfg.Cache.SweepInterval)
	}
	return c, nil
}

// Shutdown stops background work owned by the container.
func (c *ServiceContainer) Shutdown() {
	if c.stopSweeper != nil {
		c.stopSweeper()
	}
	c.Scheduler.Stop()
}
