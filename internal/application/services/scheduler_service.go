package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/config"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// SchedulerService drives the two daily jobs: the evening roster-to-role
// sync and the morning role rotation. Results are posted to the task
// channel.
type SchedulerService struct {
	cfg      *config.SchedulerConfig
	roles    *RoleService
	notifier contracts.Notifier
	channel  string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

func NewSchedulerService(cfg *config.SchedulerConfig, roles *RoleService, notifier contracts.Notifier, taskChannelID string) *SchedulerService {
	return &SchedulerService{
		cfg:      cfg,
		roles:    roles,
		notifier: notifier,
		channel:  taskChannelID,
		cron:     cron.New(),
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *SchedulerService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.cfg.Enabled {
		logger.Info("Scheduler disabled by config")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.RosterSyncCron, s.runRosterSync); err != nil {
		return fmt.Errorf("invalid roster sync cron %q: %w", s.cfg.RosterSyncCron, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.RoleRotateCron, s.runRoleRotate); err != nil {
		return fmt.Errorf("invalid role rotate cron %q: %w", s.cfg.RoleRotateCron, err)
	}

	s.cron.Start()
	s.running = true
	logger.Info("Scheduler started",
		"rosterSync", s.cfg.RosterSyncCron, "roleRotate", s.cfg.RoleRotateCron)
	return nil
}

// Stop halts the cron loop. Running jobs finish.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.cron.Stop()
		s.running = false
		logger.Info("Scheduler stopped")
	}
}

func (s *SchedulerService) runRosterSync() {
	logger.Info("Running scheduled roster sync")
	report, err := s.roles.SyncTomorrow(context.Background())
	if err != nil {
		logger.Error("Scheduled roster sync failed", "error", err)
		s.notify("An error occurred while running the schedule.")
		return
	}
	s.notify(fmt.Sprintf("✅ Success! Added %d drivers for tomorrow. Drivers removed: %d",
		report.Assigned, report.Removed))
}

func (s *SchedulerService) runRoleRotate() {
	logger.Info("Running scheduled role rotation")
	report, err := s.roles.Rotate(context.Background())
	if err != nil {
		logger.Error("Scheduled role rotation failed", "error", err)
		s.notify("An error occurred while assigning roles.")
		return
	}
	s.notify(fmt.Sprintf("✅ Completed! Removed active role from %d drivers & assigned to %d others.",
		report.Cleaned, report.Promoted))
}

func (s *SchedulerService) notify(text string) {
	if s.notifier == nil || s.channel == "" {
		return
	}
	if err := s.notifier.SendMessage(s.channel, text); err != nil {
		logger.Error("Failed to post task summary", "channelID", s.channel, "error", err)
	}
}
