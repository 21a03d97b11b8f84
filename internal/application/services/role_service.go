package services

import (
	"context"
	"strings"
	"time"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// rolePace spaces out role mutations so a large guild does not trip the
// chat platform's rate limits.
const rolePace = time.Second

// RoleService runs the daily role rotation: the roster grants the
// "tomorrow" role in the evening, which the morning rotation converts into
// the active-driver role.
type RoleService struct {
	directory    contracts.ChatDirectory
	roster       *RosterService
	tomorrowRole string
	activeRole   string
	pace         time.Duration
}

func NewRoleService(directory contracts.ChatDirectory, roster *RosterService, tomorrowRole, activeRole string) *RoleService {
	return &RoleService{
		directory:    directory,
		roster:       roster,
		tomorrowRole: tomorrowRole,
		activeRole:   activeRole,
		pace:         rolePace,
	}
}

// SyncReport summarizes one roster-to-role synchronization.
type SyncReport struct {
	Assigned int
	Removed  int
	NotFound int
}

// SyncTomorrow reconciles the tomorrow role with the persisted roster:
// members on the roster gain it, members holding it without being on the
// roster lose it.
func (s *RoleService) SyncTomorrow(ctx context.Context) (*SyncReport, error) {
	usernames, err := s.roster.Usernames(ctx)
	if err != nil {
		return nil, err
	}
	scheduled := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		scheduled[strings.ToLower(u)] = true
	}

	roleID, err := s.directory.RoleID(ctx, s.tomorrowRole)
	if err != nil {
		return nil, err
	}
	members, err := s.directory.Members(ctx)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	byName := make(map[string]contracts.ChatMember, len(members))
	for _, m := range members {
		byName[strings.ToLower(m.Username)] = m
		if hasRole(m, roleID) && !scheduled[strings.ToLower(m.Username)] {
			if err := s.directory.RemoveRole(ctx, m.ID, roleID); err != nil {
				logger.Error("Failed to remove role", "username", m.Username, "role", s.tomorrowRole, "error", err)
				continue
			}
			report.Removed++
			s.sleep(ctx)
		}
	}

	for _, u := range usernames {
		m, ok := byName[strings.ToLower(u)]
		if !ok {
			report.NotFound++
			logger.Warn("Scheduled user not found in guild", "username", u)
			continue
		}
		if hasRole(m, roleID) {
			continue
		}
		if err := s.directory.AddRole(ctx, m.ID, roleID); err != nil {
			logger.Error("Failed to assign role", "username", u, "role", s.tomorrowRole, "error", err)
			continue
		}
		report.Assigned++
		s.sleep(ctx)
	}

	logger.Info("Roster sync complete",
		"assigned", report.Assigned, "removed", report.Removed, "notFound", report.NotFound)
	return report, nil
}

// RotateReport summarizes one morning rotation.
type RotateReport struct {
	Promoted int
	Cleaned  int
}

// Rotate promotes tomorrow-role holders to the active role and strips the
// active role from members no longer scheduled.
func (s *RoleService) Rotate(ctx context.Context) (*RotateReport, error) {
	tomorrowID, err := s.directory.RoleID(ctx, s.tomorrowRole)
	if err != nil {
		return nil, err
	}
	activeID, err := s.directory.RoleID(ctx, s.activeRole)
	if err != nil {
		return nil, err
	}
	members, err := s.directory.Members(ctx)
	if err != nil {
		return nil, err
	}

	report := &RotateReport{}
	for _, m := range members {
		if hasRole(m, activeID) && !hasRole(m, tomorrowID) {
			if err := s.directory.RemoveRole(ctx, m.ID, activeID); err != nil {
				logger.Error("Failed to clean active role", "username", m.Username, "error", err)
				continue
			}
			report.Cleaned++
			s.sleep(ctx)
		}
	}

	for _, m := range members {
		if !hasRole(m, tomorrowID) {
			continue
		}
		if !hasRole(m, activeID) {
			if err := s.directory.AddRole(ctx, m.ID, activeID); err != nil {
				logger.Error("Failed to assign active role", "username", m.Username, "error", err)
				continue
			}
			report.Promoted++
		}
		if err := s.directory.RemoveRole(ctx, m.ID, tomorrowID); err != nil {
			logger.Error("Failed to remove tomorrow role", "username", m.Username, "error", err)
		}
		s.sleep(ctx)
	}

	logger.Info("Role rotation complete", "promoted", report.Promoted, "cleaned", report.Cleaned)
	return report, nil
}

func (s *RoleService) sleep(ctx context.Context) {
	if s.pace <= 0 {
		return
	}
	select {
	case <-time.After(s.pace):
	case <-ctx.Done():
	}
}

func hasRole(m contracts.ChatMember, roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
