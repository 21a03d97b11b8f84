package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	"github.com/wexpcoder/roadcrew/pkg/logger"
	"github.com/wexpcoder/roadcrew/pkg/utils"
)

// UploadSessionService orchestrates one upload session: date folder, then
// per-author folders, then the batches. Resolution of the date folder is
// session-fatal; everything after degrades per author or per attachment.
type UploadSessionService struct {
	resolver     *FolderResolver
	coordinator  *UploadCoordinator
	storage      contracts.StorageClient
	rootFolderID string
	adminEmail   string
	location     *time.Location
	minPhotos    int
	allowedTypes map[string]bool
	now          func() time.Time
}

func NewUploadSessionService(resolver *FolderResolver, coordinator *UploadCoordinator, storage contracts.StorageClient, rootFolderID, adminEmail string, location *time.Location, minPhotos int, allowedTypes []string) *UploadSessionService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &UploadSessionService{
		resolver:     resolver,
		coordinator:  coordinator,
		storage:      storage,
		rootFolderID: rootFolderID,
		adminEmail:   adminEmail,
		location:     location,
		minPhotos:    minPhotos,
		allowedTypes: allowed,
		now:          time.Now,
	}
}

// EligibleAttachments filters a message's attachments down to the accepted
// image types.
func (s *UploadSessionService) EligibleAttachments(attachments []entities.Attachment) []entities.Attachment {
	var out []entities.Attachment
	for _, att := range attachments {
		if s.allowedTypes[att.ContentType] {
			out = append(out, att)
		}
	}
	return out
}

// MeetsThreshold reports whether enough eligible attachments arrived to
// trigger a session.
func (s *UploadSessionService) MeetsThreshold(count int) bool {
	return count >= s.minPhotos
}

// RunSession uploads every author's batch under today's date folder.
//
// Ordering is a true dependency chain: date folder before user folders,
// user folder before that author's uploads. A failed author resolution
// (after the forced-refresh retry) skips only that author.
func (s *UploadSessionService) RunSession(ctx context.Context, batches []entities.AuthorBatch) (*entities.SessionReport, error) {
	dateKey := utils.DateKey(s.now(), s.location)
	report := entities.NewSessionReport(dateKey)

	dateFolder, err := s.resolver.Resolve(ctx, dateKey, s.rootFolderID, false)
	if err != nil {
		// Nothing can proceed without the date folder.
		return nil, fmt.Errorf("failed to resolve date folder %s: %w", dateKey, err)
	}
	if dateFolder.Created && s.adminEmail != "" {
		// User folders inherit the parent's permissions, so sharing the
		// date folder covers the whole day.
		if err := s.storage.GrantPermission(ctx, dateFolder.FolderID, "writer", s.adminEmail); err != nil {
			logger.Warn("Failed to share date folder",
				"dateKey", dateKey, "folderId", dateFolder.FolderID, "error", err)
		}
	}

	for _, batch := range batches {
		if len(batch.Attachments) == 0 {
			continue
		}
		userFolder, err := s.resolver.ResolveWithRefresh(ctx, batch.Author.FolderName(), dateFolder.FolderID)
		if err != nil {
			logger.Error("Skipping author, folder resolution failed",
				"author", batch.Author.FolderName(), "dateFolderId", dateFolder.FolderID, "error", err)
			report.Skip(batch.Author)
			continue
		}
		batchReport := s.coordinator.UploadBatch(ctx, batch.Attachments, userFolder.FolderID)
		report.Merge(batch.Author, batchReport)
	}

	logger.Info("Upload session finished",
		"dateKey", dateKey,
		"success", report.SuccessCount,
		"failed", report.FailureCount,
		"skippedAuthors", len(report.SkippedAuthors))
	return report, nil
}

// Summary renders the end-of-session message. It distinguishes full
// success, partial success and total failure, and never claims success for
// an unverified upload.
func (s *UploadSessionService) Summary(report *entities.SessionReport) string {
	switch {
	case report.Total() == 0 && len(report.SkippedAuthors) == 0:
		return "No eligible photos were processed."
	case report.FailureCount == 0 && len(report.SkippedAuthors) == 0:
		return fmt.Sprintf("Success: All %d photos uploaded successfully.", report.SuccessCount)
	case report.SuccessCount > 0:
		return fmt.Sprintf("Partial success: %d photos uploaded, %d photos failed.", report.SuccessCount, report.FailureCount)
	default:
		return "Error: Failed to upload all photos. Please try again."
	}
}
