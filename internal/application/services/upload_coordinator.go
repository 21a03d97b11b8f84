package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	"github.com/wexpcoder/roadcrew/pkg/httpclient"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// UploadCoordinator relays attachments from their source URLs into a
// destination folder: download to scratch, upload, verify, clean up.
// Attachments are processed strictly sequentially.
type UploadCoordinator struct {
	storage    contracts.StorageClient
	scratchDir string
}

func NewUploadCoordinator(storage contracts.StorageClient, scratchDir string) *UploadCoordinator {
	return &UploadCoordinator{
		storage:    storage,
		scratchDir: scratchDir,
	}
}

// UploadBatch processes every attachment and accumulates per-item
// outcomes. One attachment's failure never stops the rest of the batch.
func (u *UploadCoordinator) UploadBatch(ctx context.Context, attachments []entities.Attachment, destinationFolderID string) entities.BatchReport {
	var report entities.BatchReport
	for _, att := range attachments {
		remoteID, err := u.uploadOne(ctx, att, destinationFolderID)
		if err != nil {
			logger.Error("Attachment upload failed",
				"fileName", att.FileName, "folderId", destinationFolderID, "error", err)
			report.RecordFailure(att, err.Error())
			continue
		}
		logger.Info("Attachment uploaded",
			"fileName", att.FileName, "folderId", destinationFolderID, "remoteFileId", remoteID)
		report.RecordSuccess(att, remoteID)
	}
	return report
}

// uploadOne relays a single attachment. The scratch file is removed on
// every exit path; scratch files must never accumulate.
func (u *UploadCoordinator) uploadOne(ctx context.Context, att entities.Attachment, folderID string) (remoteID string, err error) {
	scratch := u.scratchPath(att)
	defer os.Remove(scratch)

	opts := httpclient.DefaultOptions().WithContext(ctx)
	if err := httpclient.DownloadFile(att.URL, scratch, opts); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	f, err := os.Open(scratch)
	if err != nil {
		return "", fmt.Errorf("failed to open scratch file: %w", err)
	}
	remoteID, err = u.storage.CreateFile(ctx, att.FileName, att.ContentType, folderID, f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	// Never report success for a write that cannot be read back.
	if _, err := u.storage.GetMetadata(ctx, remoteID); err != nil {
		return "", fmt.Errorf("verification failed for %s: %w", remoteID, err)
	}
	return remoteID, nil
}

// scratchPath namespaces the scratch file per attachment so concurrent
// sessions uploading same-named files cannot collide.
func (u *UploadCoordinator) scratchPath(att entities.Attachment) string {
	name := att.FileName
	if name == "" {
		name = "photo.jpg"
	}
	return filepath.Join(u.scratchDir, uuid.NewString()+"_"+sanitizeFileName(name))
}

// sanitizeFileName strips path separators so an attachment name cannot
// escape the scratch directory.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
}
