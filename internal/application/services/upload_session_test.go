package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	svcerrors "github.com/wexpcoder/roadcrew/internal/shared/errors"
)

func newSessionService(t *testing.T, storage *fakeStorage) *UploadSessionService {
	t.Helper()
	resolver := NewFolderResolver(storage, NewFolderCache())
	coordinator := NewUploadCoordinator(storage, t.TempDir())
	svc := NewUploadSessionService(resolver, coordinator, storage, "ROOT", "admin@example.com",
		time.UTC, 4, []string{"image/jpeg", "image/png"})
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	}
	return svc
}

func jpegBatch(t *testing.T, author entities.Author, count int) entities.AuthorBatch {
	t.Helper()
	srv := photoServer(t)
	batch := entities.AuthorBatch{Author: author}
	for i := 0; i < count; i++ {
		batch.Attachments = append(batch.Attachments, entities.Attachment{
			ID:          fmt.Sprintf("%s-%d", author.ID, i),
			URL:         fmt.Sprintf("%s/%s-%d.jpg", srv.URL, author.ID, i),
			FileName:    fmt.Sprintf("%s-%d.jpg", author.ID, i),
			ContentType: "image/jpeg",
		})
	}
	return batch
}

func TestUploadSession_EndToEnd(t *testing.T) {
	storage := newFakeStorage()
	svc := newSessionService(t, storage)
	alice := entities.Author{ID: "42", DisplayName: "alice"}

	report, err := svc.RunSession(context.Background(),
		[]entities.AuthorBatch{jpegBatch(t, alice, 4)})
	if err != nil {
		t.Fatalf("RunSession() error = %v", err)
	}

	if report.DateKey != "2025-06-01" {
		t.Errorf("date key = %s, want 2025-06-01", report.DateKey)
	}
	if report.SuccessCount != 4 || report.FailureCount != 0 {
		t.Errorf("report = %d/%d, want 4/0", report.SuccessCount, report.FailureCount)
	}
	if _, _, folders, files := storage.counts(); folders != 2 || files != 4 {
		t.Errorf("expected 2 folder creates (date + user) and 4 file creates, got %d/%d", folders, files)
	}
	if _, ok := report.ByAuthor["alice_42"]; !ok {
		t.Errorf("missing per-author breakdown: %+v", report.ByAuthor)
	}
	if got := svc.Summary(report); got != "Success: All 4 photos uploaded successfully." {
		t.Errorf("Summary() = %q", got)
	}
}

func TestUploadSession_DateFolderFailureIsFatal(t *testing.T) {
	storage := newFakeStorage()
	storage.listOverride = func(string, string) ([]contracts.Metadata, error) {
		return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeBackendUnavailable, "down")
	}
	svc := newSessionService(t, storage)

	_, err := svc.RunSession(context.Background(),
		[]entities.AuthorBatch{jpegBatch(t, entities.Author{ID: "42", DisplayName: "alice"}, 4)})
	if err == nil {
		t.Fatal("expected session-fatal error when the date folder cannot be resolved")
	}
	if _, _, _, files := storage.counts(); files != 0 {
		t.Errorf("uploads ran despite missing date folder: %d", files)
	}
}

func TestUploadSession_SkippedAuthorDoesNotAbortOthers(t *testing.T) {
	storage := newFakeStorage()
	svc := newSessionService(t, storage)

	// Author folder resolution fails for bob on both attempts; alice is
	// untouched.
	listCalls := 0
	storage.listOverride = func(parentID, name string) ([]contracts.Metadata, error) {
		listCalls++
		if name == "bob_7" {
			return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeBackendUnavailable, "down")
		}
		return nil, nil
	}

	alice := jpegBatch(t, entities.Author{ID: "42", DisplayName: "alice"}, 4)
	bob := jpegBatch(t, entities.Author{ID: "7", DisplayName: "bob"}, 4)

	report, err := svc.RunSession(context.Background(), []entities.AuthorBatch{bob, alice})
	if err != nil {
		t.Fatalf("RunSession() error = %v", err)
	}
	if len(report.SkippedAuthors) != 1 || report.SkippedAuthors[0] != "bob_7" {
		t.Errorf("SkippedAuthors = %v, want [bob_7]", report.SkippedAuthors)
	}
	if report.SuccessCount != 4 {
		t.Errorf("alice's uploads = %d, want 4", report.SuccessCount)
	}
}

func TestUploadSession_SharesNewDateFolderOnce(t *testing.T) {
	storage := newFakeStorage()
	svc := newSessionService(t, storage)
	alice := entities.Author{ID: "42", DisplayName: "alice"}

	if _, err := svc.RunSession(context.Background(),
		[]entities.AuthorBatch{jpegBatch(t, alice, 4)}); err != nil {
		t.Fatalf("first RunSession() error = %v", err)
	}
	if _, err := svc.RunSession(context.Background(),
		[]entities.AuthorBatch{jpegBatch(t, alice, 4)}); err != nil {
		t.Fatalf("second RunSession() error = %v", err)
	}

	// Only the first session created the date folder, so only it shares.
	storage.mu.Lock()
	grants := storage.grantCalls
	storage.mu.Unlock()
	if grants != 1 {
		t.Errorf("grant calls = %d, want 1", grants)
	}
}

func TestUploadSession_EligibleAttachments(t *testing.T) {
	svc := newSessionService(t, newFakeStorage())
	atts := []entities.Attachment{
		{ID: "1", ContentType: "image/jpeg"},
		{ID: "2", ContentType: "application/pdf"},
		{ID: "3", ContentType: "image/png"},
		{ID: "4", ContentType: "video/mp4"},
	}
	eligible := svc.EligibleAttachments(atts)
	if len(eligible) != 2 {
		t.Fatalf("EligibleAttachments() kept %d, want 2", len(eligible))
	}
	if eligible[0].ID != "1" || eligible[1].ID != "3" {
		t.Errorf("wrong attachments kept: %+v", eligible)
	}

	if svc.MeetsThreshold(3) {
		t.Error("3 photos must not meet the default threshold of 4")
	}
	if !svc.MeetsThreshold(4) {
		t.Error("4 photos must meet the threshold")
	}
}

func TestUploadSession_SummaryWording(t *testing.T) {
	svc := newSessionService(t, newFakeStorage())

	tests := []struct {
		name    string
		report  *entities.SessionReport
		want    string
	}{
		{
			name:   "nothing processed",
			report: entities.NewSessionReport("2025-06-01"),
			want:   "No eligible photos were processed.",
		},
		{
			name: "all succeeded",
			report: &entities.SessionReport{
				SuccessCount: 3,
				ByAuthor:     map[string]entities.BatchReport{},
			},
			want: "Success: All 3 photos uploaded successfully.",
		},
		{
			name: "partial",
			report: &entities.SessionReport{
				SuccessCount: 2,
				FailureCount: 1,
				ByAuthor:     map[string]entities.BatchReport{},
			},
			want: "Partial success: 2 photos uploaded, 1 photos failed.",
		},
		{
			name: "total failure",
			report: &entities.SessionReport{
				FailureCount: 3,
				ByAuthor:     map[string]entities.BatchReport{},
			},
			want: "Error: Failed to upload all photos. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.Summary(tt.report); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
