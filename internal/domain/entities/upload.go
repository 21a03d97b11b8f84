package entities

import "fmt"

// Author identifies the chat user a batch of attachments belongs to.
type Author struct {
	ID          string
	DisplayName string
}

// FolderName returns the per-user folder name, displayName_userID.
func (a Author) FolderName() string {
	return fmt.Sprintf("%s_%s", a.DisplayName, a.ID)
}

// Attachment is one inbound file reference from a chat message.
type Attachment struct {
	ID          string
	URL         string
	FileName    string
	ContentType string
}

// AuthorBatch groups the attachments contributed by a single author.
type AuthorBatch struct {
	Author      Author
	Attachments []Attachment
}

// UploadStatus is the terminal state of one attachment upload.
type UploadStatus string

const (
	UploadSuccess UploadStatus = "success"
	UploadFailed  UploadStatus = "failed"
)

// UploadOutcome records the result of processing one attachment.
type UploadOutcome struct {
	AttachmentID string
	FileName     string
	Status       UploadStatus
	RemoteFileID string
	ErrorDetail  string
}

// BatchReport accumulates outcomes for one author's batch.
type BatchReport struct {
	SuccessCount int
	FailureCount int
	Outcomes     []UploadOutcome
}

// Total is the number of attachments processed.
func (r BatchReport) Total() int {
	return r.SuccessCount + r.FailureCount
}

// RecordSuccess appends a successful outcome.
func (r *BatchReport) RecordSuccess(att Attachment, remoteID string) {
	r.SuccessCount++
	r.Outcomes = append(r.Outcomes, UploadOutcome{
		AttachmentID: att.ID,
		FileName:     att.FileName,
		Status:       UploadSuccess,
		RemoteFileID: remoteID,
	})
}

// RecordFailure appends a failed outcome with its diagnostic detail.
func (r *BatchReport) RecordFailure(att Attachment, detail string) {
	r.FailureCount++
	r.Outcomes = append(r.Outcomes, UploadOutcome{
		AttachmentID: att.ID,
		FileName:     att.FileName,
		Status:       UploadFailed,
		ErrorDetail:  detail,
	})
}

// SessionReport merges the per-author reports of one upload session.
type SessionReport struct {
	DateKey        string
	SuccessCount   int
	FailureCount   int
	ByAuthor       map[string]BatchReport
	SkippedAuthors []string
}

// NewSessionReport creates an empty report for the given date key.
func NewSessionReport(dateKey string) *SessionReport {
	return &SessionReport{
		DateKey:  dateKey,
		ByAuthor: make(map[string]BatchReport),
	}
}

// Total is the number of attachments processed across all authors. Skipped
// authors' attachments are not counted.
func (r *SessionReport) Total() int {
	return r.SuccessCount + r.FailureCount
}

// Merge folds one author's batch report into the session totals.
func (r *SessionReport) Merge(author Author, batch BatchReport) {
	r.SuccessCount += batch.SuccessCount
	r.FailureCount += batch.FailureCount
	r.ByAuthor[author.FolderName()] = batch
}

// Skip marks an author whose folder could not be resolved; none of their
// attachments were processed.
func (r *SessionReport) Skip(author Author) {
	r.SkippedAuthors = append(r.SkippedAuthors, author.FolderName())
}
