package contracts

import (
	"context"
	"io"
)

// Metadata is the subset of backend object metadata the services need.
type Metadata struct {
	ID          string
	Name        string
	MimeType    string
	CreatedTime string
}

// StorageClient is the remote storage collaborator. All calls are
// network-bound and fallible; implementations classify failures with the
// shared error codes (NOT_FOUND, BACKEND_UNAVAILABLE, AMBIGUOUS_STATE).
type StorageClient interface {
	// GetMetadata fetches metadata for an object by id. Returns a NOT_FOUND
	// service error when the object does not exist or is inaccessible.
	GetMetadata(ctx context.Context, id string) (*Metadata, error)

	// ListChildren lists non-trashed child folders of parentID whose name
	// matches exactly. The result may be empty; a malformed backend response
	// yields an AMBIGUOUS_STATE error.
	ListChildren(ctx context.Context, parentID, name string) ([]Metadata, error)

	// CreateFolder creates a folder under parentID and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// CreateFile uploads content as a new file under parentID and returns
	// the new file id.
	CreateFile(ctx context.Context, name, mimeType, parentID string, content io.Reader) (string, error)

	// GrantPermission shares an object with a principal.
	GrantPermission(ctx context.Context, id, role, email string) error
}
