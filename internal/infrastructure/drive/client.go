package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/config"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/ratelimit"
	svcerrors "github.com/wexpcoder/roadcrew/internal/shared/errors"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client wraps the Google Drive API behind the StorageClient contract.
type Client struct {
	svc         *drive.Service
	rateLimiter *ratelimit.RateLimiter
}

var _ contracts.StorageClient = (*Client)(nil)

// NewClient builds a Drive client authenticated with a service account
// credentials file and scoped to files the account created.
func NewClient(ctx context.Context, cfg *config.DriveConfig) (*Client, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{
		svc:         svc,
		rateLimiter: ratelimit.NewRateLimiter(cfg.QPS),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.rateLimiter == nil {
		return nil
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return svcerrors.NewServiceErrorWithCause(svcerrors.ErrorCodeTimeout, "rate limit wait aborted", err)
	}
	return nil
}

// classify maps a Drive API error onto the shared taxonomy. Missing and
// inaccessible objects both count as NOT_FOUND so cached ids pointing at
// them get invalidated rather than retried.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 404 || gerr.Code == 403:
			return svcerrors.NewServiceErrorWithCause(svcerrors.ErrorCodeNotFound, op+": object missing or inaccessible", err)
		case gerr.Code >= 500:
			return svcerrors.NewServiceErrorWithCause(svcerrors.ErrorCodeBackendUnavailable, op+": backend error", err)
		default:
			return svcerrors.NewServiceErrorWithCause(svcerrors.ErrorCodeBackendUnavailable, op+": request rejected", err)
		}
	}
	return svcerrors.NewServiceErrorWithCause(svcerrors.ErrorCodeBackendUnavailable, op+": transport failure", err)
}

func (c *Client) GetMetadata(ctx context.Context, id string) (*contracts.Metadata, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	f, err := c.svc.Files.Get(id).
		Fields("id, name, mimeType, createdTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("get metadata", err)
	}
	if f == nil || f.Id == "" {
		return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeAmbiguousState, "get metadata: empty response").
			WithDetail("id", id)
	}
	return &contracts.Metadata{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		CreatedTime: f.CreatedTime,
	}, nil
}

func (c *Client) ListChildren(ctx context.Context, parentID, name string) ([]contracts.Metadata, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQueryTerm(name), escapeQueryTerm(parentID), folderMimeType)
	resp, err := c.svc.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, createdTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("list children", err)
	}
	if resp == nil || resp.Files == nil {
		return nil, svcerrors.NewServiceError(svcerrors.ErrorCodeAmbiguousState, "list children: response missing file list").
			WithDetail("parentId", parentID).
			WithDetail("name", name)
	}
	out := make([]contracts.Metadata, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, contracts.Metadata{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			CreatedTime: f.CreatedTime,
		})
	}
	return out, nil
}

func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	f, err := c.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", classify("create folder", err)
	}
	if f == nil || f.Id == "" {
		return "", svcerrors.NewServiceError(svcerrors.ErrorCodeAmbiguousState, "create folder: response missing id").
			WithDetail("name", name)
	}
	return f.Id, nil
}

func (c *Client) CreateFile(ctx context.Context, name, mimeType, parentID string, content io.Reader) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}
	f, err := c.svc.Files.Create(meta).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("create file", err)
	}
	if f == nil || f.Id == "" {
		return "", svcerrors.NewServiceError(svcerrors.ErrorCodeAmbiguousState, "create file: response missing id").
			WithDetail("name", name)
	}
	return f.Id, nil
}

func (c *Client) GrantPermission(ctx context.Context, id, role, email string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	perm := &drive.Permission{
		Role:         role,
		Type:         "user",
		EmailAddress: email,
	}
	if _, err := c.svc.Permissions.Create(id, perm).Context(ctx).Do(); err != nil {
		return classify("grant permission", err)
	}
	return nil
}

// escapeQueryTerm escapes single quotes for Drive query strings.
func escapeQueryTerm(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
