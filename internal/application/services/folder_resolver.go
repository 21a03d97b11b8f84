package services

import (
	"context"

	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	svcerrors "github.com/wexpcoder/roadcrew/internal/shared/errors"
	"github.com/wexpcoder/roadcrew/pkg/logger"
	"github.com/wexpcoder/roadcrew/pkg/utils"
)

// FolderPicker selects which folder wins when the backend holds several
// with the same name under one parent. The backend has no uniqueness
// constraint, so duplicates can accumulate; the picker makes the choice
// deterministic instead of silently masking it.
type FolderPicker func([]contracts.Metadata) contracts.Metadata

// FirstMatch keeps the backend's own ordering.
func FirstMatch(candidates []contracts.Metadata) contracts.Metadata {
	return candidates[0]
}

// PreferOldest picks the folder with the earliest creation time, falling
// back to first match when timestamps are missing.
func PreferOldest(candidates []contracts.Metadata) contracts.Metadata {
	best := candidates[0]
	bestAt := utils.ParseDriveTime(best.CreatedTime)
	for _, c := range candidates[1:] {
		at := utils.ParseDriveTime(c.CreatedTime)
		if bestAt.IsZero() {
			best, bestAt = c, at
			continue
		}
		if !at.IsZero() && at.Before(bestAt) {
			best, bestAt = c, at
		}
	}
	return best
}

// FolderResolver turns a logical (name, parent) pair into a verified
// backend folder id: cache hint first, then backend search, then creation.
//
// Known race: two concurrent first resolutions for the same key can both
// miss the search and both create, leaving two same-named folders. The
// backend offers no compare-and-create, so this is accepted as a bounded
// risk rather than hidden behind a lock; the picker keeps later
// resolutions deterministic.
type FolderResolver struct {
	storage contracts.StorageClient
	cache   *FolderCache
	pick    FolderPicker
}

func NewFolderResolver(storage contracts.StorageClient, cache *FolderCache) *FolderResolver {
	return &FolderResolver{
		storage: storage,
		cache:   cache,
		pick:    FirstMatch,
	}
}

// SetPicker overrides the duplicate-folder policy.
func (r *FolderResolver) SetPicker(pick FolderPicker) {
	if pick != nil {
		r.pick = pick
	}
}

// Resolve returns a folder id for name under parentID.
//
// With forceRefresh the cached entry is dropped before resolution, so the
// result can never be a pre-call cache value. If the subsequent search
// fails the dropped entry is not restored; the cache is rebuildable, so
// the loss costs a later re-resolution, never correctness.
func (r *FolderResolver) Resolve(ctx context.Context, name, parentID string, forceRefresh bool) (*entities.ResolvedFolder, error) {
	if forceRefresh {
		r.cache.Invalidate(parentID, name)
	}

	if id, ok := r.cache.Get(parentID, name); ok {
		meta, err := r.storage.GetMetadata(ctx, id)
		if err == nil && meta != nil {
			return &entities.ResolvedFolder{
				FolderID:       id,
				ParentFolderID: parentID,
				FolderName:     name,
				Verified:       true,
			}, nil
		}
		if svcerrors.IsBackendUnavailable(err) {
			return nil, err
		}
		// Stale entry: the id no longer verifies. Invalidate and fall
		// through to search; the same id is never retried.
		logger.Warn("Cached folder id failed verification",
			"name", name, "parentId", parentID, "folderId", id, "error", err)
		r.cache.Invalidate(parentID, name)
	}

	candidates, err := r.storage.ListChildren(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		chosen := r.pick(candidates)
		if len(candidates) > 1 {
			logger.Warn("Duplicate folders for name, picking one",
				"name", name, "parentId", parentID, "count", len(candidates), "chosen", chosen.ID)
		}
		r.cache.Put(parentID, name, chosen.ID)
		return &entities.ResolvedFolder{
			FolderID:       chosen.ID,
			ParentFolderID: parentID,
			FolderName:     name,
			Verified:       true,
		}, nil
	}

	id, err := r.storage.CreateFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	logger.Info("Created folder", "name", name, "parentId", parentID, "folderId", id)
	r.cache.Put(parentID, name, id)
	return &entities.ResolvedFolder{
		FolderID:       id,
		ParentFolderID: parentID,
		FolderName:     name,
		Verified:       true,
		Created:        true,
	}, nil
}

// resolveAttempts bounds the retry policy: one plain attempt, one forced
// refresh.
const resolveAttempts = 2

// ResolveWithRefresh applies the uniform retry policy: a failed first
// attempt is retried exactly once with forceRefresh, covering transient
// stale-cache states.
func (r *FolderResolver) ResolveWithRefresh(ctx context.Context, name, parentID string) (*entities.ResolvedFolder, error) {
	var lastErr error
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		folder, err := r.Resolve(ctx, name, parentID, attempt > 0)
		if err == nil {
			return folder, nil
		}
		lastErr = err
		logger.Warn("Folder resolution attempt failed",
			"name", name, "parentId", parentID, "attempt", attempt+1, "error", err)
		// A malformed backend response is not transient; retrying would
		// just repeat it.
		if svcerrors.IsAmbiguousState(err) {
			break
		}
	}
	return nil, lastErr
}
