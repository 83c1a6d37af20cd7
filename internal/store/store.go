// Package store persists per-session state snapshots to a client-local
// durable store. The engine only sees the SnapshotStore port; file and redis
// adapters satisfy the same contract.
package store

import (
	"context"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
)

// DefaultMaxAge is the freshness threshold beyond which a snapshot is
// treated as absent.
const DefaultMaxAge = 24 * time.Hour

// SnapshotStore is the storage port for session snapshots. Load returns
// domain.ErrSnapshotNotFound when no snapshot exists, when the stored
// snapshot belongs to a different session, or when it is older than the
// store's freshness threshold; callers never see stale data.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot dto.StateSnapshot) error
	Load(ctx context.Context, sessionID string) (dto.StateSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// validateSnapshot applies the shared acceptance rules for a loaded
// snapshot.
func validateSnapshot(snapshot dto.StateSnapshot, sessionID string, maxAge time.Duration, now time.Time) error {
	if snapshot.SessionID != sessionID {
		return domain.ErrSnapshotNotFound
	}
	cutoff := domain.NowMillis(now.Add(-maxAge))
	if snapshot.LastSavedAt <= cutoff {
		return domain.NewError(domain.ErrSnapshotStale,
			"Snapshot is older than the freshness threshold", nil)
	}
	return nil
}
