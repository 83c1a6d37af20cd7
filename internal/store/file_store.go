package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/logger"

	"go.uber.org/zap"
)

// FileStore keeps one JSON snapshot file per session under a base
// directory. It is the default adapter for desktop/kiosk targets where the
// "client-local durable store" is the filesystem.
type FileStore struct {
	dir    string
	maxAge time.Duration
	clock  func() time.Time
}

// NewFileStore creates the base directory if needed. A non-positive maxAge
// falls back to DefaultMaxAge.
func NewFileStore(dir string, maxAge time.Duration) (*FileStore, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewInternalError("Failed to create snapshot directory", err)
	}
	return &FileStore{dir: dir, maxAge: maxAge, clock: time.Now}, nil
}

// Save writes the snapshot atomically (temp file + rename) so a crash mid
// write never corrupts the previous snapshot.
func (s *FileStore) Save(_ context.Context, snapshot dto.StateSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return domain.NewInternalError("Failed to encode snapshot", err)
	}

	path := s.path(snapshot.SessionID)
	tmp, err := os.CreateTemp(s.dir, "snapshot-*.tmp")
	if err != nil {
		return domain.NewInternalError("Failed to create temp snapshot file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return domain.NewInternalError("Failed to write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.NewInternalError("Failed to close snapshot file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return domain.NewInternalError("Failed to move snapshot into place", err)
	}
	return nil
}

// Load reads and validates the snapshot for a session. Corrupted, foreign
// and stale snapshots are removed and reported as not found.
func (s *FileStore) Load(_ context.Context, sessionID string) (dto.StateSnapshot, error) {
	path := s.path(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
		}
		return dto.StateSnapshot{}, domain.NewInternalError("Failed to read snapshot", err)
	}

	var snapshot dto.StateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logger.Get().Warn("Discarding corrupted snapshot",
			zap.String("sessionID", sessionID), zap.Error(err))
		os.Remove(path)
		return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
	}

	if err := validateSnapshot(snapshot, sessionID, s.maxAge, s.clock()); err != nil {
		logger.Get().Debug("Discarding unusable snapshot",
			zap.String("sessionID", sessionID), zap.Error(err))
		os.Remove(path)
		return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

// Delete removes the snapshot for a session. Missing files are not an
// error.
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	if err := os.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return domain.NewInternalError("Failed to delete snapshot", err)
	}
	return nil
}

// Sweep removes every snapshot last saved before the horizon. It exists for
// housekeeping of abandoned sessions and returns the number of files
// removed.
func (s *FileStore) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, domain.NewInternalError("Failed to list snapshot directory", err)
	}

	cutoff := domain.NowMillis(s.clock().Add(-olderThan))
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snapshot dto.StateSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil || snapshot.LastSavedAt < cutoff {
			// Corrupted entries are swept along with aged ones.
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", sanitize(sessionID)))
}

// sanitize keeps session ids filesystem-safe.
func sanitize(sessionID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, sessionID)
}
