package store

import (
	"context"
	"encoding/json"
	"time"

	"quizsync/internal/cache"
	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements SnapshotStore against a local Redis instance.
// It serves deployments where the client host already runs Redis (kiosks,
// lab workstations) and snapshots should survive process restarts without
// touching the filesystem. Keys expire at the freshness threshold, so a
// stale snapshot is usually gone before Load ever sees it; the session and
// age checks remain as a second line.
type RedisStore struct {
	client *redis.Client
	maxAge time.Duration
	clock  func() time.Time
}

// NewRedisStore expects a connected *redis.Client.
func NewRedisStore(client *redis.Client, maxAge time.Duration) *RedisStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &RedisStore{client: client, maxAge: maxAge, clock: time.Now}
}

// Save stores the snapshot under the session key with the freshness TTL.
func (s *RedisStore) Save(ctx context.Context, snapshot dto.StateSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return domain.NewInternalError("Failed to encode snapshot", err)
	}
	key := cache.SessionStateKey(snapshot.SessionID)
	if err := s.client.Set(ctx, key, string(data), s.maxAge).Err(); err != nil {
		return domain.NewInternalError("Failed to write snapshot to redis", err)
	}
	return nil
}

// Load retrieves and validates the snapshot, translating redis.Nil to
// domain.ErrSnapshotNotFound.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (dto.StateSnapshot, error) {
	key := cache.SessionStateKey(sessionID)
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
		}
		return dto.StateSnapshot{}, domain.NewInternalError("Failed to read snapshot from redis", err)
	}

	var snapshot dto.StateSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		logger.Get().Warn("Discarding corrupted snapshot",
			zap.String("sessionID", sessionID), zap.Error(err))
		s.client.Del(ctx, key)
		return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
	}

	if err := validateSnapshot(snapshot, sessionID, s.maxAge, s.clock()); err != nil {
		logger.Get().Debug("Discarding unusable snapshot",
			zap.String("sessionID", sessionID), zap.Error(err))
		s.client.Del(ctx, key)
		return dto.StateSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

// Delete removes the snapshot. A missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cache.SessionStateKey(sessionID)).Err(); err != nil {
		return domain.NewInternalError("Failed to delete snapshot from redis", err)
	}
	return nil
}
