package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(sessionID string, savedAt int64) dto.StateSnapshot {
	return dto.StateSnapshot{
		SessionID: sessionID,
		Answers: []dto.AnswerPair{
			{QuestionID: "q1", Answer: dto.AnswerSnapshot{
				QuestionID:       "q1",
				SelectedOptionID: "q1-a",
				IsCorrect:        true,
				Timestamp:        1000,
				TimeSpentMs:      500,
			}},
		},
		Progress:         dto.ProgressSnapshot{Answered: 1, Correct: 1, Percentage: 50},
		CurrentIndex:     1,
		Status:           string(domain.StatusInProgress),
		TotalTimeSpentMs: 500,
		LastSavedAt:      savedAt,
	}
}

func newTestFileStore(t *testing.T, now time.Time) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), DefaultMaxAge)
	require.NoError(t, err)
	fs.clock = func() time.Time { return now }
	return fs
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	fs := newTestFileStore(t, now)

	saved := testSnapshot("sess-1", domain.NowMillis(now))
	require.NoError(t, fs.Save(ctx, saved))

	loaded, err := fs.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestFileStore_Load(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("missing snapshot", func(t *testing.T) {
		fs := newTestFileStore(t, now)
		_, err := fs.Load(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("stale snapshot is discarded", func(t *testing.T) {
		fs := newTestFileStore(t, now)
		old := testSnapshot("sess-1", domain.NowMillis(now.Add(-25*time.Hour)))
		require.NoError(t, fs.Save(ctx, old))

		_, err := fs.Load(ctx, "sess-1")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

		// The unusable file is gone, not just skipped.
		_, statErr := os.Stat(fs.path("sess-1"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("fresh snapshot within threshold is accepted", func(t *testing.T) {
		fs := newTestFileStore(t, now)
		recent := testSnapshot("sess-1", domain.NowMillis(now.Add(-23*time.Hour)))
		require.NoError(t, fs.Save(ctx, recent))

		loaded, err := fs.Load(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, recent, loaded)
	})

	t.Run("corrupted snapshot is discarded", func(t *testing.T) {
		fs := newTestFileStore(t, now)
		require.NoError(t, os.WriteFile(fs.path("sess-1"), []byte("{not json"), 0o644))

		_, err := fs.Load(ctx, "sess-1")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	fs := newTestFileStore(t, now)

	require.NoError(t, fs.Save(ctx, testSnapshot("sess-1", domain.NowMillis(now))))
	require.NoError(t, fs.Delete(ctx, "sess-1"))

	_, err := fs.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	// Deleting again is not an error.
	assert.NoError(t, fs.Delete(ctx, "sess-1"))
}

func TestFileStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	fs := newTestFileStore(t, now)

	require.NoError(t, fs.Save(ctx, testSnapshot("old", domain.NowMillis(now.Add(-8*24*time.Hour)))))
	require.NoError(t, fs.Save(ctx, testSnapshot("fresh", domain.NowMillis(now))))
	require.NoError(t, os.WriteFile(filepath.Join(fs.dir, "junk.json"), []byte("broken"), 0o644))

	removed, err := fs.Sweep(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = fs.Load(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc-123_x", sanitize("abc-123_x"))
	assert.Equal(t, "a_b_c", sanitize("a/b:c"))
}
