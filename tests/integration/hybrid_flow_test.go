package integration

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/session"
	"quizsync/internal/store"
	"quizsync/internal/syncer"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quizAPI is a minimal in-process quiz backend covering the three endpoints
// of the hybrid protocol.
type quizAPI struct {
	app           *fiber.App
	baseURL       string
	batchCalls    atomic.Int32
	completeCalls atomic.Int32
	completed     atomic.Bool
	lastBatch     atomic.Pointer[dto.BatchSubmissionRequest]
}

func startQuizAPI(t *testing.T) *quizAPI {
	t.Helper()
	api := &quizAPI{app: fiber.New(fiber.Config{DisableStartupMessage: true})}

	api.app.Get("/sessions/:id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"id": c.Params("id"),
				"questions": []fiber.Map{
					{
						"id":   "q1",
						"stem": "Which cell produces antibodies?",
						"question_options": []fiber.Map{
							{"id": "q1-a", "text": "Plasma cell", "is_correct": true},
							{"id": "q1-b", "text": "Neutrophil", "is_correct": false},
						},
					},
					{
						"id":   "q2",
						"stem": "Which granulocyte responds first to bacteria?",
						"question_options": []fiber.Map{
							{"id": "q2-a", "text": "Neutrophil", "is_correct": true},
							{"id": "q2-b", "text": "Basophil", "is_correct": false},
						},
					},
					{
						"id":   "q3",
						"stem": "Which cell presents antigen?",
						"question_options": []fiber.Map{
							{"id": "q3-a", "text": "Dendritic cell", "is_correct": true},
							{"id": "q3-b", "text": "Erythrocyte", "is_correct": false},
						},
					},
				},
				"config": fiber.Map{"mode": "tutor", "timing": "untimed"},
			},
		})
	})

	api.app.Post("/attempts/batch", func(c *fiber.Ctx) error {
		api.batchCalls.Add(1)
		if api.completed.Load() {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "SESSION_ALREADY_COMPLETED",
				"message": "Quiz session is already completed",
			})
		}
		var batch dto.BatchSubmissionRequest
		if err := c.BodyParser(&batch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		api.lastBatch.Store(&batch)
		return c.JSON(fiber.Map{"message": "ok"})
	})

	api.app.Post("/sessions/:id/complete", func(c *fiber.Ctx) error {
		api.completeCalls.Add(1)
		if !api.completed.CompareAndSwap(false, true) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "SESSION_ALREADY_COMPLETED",
				"message": "Quiz session is already completed",
			})
		}
		return c.JSON(fiber.Map{"message": "completed"})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go api.app.Listener(ln) //nolint:errcheck
	t.Cleanup(func() { _ = api.app.Shutdown() })

	api.baseURL = "http://" + ln.Addr().String()
	waitReachable(t, api.baseURL)
	return api
}

func waitReachable(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", baseURL[len("http://"):], 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("stub API never became reachable")
}

func newEngine(t *testing.T, api *quizAPI, dir string) (*session.Orchestrator, *store.FileStore) {
	t.Helper()
	snapshots, err := store.NewFileStore(dir, store.DefaultMaxAge)
	require.NoError(t, err)
	client := syncer.NewClient(syncer.Options{
		BaseURL:    api.baseURL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	return session.NewOrchestrator("sess-1", snapshots, client), snapshots
}

// TestHybridLifecycle drives the full two-call protocol end to end: one
// read at session entry, local-only interaction, one batched write at
// completion.
func TestHybridLifecycle(t *testing.T) {
	ctx := context.Background()
	api := startQuizAPI(t)
	engine, snapshots := newEngine(t, api, t.TempDir())

	require.NoError(t, engine.Initialize(ctx))
	engine.Start(ctx)

	correct, ok := engine.SubmitAnswer(ctx, "q1", "q1-a", 2*time.Second)
	require.True(t, ok)
	assert.True(t, correct)
	correct, ok = engine.SubmitAnswer(ctx, "q2", "q2-b", time.Second)
	require.True(t, ok)
	assert.False(t, correct)

	result := engine.Complete(ctx)
	require.True(t, result.Success)

	state := engine.State()
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.False(t, state.SyncStatus.PendingChanges)
	assert.Equal(t, domain.Progress{Answered: 2, Correct: 1, Incorrect: 1, Percentage: 67}, state.Progress)

	// Exactly one read and one batched write round.
	assert.EqualValues(t, 1, api.batchCalls.Load())
	assert.EqualValues(t, 1, api.completeCalls.Load())

	batch := api.lastBatch.Load()
	require.NotNil(t, batch)
	assert.Equal(t, "sess-1", batch.SessionID)
	require.Len(t, batch.Answers, 2)
	assert.Equal(t, "q1", batch.Answers[0].QuestionID)
	assert.EqualValues(t, 2, batch.Answers[0].TimeSpent)

	// Successful completion retires the local snapshot.
	_, err := snapshots.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

// TestDuplicateCompletionIsIdempotent restarts the engine after a completed
// sync and completes again; the server's "already completed" answer must
// surface as success.
func TestDuplicateCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api := startQuizAPI(t)
	dir := t.TempDir()

	engine, _ := newEngine(t, api, dir)
	require.NoError(t, engine.Initialize(ctx))
	engine.Start(ctx)
	engine.SubmitAnswer(ctx, "q1", "q1-a", time.Second)
	require.True(t, engine.Complete(ctx).Success)

	// A second engine (fresh process) knows nothing about the latch and
	// completes again.
	reborn, _ := newEngine(t, api, dir)
	require.NoError(t, reborn.Initialize(ctx))
	reborn.Start(ctx)
	reborn.SubmitAnswer(ctx, "q1", "q1-a", time.Second)

	result := reborn.Complete(ctx)
	assert.True(t, result.Success)
	// The batch endpoint rejected with "already completed" once; no retries.
	assert.EqualValues(t, 2, api.batchCalls.Load())
	assert.EqualValues(t, 1, api.completeCalls.Load())
}

// TestReloadRecovery simulates a page reload mid-quiz: a new engine over
// the same snapshot store resumes with the same answers and progress.
func TestReloadRecovery(t *testing.T) {
	ctx := context.Background()
	api := startQuizAPI(t)
	dir := t.TempDir()

	engine, _ := newEngine(t, api, dir)
	require.NoError(t, engine.Initialize(ctx))
	engine.Start(ctx)
	engine.SubmitAnswer(ctx, "q1", "q1-a", 2*time.Second)
	engine.SubmitAnswer(ctx, "q3", "q3-b", time.Second)
	engine.Navigate(ctx, 2)
	before := engine.State()

	reloaded, _ := newEngine(t, api, dir)
	require.NoError(t, reloaded.Initialize(ctx))
	after := reloaded.State()

	assert.Equal(t, before.Answers, after.Answers)
	assert.Equal(t, before.Progress, after.Progress)
	assert.Equal(t, 2, after.CurrentIndex)

	result := reloaded.Complete(ctx)
	require.True(t, result.Success)
	batch := api.lastBatch.Load()
	require.NotNil(t, batch)
	assert.Len(t, batch.Answers, 2)
}
