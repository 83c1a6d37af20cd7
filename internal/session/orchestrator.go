// Package session wires the state machine, snapshot store, sync client and
// connectivity monitor into one session lifecycle: initialize from fetch or
// recovered local state, drive the pure state machine from user actions,
// persist write-through on every change, and trigger the final sync exactly
// once.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"quizsync/internal/connectivity"
	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/engine"
	"quizsync/internal/logger"
	"quizsync/internal/store"
	"quizsync/internal/syncer"

	"go.uber.org/zap"
)

// SyncClient is the slice of the sync manager the orchestrator needs.
type SyncClient interface {
	FetchSession(ctx context.Context, sessionID string) (syncer.Session, error)
	SyncSession(ctx context.Context, state domain.QuizState) syncer.SyncResult
	Enqueue(state domain.QuizState)
	ProcessQueue(ctx context.Context) []syncer.SyncResult
}

// SyncStatusKind is the user-visible sync state for notifications.
type SyncStatusKind string

const (
	SyncStatusSyncing SyncStatusKind = "syncing"
	SyncStatusSynced  SyncStatusKind = "synced"
	SyncStatusError   SyncStatusKind = "error"
	SyncStatusOffline SyncStatusKind = "offline"
)

// Summary is passed to OnCompleted after the session ends.
type Summary struct {
	Score          int
	TotalQuestions int
	TimeSpentMs    int64
}

// Callbacks observe session lifecycle moments. All are optional and are
// invoked synchronously; keep them fast.
type Callbacks struct {
	OnSyncStatusChange func(SyncStatusKind)
	OnAnswerSubmitted  func(questionID string, answer domain.QuizAnswer)
	OnCompleted        func(Summary)
}

// Orchestrator owns one quiz session end to end. The state machine itself
// is pure; the orchestrator serializes event dispatch behind a mutex and
// performs all I/O around it.
type Orchestrator struct {
	sessionID string
	snapshots store.SnapshotStore
	sync      SyncClient
	monitor   *connectivity.Monitor
	callbacks Callbacks
	clock     func() time.Time

	mu          sync.Mutex
	state       domain.QuizState
	initialized bool

	// completionLatch guards the final sync against duplicate triggers
	// (double-clicked finish buttons, repeated completion effects).
	completionLatch atomic.Bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMonitor attaches a connectivity monitor. Without one the session is
// assumed online.
func WithMonitor(m *connectivity.Monitor) Option {
	return func(o *Orchestrator) { o.monitor = m }
}

// WithCallbacks registers lifecycle callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(o *Orchestrator) { o.callbacks = cb }
}

// WithClock injects a clock for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// NewOrchestrator builds the session lifecycle around a snapshot store and
// sync client. One Orchestrator serves exactly one session.
func NewOrchestrator(sessionID string, snapshots store.SnapshotStore, syncClient SyncClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessionID: sessionID,
		snapshots: snapshots,
		sync:      syncClient,
		clock:     time.Now,
		state:     domain.NewQuizState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize performs the session-entry sequence: recover any usable local
// snapshot, fetch the session (the protocol's single read), initialize the
// state machine, then replay answers. Recovered local answers take priority
// over server-reported ones, since local state may be more recent.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	snapshot, snapErr := o.snapshots.Load(ctx, o.sessionID)
	recovered := snapErr == nil

	fetched, err := o.sync.FetchSession(ctx, o.sessionID)
	if err != nil {
		return err
	}
	if len(fetched.Questions) == 0 {
		return domain.NewEmptyQuestionSetError(o.sessionID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = engine.Transition(o.state, engine.Initialize{
		SessionID: o.sessionID,
		Questions: fetched.Questions,
		Config:    fetched.Config,
		Online:    o.online(),
	})
	o.initialized = true

	answers := fetched.ExistingAnswers
	if recovered {
		answers = recoveredAnswers(snapshot)
		logger.Get().Info("Recovered local session state",
			zap.String("sessionID", o.sessionID),
			zap.Int("answers", len(answers)))
	}

	if len(answers) > 0 {
		// Sessions with prior answers were already started somewhere.
		startAt := o.nowMillis()
		if recovered && snapshot.StartedAt != 0 {
			startAt = snapshot.StartedAt
		}
		o.state = engine.Transition(o.state, engine.Start{At: startAt})
		for _, a := range answers {
			// Replaying through the state machine recomputes correctness
			// from the fetched option data instead of trusting the disk.
			o.state = engine.Transition(o.state, engine.SubmitAnswer{
				QuestionID:       a.QuestionID,
				SelectedOptionID: a.SelectedOptionID,
				TimeSpentMs:      a.TimeSpentMs,
				At:               a.SubmittedAt,
			})
		}
	}

	if recovered {
		o.state = engine.Transition(o.state, engine.Navigate{Index: snapshot.CurrentIndex})
		if snapshot.Status == string(domain.StatusPaused) {
			o.state = engine.Transition(o.state, engine.Pause{})
		}
	}

	o.persistLocked(ctx)
	return nil
}

func recoveredAnswers(snapshot dto.StateSnapshot) []domain.QuizAnswer {
	answers := make([]domain.QuizAnswer, 0, len(snapshot.Answers))
	for _, p := range snapshot.Answers {
		answers = append(answers, domain.QuizAnswer{
			QuestionID:       p.QuestionID,
			SelectedOptionID: p.Answer.SelectedOptionID,
			IsCorrect:        p.Answer.IsCorrect,
			SubmittedAt:      p.Answer.Timestamp,
			TimeSpentMs:      p.Answer.TimeSpentMs,
		})
	}
	return answers
}

// Start begins the quiz.
func (o *Orchestrator) Start(ctx context.Context) {
	o.dispatch(ctx, engine.Start{At: o.nowMillis()})
}

// Pause suspends the quiz.
func (o *Orchestrator) Pause(ctx context.Context) {
	o.dispatch(ctx, engine.Pause{})
}

// Resume continues a paused quiz.
func (o *Orchestrator) Resume(ctx context.Context) {
	o.dispatch(ctx, engine.Resume{})
}

// SubmitAnswer records an answer and returns the instant local verdict.
// The second return is false when the question id is unknown or the
// session no longer accepts answers.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, questionID, selectedOptionID string, timeSpent time.Duration) (bool, bool) {
	o.mu.Lock()
	if o.state.Status.Terminal() {
		o.mu.Unlock()
		return false, false
	}
	o.state = engine.Transition(o.state, engine.SubmitAnswer{
		QuestionID:       questionID,
		SelectedOptionID: selectedOptionID,
		TimeSpentMs:      timeSpent.Milliseconds(),
		At:               o.nowMillis(),
	})
	// Only an unknown question id leaves the answer set without an entry;
	// any recorded submission, including a byte-identical resubmission that
	// still accumulated time, is accepted and persisted.
	answer, accepted := o.state.Answers[questionID]
	if accepted {
		o.persistLocked(ctx)
	}
	o.mu.Unlock()

	if accepted && o.callbacks.OnAnswerSubmitted != nil {
		o.callbacks.OnAnswerSubmitted(questionID, answer)
	}
	return answer.IsCorrect, accepted
}

// Navigate moves the cursor; out-of-range indexes are ignored.
func (o *Orchestrator) Navigate(ctx context.Context, index int) {
	o.dispatch(ctx, engine.Navigate{Index: index})
}

// Next advances to the next question if there is one.
func (o *Orchestrator) Next(ctx context.Context) bool {
	o.mu.Lock()
	ok := engine.CanNavigateNext(o.state)
	index := o.state.CurrentIndex + 1
	o.mu.Unlock()
	if ok {
		o.Navigate(ctx, index)
	}
	return ok
}

// Previous moves to the previous question if there is one.
func (o *Orchestrator) Previous(ctx context.Context) bool {
	o.mu.Lock()
	ok := engine.CanNavigatePrevious(o.state)
	index := o.state.CurrentIndex - 1
	o.mu.Unlock()
	if ok {
		o.Navigate(ctx, index)
	}
	return ok
}

// Complete ends the session and triggers the protocol's single batched
// write. The one-shot latch makes duplicate triggers harmless: the first
// call performs the network sequence, later calls either retry a failed
// sync or return an already-synced success without touching the network.
func (o *Orchestrator) Complete(ctx context.Context) syncer.SyncResult {
	firstTrigger := o.completionLatch.CompareAndSwap(false, true)

	o.mu.Lock()
	if !firstTrigger && !o.state.SyncStatus.PendingChanges {
		// Completed and synced already; duplicate trigger.
		o.mu.Unlock()
		return syncer.SyncResult{Success: true, Timestamp: o.nowMillis()}
	}
	o.state = engine.Transition(o.state, engine.Complete{At: o.nowMillis()})
	o.persistLocked(ctx)
	snapshot := o.state
	o.mu.Unlock()

	if !o.online() {
		o.sync.Enqueue(snapshot)
		o.notify(SyncStatusOffline)
		logger.Get().Info("Offline at completion, sync queued",
			zap.String("sessionID", o.sessionID))
		return syncer.SyncResult{
			Success:   false,
			Timestamp: o.nowMillis(),
			Err:       domain.NewNetworkFailureError("Offline, sync queued for retry", nil),
		}
	}

	o.notify(SyncStatusSyncing)
	result := o.sync.SyncSession(ctx, snapshot)
	if domain.IsCode(result.Err, domain.ErrSyncInProgress) {
		// A concurrent completion owns the sync; it applies the outcome.
		// Nacking here could overwrite that call's ack and resurrect a
		// snapshot it already retired.
		return result
	}
	o.applySyncResult(ctx, result)
	return result
}

// FlushQueue drains deferred syncs, typically after connectivity returns.
func (o *Orchestrator) FlushQueue(ctx context.Context) {
	results := o.sync.ProcessQueue(ctx)
	if len(results) == 0 {
		return
	}
	o.applySyncResult(ctx, results[len(results)-1])
}

// applySyncResult reports the sync outcome back into the state machine and
// retires or keeps the local snapshot accordingly.
func (o *Orchestrator) applySyncResult(ctx context.Context, result syncer.SyncResult) {
	o.mu.Lock()
	if result.Success {
		o.state = engine.Transition(o.state, engine.SyncAck{At: result.Timestamp})
		// Successful completion retires the local copy.
		if err := o.snapshots.Delete(ctx, o.sessionID); err != nil {
			logger.Get().Warn("Failed to delete snapshot after sync",
				zap.String("sessionID", o.sessionID), zap.Error(err))
		}
	} else {
		// Keep the snapshot; pendingChanges stays true so a later
		// attempt can retry. Quiz interaction is never blocked on this.
		o.state = engine.Transition(o.state, engine.SyncNack{})
		o.persistLocked(ctx)
	}
	summary := Summary{
		Score:          o.state.Progress.Correct,
		TotalQuestions: o.state.TotalQuestions(),
		TimeSpentMs:    o.state.Timing.TotalTimeSpentMs,
	}
	completed := o.state.Status.Terminal()
	o.mu.Unlock()

	if result.Success {
		o.notify(SyncStatusSynced)
		if completed && o.callbacks.OnCompleted != nil {
			o.callbacks.OnCompleted(summary)
		}
	} else {
		o.notify(SyncStatusError)
		logger.Get().Warn("Sync failed, progress saved locally",
			zap.String("sessionID", o.sessionID), zap.Error(result.Err))
	}
}

// Run consumes connectivity transitions until ctx ends, keeping the state
// machine's online flag current and flushing queued syncs when the network
// returns. No-op without a monitor.
func (o *Orchestrator) Run(ctx context.Context) {
	if o.monitor == nil {
		return
	}
	o.monitor.Start(ctx)
	go func() {
		for change := range o.monitor.Updates() {
			o.dispatch(ctx, engine.SetOnline{Online: change.Online})
			if change.Online {
				o.FlushQueue(ctx)
			} else {
				o.notify(SyncStatusOffline)
			}
		}
	}()
}

// State returns a snapshot of the current session state.
func (o *Orchestrator) State() domain.QuizState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.state
	state.Answers = o.state.CloneAnswers()
	return state
}

// CurrentQuestion returns the question at the navigation cursor.
func (o *Orchestrator) CurrentQuestion() (domain.QuizQuestion, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return engine.CurrentQuestion(o.state)
}

// Progress returns the derived progress counters.
func (o *Orchestrator) Progress() domain.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Progress
}

// dispatch runs a mutating event through the state machine unless the
// session is terminal, persisting write-through afterwards.
func (o *Orchestrator) dispatch(ctx context.Context, ev engine.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Status.Terminal() {
		if _, ok := ev.(engine.SetOnline); !ok {
			return
		}
	}
	o.state = engine.Transition(o.state, ev)
	o.persistLocked(ctx)
}

// persistLocked writes the current state through to the snapshot store.
// Failures are logged, never propagated: losing a snapshot write must not
// break the in-memory session.
func (o *Orchestrator) persistLocked(ctx context.Context) {
	if !o.initialized {
		return
	}
	snapshot := dto.SnapshotFromState(o.state, o.nowMillis())
	if err := o.snapshots.Save(ctx, snapshot); err != nil {
		logger.Get().Warn("Failed to persist session snapshot",
			zap.String("sessionID", o.sessionID), zap.Error(err))
	}
}

func (o *Orchestrator) online() bool {
	if o.monitor == nil {
		return true
	}
	return o.monitor.Online()
}

func (o *Orchestrator) notify(kind SyncStatusKind) {
	if o.callbacks.OnSyncStatusChange != nil {
		o.callbacks.OnSyncStatusChange(kind)
	}
}

func (o *Orchestrator) nowMillis() int64 {
	return domain.NowMillis(o.clock())
}
