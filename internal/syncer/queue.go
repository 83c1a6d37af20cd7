package syncer

import (
	"context"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/logger"
	"quizsync/internal/util"

	"go.uber.org/zap"
)

// Queue mode: callers stage a prepared payload instead of syncing
// immediately (e.g. while offline) and drain later. Draining is strict
// FIFO; a failed entry goes back to the front and processing stops, so
// replay order is preserved.

type queueEntry struct {
	id    string // ULID, for log correlation
	batch dto.BatchSubmissionRequest
}

// Enqueue stages the session's current answers for a deferred sync.
func (c *Client) Enqueue(state domain.QuizState) {
	entry := queueEntry{
		id:    util.NewULID(),
		batch: prepareBatch(state),
	}
	c.mu.Lock()
	c.queue = append(c.queue, entry)
	depth := len(c.queue)
	c.mu.Unlock()

	logger.Get().Debug("Enqueued deferred sync",
		zap.String("sessionID", state.SessionID),
		zap.String("entryID", entry.id),
		zap.Int("queueDepth", depth))
}

// ProcessQueue drains the queue in FIFO order, stopping at the first
// failure and re-queueing that entry at the front. It returns one result
// per processed entry.
func (c *Client) ProcessQueue(ctx context.Context) []SyncResult {
	var results []SyncResult

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return results
		}
		entry := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		result := c.performSync(ctx, entry.batch)
		results = append(results, result)

		if !result.Success {
			c.mu.Lock()
			c.queue = append([]queueEntry{entry}, c.queue...)
			c.mu.Unlock()
			logger.Get().Warn("Deferred sync failed, re-queued at front",
				zap.String("entryID", entry.id),
				zap.Error(result.Err))
			return results
		}
	}
}

// HasPending reports whether a sync is queued or in flight.
func (c *Client) HasPending() bool {
	c.mu.Lock()
	queued := len(c.queue) > 0
	c.mu.Unlock()
	return queued || c.inFlight.Load()
}

// ClearQueue drops every queued entry.
func (c *Client) ClearQueue() {
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
}

// Stats describes the client's current sync activity.
type Stats struct {
	QueueLength int
	InFlight    bool
	MaxRetries  int
}

// GetStats returns a point-in-time view of queue depth and flight status.
func (c *Client) GetStats() Stats {
	c.mu.Lock()
	depth := len(c.queue)
	c.mu.Unlock()
	return Stats{
		QueueLength: depth,
		InFlight:    c.inFlight.Load(),
		MaxRetries:  c.opts.MaxRetries,
	}
}
