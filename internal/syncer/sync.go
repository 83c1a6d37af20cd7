package syncer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/logger"

	"go.uber.org/zap"
)

// SyncSession performs the single batched write of the protocol: submit
// every recorded answer in one batch, then mark the session complete. It is
// invoked at most once per completed session; a concurrent call while one
// is in flight fails fast with ErrSyncInProgress instead of queueing.
func (c *Client) SyncSession(ctx context.Context, state domain.QuizState) SyncResult {
	if !c.inFlight.CompareAndSwap(false, true) {
		return SyncResult{
			Success:   false,
			Timestamp: c.now(),
			Err:       domain.NewSyncInProgressError(),
		}
	}
	defer c.inFlight.Store(false)

	if c.opts.OnSyncStart != nil {
		c.opts.OnSyncStart()
	}

	result := c.performSync(ctx, prepareBatch(state))

	if result.Success {
		if c.opts.OnSyncSuccess != nil {
			c.opts.OnSyncSuccess(result)
		}
	} else if c.opts.OnSyncError != nil {
		c.opts.OnSyncError(result.Err)
	}
	return result
}

// prepareBatch flattens the answers mapping into the batch wire payload,
// ordered by question position. Wire timeSpent is seconds; the local model
// keeps milliseconds.
func prepareBatch(state domain.QuizState) dto.BatchSubmissionRequest {
	items := make([]dto.BatchAnswerItem, 0, len(state.Answers))
	for _, q := range state.Questions {
		a, ok := state.Answers[q.ID]
		if !ok {
			continue
		}
		items = append(items, dto.BatchAnswerItem{
			QuestionID:       a.QuestionID,
			SelectedAnswerID: a.SelectedOptionID,
			TimeSpent:        a.TimeSpentMs / 1000,
			Timestamp:        a.SubmittedAt,
		})
	}
	return dto.BatchSubmissionRequest{
		SessionID: state.SessionID,
		Answers:   items,
	}
}

// performSync runs the strictly sequential batch-submit then complete
// sequence, retrying the whole sequence with linear backoff. An "already
// completed" response at either step is idempotent success, never an error.
func (c *Client) performSync(ctx context.Context, batch dto.BatchSubmissionRequest) SyncResult {
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return SyncResult{Success: false, Timestamp: c.now(),
					Err: domain.NewNetworkFailureError("Sync canceled", ctx.Err())}
			case <-time.After(c.opts.RetryDelay * time.Duration(attempt-1)):
			}
		}

		result, retryable, err := c.syncOnce(ctx, batch)
		if err == nil {
			return result
		}
		lastErr = err
		logger.Get().Warn("Sync attempt failed",
			zap.String("sessionID", batch.SessionID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if !retryable {
			break
		}
	}

	return SyncResult{Success: false, Timestamp: c.now(), Err: lastErr}
}

// syncOnce performs one batch-submit + complete round. The bool return
// reports whether a failure is worth retrying.
func (c *Client) syncOnce(ctx context.Context, batch dto.BatchSubmissionRequest) (SyncResult, bool, error) {
	// Step 1: submit all answers in one batch. An empty answer set is a
	// valid batch.
	batchURL := fmt.Sprintf("%s/attempts/batch", c.opts.BaseURL)
	resp, body, err := c.post(ctx, batchURL, batch)
	if err != nil {
		return SyncResult{}, true, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isAlreadyCompleted(body) {
			logger.Get().Info("Session already completed at batch step, treating as success",
				zap.String("sessionID", batch.SessionID))
			return c.alreadyCompletedResult(), false, nil
		}
		return SyncResult{}, true, domain.NewNetworkFailureError(
			fmt.Sprintf("Batch submission returned status %d: %s", resp.StatusCode, truncate(body)), nil)
	}

	// Step 2: mark the session complete. Never attempted before the batch
	// has resolved.
	completeURL := fmt.Sprintf("%s/sessions/%s/complete", c.opts.BaseURL, batch.SessionID)
	resp, body, err = c.post(ctx, completeURL, nil)
	if err != nil {
		return SyncResult{}, true, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isAlreadyCompleted(body) {
			logger.Get().Info("Session already completed at completion step, treating as success",
				zap.String("sessionID", batch.SessionID))
			return c.alreadyCompletedResult(), false, nil
		}
		return SyncResult{}, true, domain.NewNetworkFailureError(
			fmt.Sprintf("Completion returned status %d: %s", resp.StatusCode, truncate(body)), nil)
	}

	var serverResponse dto.CompletionResponse
	if len(body) > 0 {
		// A non-JSON success body is tolerated; the completion stands.
		_ = json.Unmarshal(body, &serverResponse)
	}
	return SyncResult{
		Success:        true,
		Timestamp:      c.now(),
		ServerResponse: &serverResponse,
	}, false, nil
}

func (c *Client) alreadyCompletedResult() SyncResult {
	return SyncResult{
		Success:        true,
		Timestamp:      c.now(),
		ServerResponse: &dto.CompletionResponse{Message: "Session was already completed"},
	}
}

// post sends a JSON (optionally gzipped) POST and returns the response and
// fully read body.
func (c *Client) post(ctx context.Context, url string, payload any) (*http.Response, []byte, error) {
	var reqBody io.Reader
	gzipped := false
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, domain.NewInternalError("Failed to encode request", err)
		}
		if c.opts.EnableCompression {
			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			if _, err := gw.Write(data); err == nil && gw.Close() == nil {
				reqBody = &buf
				gzipped = true
			} else {
				reqBody = bytes.NewReader(data)
			}
		} else {
			reqBody = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, domain.NewNetworkFailureError("Request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, domain.NewNetworkFailureError("Failed to read response", err)
	}
	return resp, body, nil
}

// isAlreadyCompleted detects the idempotency conflict. The structured
// error code is authoritative; the substring check remains only for servers
// that answer with prose.
func isAlreadyCompleted(body []byte) bool {
	var apiErr dto.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Code == string(domain.ErrSessionAlreadyCompleted) {
			return true
		}
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "already completed")
}

func truncate(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
