package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"quizsync/internal/domain"
	"quizsync/internal/dto"
	"quizsync/internal/logger"

	"go.uber.org/zap"
)

// FetchSession performs the single read of the protocol:
// GET {base}/sessions/{sessionId}. Concurrent calls for the same session
// share one request. The response may be a bare payload or a {data: ...}
// envelope; both are normalized by translateSession, which is the only
// place the remote schema's field aliases are known.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (Session, error) {
	result, err, _ := c.fetchSF.Do(sessionID, func() (interface{}, error) {
		return c.fetchSession(ctx, sessionID)
	})
	if err != nil {
		return Session{}, err
	}
	return result.(Session), nil
}

func (c *Client) fetchSession(ctx context.Context, sessionID string) (Session, error) {
	url := fmt.Sprintf("%s/sessions/%s", c.opts.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Session{}, domain.NewInternalError("Failed to build session request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, domain.NewNetworkFailureError("Failed to fetch session", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, domain.NewNetworkFailureError("Failed to read session response", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Session{}, domain.NewSessionNotFoundError(sessionID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, domain.NewNetworkFailureError(
			fmt.Sprintf("Session fetch returned status %d", resp.StatusCode), nil)
	}

	payload := unwrapEnvelope(body)

	var wire dto.SessionResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Session{}, domain.NewInternalError("Failed to decode session response", err)
	}

	session := translateSession(sessionID, wire)
	logger.Get().Debug("Fetched session",
		zap.String("sessionID", sessionID),
		zap.Int("questions", len(session.Questions)),
		zap.Int("existingAnswers", len(session.ExistingAnswers)))
	return session, nil
}

// unwrapEnvelope returns the inner data payload when the body is an
// {data: ...} envelope, and the body itself otherwise.
func unwrapEnvelope(body []byte) []byte {
	var envelope dto.SessionEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return body
}

// translateSession maps the wire schema onto the local model, resolving
// every field alias (stem/text, question_options/options,
// is_correct/isCorrect, category object/string) in one place.
func translateSession(sessionID string, wire dto.SessionResponse) Session {
	questions := make([]domain.QuizQuestion, 0, len(wire.Questions))
	for _, q := range wire.Questions {
		prompt := q.Stem
		if prompt == "" {
			prompt = q.Text
		}
		wireOptions := q.QuestionOptions
		if len(wireOptions) == 0 {
			wireOptions = q.Options
		}
		options := make([]domain.QuestionOption, 0, len(wireOptions))
		for _, opt := range wireOptions {
			correct := false
			switch {
			case opt.IsCorrectOld != nil:
				correct = *opt.IsCorrectOld
			case opt.IsCorrect != nil:
				correct = *opt.IsCorrect
			}
			options = append(options, domain.QuestionOption{
				ID:        opt.ID,
				Text:      opt.Text,
				IsCorrect: correct,
			})
		}
		questions = append(questions, domain.QuizQuestion{
			ID:          q.ID,
			Prompt:      prompt,
			Options:     options,
			Explanation: q.Explanation,
			Category:    q.Category.Name,
			Difficulty:  q.Difficulty,
		})
	}

	config := domain.DefaultQuizConfig()
	if wire.Config != nil {
		if wire.Config.Mode != "" {
			config.Mode = wire.Config.Mode
		}
		if wire.Config.Timing != "" {
			config.Timing = wire.Config.Timing
		}
		if wire.Config.ShowExplanations != nil {
			config.ShowExplanations = *wire.Config.ShowExplanations
		}
		if wire.Config.AllowReview != nil {
			config.AllowReview = *wire.Config.AllowReview
		}
	}

	answers := make([]domain.QuizAnswer, 0, len(wire.Answers))
	for _, a := range wire.Answers {
		answers = append(answers, domain.QuizAnswer{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOptionID,
			IsCorrect:        a.IsCorrect,
			SubmittedAt:      a.Timestamp,
			TimeSpentMs:      a.TimeSpent * 1000,
		})
	}

	return Session{
		SessionID:       sessionID,
		Questions:       questions,
		Config:          config,
		ExistingAnswers: answers,
	}
}
