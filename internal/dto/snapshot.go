package dto

import "quizsync/internal/domain"

// StateSnapshot is the persisted local-state schema, one record per session.
// The answers mapping is flattened to an ordered list of [questionId, answer]
// pairs so the snapshot is a plain serializable structure regardless of the
// backing store.
type StateSnapshot struct {
	SessionID        string           `json:"sessionId"`
	Answers          []AnswerPair     `json:"answers"`
	Progress         ProgressSnapshot `json:"progress"`
	CurrentIndex     int              `json:"currentIndex"`
	Status           string           `json:"status"`
	TotalTimeSpentMs int64            `json:"totalTimeSpent"`
	StartedAt        int64            `json:"startedAt,omitempty"`
	LastSavedAt      int64            `json:"lastSaved"`
}

// AnswerPair is one [questionId, answer] entry of the flattened mapping.
type AnswerPair struct {
	QuestionID string         `json:"questionId"`
	Answer     AnswerSnapshot `json:"answer"`
}

// AnswerSnapshot is the serialized form of domain.QuizAnswer.
type AnswerSnapshot struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
	Timestamp        int64  `json:"timestamp"`
	TimeSpentMs      int64  `json:"timeSpent"`
}

// ProgressSnapshot is the serialized form of domain.Progress.
type ProgressSnapshot struct {
	Answered   int `json:"answered"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Percentage int `json:"percentage"`
}

// SnapshotFromState flattens a QuizState into its persisted form. Answer
// pairs are ordered by question position so the snapshot is deterministic.
func SnapshotFromState(state domain.QuizState, savedAt int64) StateSnapshot {
	pairs := make([]AnswerPair, 0, len(state.Answers))
	for _, q := range state.Questions {
		a, ok := state.Answers[q.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, AnswerPair{
			QuestionID: q.ID,
			Answer: AnswerSnapshot{
				QuestionID:       a.QuestionID,
				SelectedOptionID: a.SelectedOptionID,
				IsCorrect:        a.IsCorrect,
				Timestamp:        a.SubmittedAt,
				TimeSpentMs:      a.TimeSpentMs,
			},
		})
	}
	return StateSnapshot{
		SessionID: state.SessionID,
		Answers:   pairs,
		Progress: ProgressSnapshot{
			Answered:   state.Progress.Answered,
			Correct:    state.Progress.Correct,
			Incorrect:  state.Progress.Incorrect,
			Percentage: state.Progress.Percentage,
		},
		CurrentIndex:     state.CurrentIndex,
		Status:           string(state.Status),
		TotalTimeSpentMs: state.Timing.TotalTimeSpentMs,
		StartedAt:        state.Timing.StartedAt,
		LastSavedAt:      savedAt,
	}
}

// AnswersMap reconstructs the answers mapping from the flattened pairs.
func (s StateSnapshot) AnswersMap() map[string]domain.QuizAnswer {
	out := make(map[string]domain.QuizAnswer, len(s.Answers))
	for _, p := range s.Answers {
		out[p.QuestionID] = domain.QuizAnswer{
			QuestionID:       p.QuestionID,
			SelectedOptionID: p.Answer.SelectedOptionID,
			IsCorrect:        p.Answer.IsCorrect,
			SubmittedAt:      p.Answer.Timestamp,
			TimeSpentMs:      p.Answer.TimeSpentMs,
		}
	}
	return out
}
