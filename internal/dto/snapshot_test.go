package dto

import (
	"testing"

	"quizsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	state := domain.NewQuizState()
	state.SessionID = "sess-1"
	state.Status = domain.StatusInProgress
	state.CurrentIndex = 2
	state.Questions = []domain.QuizQuestion{
		{ID: "q1"}, {ID: "q2"}, {ID: "q3"},
	}
	state.Answers = map[string]domain.QuizAnswer{
		"q3": {QuestionID: "q3", SelectedOptionID: "q3-b", IsCorrect: false, SubmittedAt: 3000, TimeSpentMs: 700},
		"q1": {QuestionID: "q1", SelectedOptionID: "q1-a", IsCorrect: true, SubmittedAt: 1000, TimeSpentMs: 500},
	}
	state.Progress = domain.Progress{Answered: 2, Correct: 1, Incorrect: 1, Percentage: 67}
	state.Timing = domain.Timing{StartedAt: 900, TotalTimeSpentMs: 1200}

	snapshot := SnapshotFromState(state, 5000)

	t.Run("pairs are ordered by question position", func(t *testing.T) {
		require.Len(t, snapshot.Answers, 2)
		assert.Equal(t, "q1", snapshot.Answers[0].QuestionID)
		assert.Equal(t, "q3", snapshot.Answers[1].QuestionID)
	})

	t.Run("mapping reconstructs equivalently", func(t *testing.T) {
		rebuilt := snapshot.AnswersMap()
		assert.Equal(t, state.Answers, rebuilt)
	})

	t.Run("scalar fields survive", func(t *testing.T) {
		assert.Equal(t, "sess-1", snapshot.SessionID)
		assert.Equal(t, string(domain.StatusInProgress), snapshot.Status)
		assert.Equal(t, 2, snapshot.CurrentIndex)
		assert.EqualValues(t, 1200, snapshot.TotalTimeSpentMs)
		assert.EqualValues(t, 900, snapshot.StartedAt)
		assert.EqualValues(t, 5000, snapshot.LastSavedAt)
		assert.Equal(t, ProgressSnapshot{Answered: 2, Correct: 1, Incorrect: 1, Percentage: 67}, snapshot.Progress)
	})
}
