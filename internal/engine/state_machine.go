package engine

import (
	"math"

	"quizsync/internal/domain"
)

// Transition is the pure state-transition function for a quiz session. It is
// total: every (state, event) pair yields a state, and invalid inputs return
// the input state unchanged rather than failing. Callers that need to treat
// a rejected event as an error (e.g. Initialize with no questions) must
// check upstream.
func Transition(state domain.QuizState, event Event) domain.QuizState {
	switch ev := event.(type) {
	case Initialize:
		if len(ev.Questions) == 0 {
			return state
		}
		next := domain.NewQuizState()
		next.SessionID = ev.SessionID
		next.Questions = ev.Questions
		next.Config = ev.Config
		next.SyncStatus.IsOnline = ev.Online
		next.SyncStatus.PendingChanges = true
		return next

	case Start:
		if state.Status != domain.StatusNotStarted {
			return state
		}
		next := state
		next.Status = domain.StatusInProgress
		if next.Timing.StartedAt == 0 {
			next.Timing.StartedAt = ev.At
		}
		next.SyncStatus.PendingChanges = true
		return next

	case Pause:
		if state.Status != domain.StatusInProgress {
			return state
		}
		next := state
		next.Status = domain.StatusPaused
		return next

	case Resume:
		if state.Status != domain.StatusPaused {
			return state
		}
		next := state
		next.Status = domain.StatusInProgress
		return next

	case SubmitAnswer:
		question, ok := state.QuestionByID(ev.QuestionID)
		if !ok {
			// Stale UI callbacks may reference questions outside the
			// current set; ignore them.
			return state
		}
		option, _ := question.OptionByID(ev.SelectedOptionID)

		next := state
		answers := state.CloneAnswers()
		answers[ev.QuestionID] = domain.QuizAnswer{
			QuestionID:       ev.QuestionID,
			SelectedOptionID: ev.SelectedOptionID,
			IsCorrect:        option.IsCorrect,
			SubmittedAt:      ev.At,
			TimeSpentMs:      ev.TimeSpentMs,
		}
		next.Answers = answers
		next.Progress = computeProgress(answers, state.TotalQuestions())
		next.Timing.TotalTimeSpentMs = state.Timing.TotalTimeSpentMs + ev.TimeSpentMs
		next.SyncStatus.PendingChanges = true
		return next

	case Navigate:
		if ev.Index < 0 || ev.Index >= state.TotalQuestions() {
			return state
		}
		next := state
		next.CurrentIndex = ev.Index
		return next

	case Complete:
		if state.Status.Terminal() {
			return state
		}
		next := state
		next.Status = domain.StatusCompleted
		next.Timing.EndedAt = ev.At
		next.SyncStatus.PendingChanges = true
		return next

	case SyncAck:
		next := state
		next.SyncStatus.LastSyncAt = ev.At
		next.SyncStatus.PendingChanges = false
		return next

	case SyncNack:
		next := state
		next.SyncStatus.PendingChanges = true
		return next

	case SetOnline:
		next := state
		next.SyncStatus.IsOnline = ev.Online
		return next
	}

	return state
}

func computeProgress(answers map[string]domain.QuizAnswer, total int) domain.Progress {
	answered := len(answers)
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(answered) / float64(total) * 100))
	}
	return domain.Progress{
		Answered:   answered,
		Correct:    correct,
		Incorrect:  answered - correct,
		Percentage: percentage,
	}
}
