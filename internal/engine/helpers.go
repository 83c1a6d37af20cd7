package engine

import "quizsync/internal/domain"

// Read-side helpers over QuizState used by the orchestration layer and UIs.

// CurrentQuestion returns the question at the navigation cursor.
func CurrentQuestion(state domain.QuizState) (domain.QuizQuestion, bool) {
	if state.CurrentIndex < 0 || state.CurrentIndex >= state.TotalQuestions() {
		return domain.QuizQuestion{}, false
	}
	return state.Questions[state.CurrentIndex], true
}

// AnswerFor returns the recorded answer for a question, if any.
func AnswerFor(state domain.QuizState, questionID string) (domain.QuizAnswer, bool) {
	a, ok := state.Answers[questionID]
	return a, ok
}

// IsAnswered reports whether a question has a recorded answer.
func IsAnswered(state domain.QuizState, questionID string) bool {
	_, ok := state.Answers[questionID]
	return ok
}

// CanNavigateNext reports whether the cursor can advance.
func CanNavigateNext(state domain.QuizState) bool {
	return state.CurrentIndex < state.TotalQuestions()-1
}

// CanNavigatePrevious reports whether the cursor can move back.
func CanNavigatePrevious(state domain.QuizState) bool {
	return state.CurrentIndex > 0
}

// NeedsSync reports whether there are unsynced local changes and the client
// is online to push them.
func NeedsSync(state domain.QuizState) bool {
	return state.SyncStatus.PendingChanges && state.SyncStatus.IsOnline
}
