package engine

import "quizsync/internal/domain"

// Event is the closed set of inputs to the state machine. Events that need
// wall-clock time carry it as an epoch-millisecond field so the transition
// function itself stays free of I/O.
type Event interface {
	isEvent()
}

// Initialize resets the whole session from fetched or recovered data.
type Initialize struct {
	SessionID string
	Questions []domain.QuizQuestion
	Config    domain.QuizConfig
	Online    bool
}

// Start moves the session from not_started to in_progress.
type Start struct {
	At int64
}

// Pause suspends an in-progress session.
type Pause struct{}

// Resume continues a paused session.
type Resume struct{}

// SubmitAnswer records or replaces the answer for a question.
type SubmitAnswer struct {
	QuestionID       string
	SelectedOptionID string
	TimeSpentMs      int64
	At               int64
}

// Navigate moves the cursor to a question index.
type Navigate struct {
	Index int
}

// Complete ends the session. Terminal.
type Complete struct {
	At int64
}

// SyncAck marks local state as synchronized with the server.
type SyncAck struct {
	At int64
}

// SyncNack marks the last sync attempt as failed.
type SyncNack struct{}

// SetOnline updates connectivity status.
type SetOnline struct {
	Online bool
}

func (Initialize) isEvent()   {}
func (Start) isEvent()        {}
func (Pause) isEvent()        {}
func (Resume) isEvent()       {}
func (SubmitAnswer) isEvent() {}
func (Navigate) isEvent()     {}
func (Complete) isEvent()     {}
func (SyncAck) isEvent()      {}
func (SyncNack) isEvent()     {}
func (SetOnline) isEvent()    {}
