package domain

import "time"

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Terminal reports whether the session can accept further mutating events.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// QuestionOption is one selectable answer for a question. Correctness is
// authoritative data fetched once from the server; the client trusts it for
// instant feedback, the server recomputes the real score at sync time.
type QuestionOption struct {
	ID        string
	Text      string
	IsCorrect bool
}

// QuizQuestion is a multiple-choice question owned by the session. Question
// sets are replaced wholesale on re-initialization, never edited in place.
type QuizQuestion struct {
	ID          string
	Prompt      string
	Options     []QuestionOption
	Explanation string
	Category    string
	Difficulty  string
}

// OptionByID returns the option with the given id, if present.
func (q QuizQuestion) OptionByID(optionID string) (QuestionOption, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return QuestionOption{}, false
}

// QuizAnswer records a single submitted answer. There is at most one per
// question; re-answering replaces the record.
type QuizAnswer struct {
	QuestionID       string
	SelectedOptionID string
	IsCorrect        bool
	SubmittedAt      int64 // epoch milliseconds
	TimeSpentMs      int64
}

// Progress is derived bookkeeping, recomputed on every answer mutation.
type Progress struct {
	Answered   int
	Correct    int
	Incorrect  int
	Percentage int
}

// Timing tracks session wall-clock accounting in epoch milliseconds.
type Timing struct {
	StartedAt        int64 // zero until START
	EndedAt          int64 // zero until COMPLETE
	TotalTimeSpentMs int64
}

// QuizConfig is fixed after initialization.
type QuizConfig struct {
	Mode             string
	Timing           string
	ShowExplanations bool
	AllowReview      bool
}

// DefaultQuizConfig mirrors the server-side defaults for sessions that omit
// a config block.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		Mode:             "tutor",
		Timing:           "untimed",
		ShowExplanations: true,
		AllowReview:      true,
	}
}

// SyncStatus tracks the relationship between local state and the server.
type SyncStatus struct {
	LastSyncAt     int64 // epoch milliseconds, zero until first successful sync
	PendingChanges bool
	IsOnline       bool
}

// QuizState is the aggregate session state and the single source of truth.
// It is treated as a value: the state machine returns new states and never
// mutates a state a caller still holds.
type QuizState struct {
	SessionID    string
	Status       Status
	Questions    []QuizQuestion
	CurrentIndex int
	Answers      map[string]QuizAnswer // keyed by question id
	Progress     Progress
	Timing       Timing
	Config       QuizConfig
	SyncStatus   SyncStatus
}

// NewQuizState returns an empty pre-initialization state.
func NewQuizState() QuizState {
	return QuizState{
		Status:  StatusNotStarted,
		Answers: map[string]QuizAnswer{},
		Config:  DefaultQuizConfig(),
		SyncStatus: SyncStatus{
			IsOnline: true,
		},
	}
}

// TotalQuestions returns the size of the fixed question set.
func (s QuizState) TotalQuestions() int {
	return len(s.Questions)
}

// QuestionByID looks up a question in the current set.
func (s QuizState) QuestionByID(questionID string) (QuizQuestion, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return QuizQuestion{}, false
}

// CloneAnswers returns a copy of the answers mapping.
func (s QuizState) CloneAnswers() map[string]QuizAnswer {
	out := make(map[string]QuizAnswer, len(s.Answers))
	for k, v := range s.Answers {
		out[k] = v
	}
	return out
}

// NowMillis converts a time to the epoch-millisecond representation used
// throughout the session model.
func NowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
