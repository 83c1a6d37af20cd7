package dto

import "encoding/json"

// Wire types for the two-call sync protocol. The read side (SessionResponse)
// tolerates the remote schema's field aliases; normalization into the local
// model happens in one translation function inside the syncer, which is the
// only coupling to the external schema.

// SessionEnvelope is the optional wrapper some deployments return:
// {"success": true, "data": {...}}. A bare SessionResponse body is equally
// valid.
type SessionEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// SessionResponse is the payload of GET /sessions/{sessionId}.
type SessionResponse struct {
	ID        string         `json:"id"`
	Questions []QuestionWire `json:"questions"`
	Config    *ConfigWire    `json:"config"`
	Answers   []AnswerWire   `json:"answers"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// QuestionWire carries both naming conventions the remote side has used for
// question fields.
type QuestionWire struct {
	ID              string       `json:"id"`
	Stem            string       `json:"stem"`
	Text            string       `json:"text"`
	Options         []OptionWire `json:"options"`
	QuestionOptions []OptionWire `json:"question_options"`
	Explanation     string       `json:"explanation"`
	Category        CategoryWire `json:"category"`
	Difficulty      string       `json:"difficulty"`
}

// OptionWire aliases is_correct/isCorrect.
type OptionWire struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	IsCorrectOld *bool  `json:"is_correct"`
	IsCorrect    *bool  `json:"isCorrect"`
}

// CategoryWire accepts either a bare string or an object with a name field.
type CategoryWire struct {
	Name string
}

func (c *CategoryWire) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	return nil
}

// ConfigWire is the session config block as served.
type ConfigWire struct {
	Mode             string `json:"mode"`
	Timing           string `json:"timing"`
	ShowExplanations *bool  `json:"showExplanations"`
	AllowReview      *bool  `json:"allowReview"`
}

// AnswerWire is a previously recorded answer reported by the server.
type AnswerWire struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
	Timestamp        int64  `json:"timestamp"`
	TimeSpent        int64  `json:"timeSpent"`
}

// BatchSubmissionRequest is the body of POST /attempts/batch: one request
// carrying every answer of the session. TimeSpent is in seconds on the wire.
type BatchSubmissionRequest struct {
	SessionID string            `json:"sessionId"`
	Answers   []BatchAnswerItem `json:"answers"`
}

// BatchAnswerItem is one answer inside a batch submission.
type BatchAnswerItem struct {
	QuestionID       string `json:"questionId"`
	SelectedAnswerID string `json:"selectedAnswerId"`
	TimeSpent        int64  `json:"timeSpent"`
	Timestamp        int64  `json:"timestamp"`
}

// APIError is the structured error body the service boundary returns.
// Detection of "already completed" keys off Code; Message matching exists
// only as a fallback for servers that return prose.
type APIError struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CompletionResponse is the body of a successful POST /sessions/{id}/complete.
type CompletionResponse struct {
	Message string         `json:"message"`
	Score   *float64       `json:"score,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}
