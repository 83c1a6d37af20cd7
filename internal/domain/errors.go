package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Session sync specific errors
	ErrSessionNotFound         ErrorCode = "SESSION_NOT_FOUND"
	ErrSessionAlreadyCompleted ErrorCode = "SESSION_ALREADY_COMPLETED"
	ErrSyncInProgress          ErrorCode = "SYNC_IN_PROGRESS"
	ErrNetworkFailure          ErrorCode = "NETWORK_FAILURE"
	ErrEmptyQuestionSet        ErrorCode = "EMPTY_QUESTION_SET"
	ErrSnapshotStale           ErrorCode = "SNAPSHOT_STALE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err is a DomainError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// Helper functions for common errors
func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(ErrSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID), nil)
}

func NewSyncInProgressError() *DomainError {
	return NewError(ErrSyncInProgress, "Sync already in progress", nil)
}

func NewNetworkFailureError(message string, err error) *DomainError {
	return NewError(ErrNetworkFailure, message, err)
}

func NewEmptyQuestionSetError(sessionID string) *DomainError {
	return NewError(ErrEmptyQuestionSet, fmt.Sprintf("Session %s has no questions", sessionID), nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

// ErrSnapshotNotFound is returned by snapshot stores when no usable snapshot
// exists for a session. A stale or corrupted snapshot is deliberately
// indistinguishable from an absent one; callers fall back to a remote fetch.
var ErrSnapshotNotFound = NewError(ErrNotFound, "Snapshot not found", nil)
