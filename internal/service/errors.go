package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
)

// ValidationError carries one or more human-readable defect messages. The
// submission gate collects all defects before failing instead of stopping at
// the first one.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func notFound(what string) error {
	return &namedError{kind: ErrNotFound, msg: what + " not found"}
}

func permissionDenied(msg string) error {
	return &namedError{kind: ErrPermissionDenied, msg: msg}
}

func conflict(msg string) error {
	return &namedError{kind: ErrConflict, msg: msg}
}

// namedError attaches a message to one of the sentinel kinds so handlers can
// match with errors.Is while callers still see a specific message.
type namedError struct {
	kind error
	msg  string
}

func (e *namedError) Error() string {
	return e.msg
}

func (e *namedError) Unwrap() error {
	return e.kind
}
