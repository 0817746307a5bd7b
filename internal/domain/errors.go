package domain

import (
	"errors"
	"strings"
)

// Kind classifies recoverable failures surfaced to players.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindUnresolvedReference  Kind = "UNRESOLVED_REFERENCE"
	KindMissingHandle        Kind = "MISSING_HANDLE"
	KindEmptyQueue           Kind = "EMPTY_QUEUE"
	KindNoActiveCandidate    Kind = "NO_ACTIVE_CANDIDATE"
	KindDirectoryUnavailable Kind = "DIRECTORY_UNAVAILABLE"
	KindNotFound             Kind = "NOT_FOUND"
)

// Error carries a Kind plus optional reason and cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

// Sentinels for errors.Is checks; matching is by Kind only.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrUnresolvedReference  = &Error{Kind: KindUnresolvedReference}
	ErrMissingHandle        = &Error{Kind: KindMissingHandle}
	ErrEmptyQueue           = &Error{Kind: KindEmptyQueue}
	ErrNoActiveCandidate    = &Error{Kind: KindNoActiveCandidate}
	ErrDirectoryUnavailable = &Error{Kind: KindDirectoryUnavailable}
	ErrNotFound             = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Code is picked up by the router summary as err_code.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Invalid builds a validation error with a reason shown to the user.
func Invalid(reason string) error {
	return &Error{Kind: KindValidation, Reason: reason}
}

// Unresolved builds an unresolved-reference error.
func Unresolved(reason string, cause error) error {
	return &Error{Kind: KindUnresolvedReference, Reason: reason, Err: cause}
}

// NotFound builds a not-found error for the named entity.
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Reason: entity}
}

// Unavailable wraps an infrastructure failure of the directory.
func Unavailable(op string, cause error) error {
	return &Error{Kind: KindDirectoryUnavailable, Reason: op, Err: cause}
}

// KindOf returns the Kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Recoverable reports whether err is a user-facing condition rather than an infrastructure failure.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindUnresolvedReference, KindMissingHandle, KindEmptyQueue, KindNoActiveCandidate:
		return true
	}
	return false
}
