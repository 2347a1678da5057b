// internal/app/system/apierrors/apierrors.go

// Package apierrors classifies every failure the API can surface.
//
// Handlers never pass an unstructured error to a response: anything that
// crosses a handler boundary is wrapped into one of the kinds below, which
// map one-to-one onto HTTP statuses. Business-rule denials (NotFound,
// Forbidden, Validation, Verification) are distinct from transport/storage
// faults (Store), so a caller can tell "the database rejected the write"
// apart from "the database silently didn't apply it".
package apierrors

import (
	"errors"
	"net/http"
)

// Kind is the failure classification.
type Kind int

const (
	// KindStore is a transport or storage-level fault (500-equivalent).
	// It is the zero-value fallback for unclassified errors.
	KindStore Kind = iota
	// KindNotFound means the team, project, or user does not exist.
	KindNotFound
	// KindForbidden means the caller's role is insufficient or absent.
	KindForbidden
	// KindValidation means the input was malformed. Inside the keyframe
	// merge this is recovered by filtering; it surfaces only for a broken
	// request envelope.
	KindValidation
	// KindVerification means a post-write re-read did not reflect the
	// write. Surfaced, never auto-retried.
	KindVerification
)

// Error is a classified API error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the classification from err. Unclassified errors are
// treated as store faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindVerification:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
