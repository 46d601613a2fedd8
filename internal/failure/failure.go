// Package failure classifies domain errors so callers can decide whether to
// reload, retry or show a denial.
package failure

import (
	"errors"
)

// Kind groups errors by how the caller should react to them.
type Kind string

const (
	// KindPrecondition covers missing sessions, unknown records and invalid input.
	KindPrecondition Kind = "precondition"
	// KindPermission means the caller lacks a managing role.
	KindPermission Kind = "permission"
	// KindStale means stored state moved on; reload before retrying.
	KindStale Kind = "stale"
	// KindStorage is any storage or transport failure. Safe to retry.
	KindStorage Kind = "storage"
)

// Error is a classified domain error with a human readable reason.
type Error struct {
	Kind   Kind
	Reason string
	// Missing marks precondition errors caused by an unknown record.
	Missing bool
}

func (e *Error) Error() string {
	return e.Reason
}

func Precondition(reason string) *Error {
	return &Error{Kind: KindPrecondition, Reason: reason}
}

func NotFound(reason string) *Error {
	return &Error{Kind: KindPrecondition, Reason: reason, Missing: true}
}

func Permission(reason string) *Error {
	return &Error{Kind: KindPermission, Reason: reason}
}

func Stale(reason string) *Error {
	return &Error{Kind: KindStale, Reason: reason}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are storage errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStorage
}

// ReasonOf returns the user facing reason for err.
func ReasonOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return "storage failure, please retry"
}

// IsMissing reports whether err is a not-found precondition.
func IsMissing(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Missing
}
