package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rules or engine failure. Transports map kinds to
// status codes; the kinds themselves are transport-agnostic.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindNotYourTurn        ErrorKind = "not_your_turn"
	KindNotAParticipant    ErrorKind = "not_a_participant"
	KindIllegalState       ErrorKind = "illegal_state"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindMalformed          ErrorKind = "malformed"
	KindTimedOut           ErrorKind = "timed_out"
	KindConflict           ErrorKind = "conflict"
	KindInternal           ErrorKind = "internal"
)

// Error is a classified game error with a short human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a classified error
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// reported as internal.
func KindOf(err error) ErrorKind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindInternal
}
