// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindInconsistency Kind = "inconsistency"
	KindInvalid       Kind = "invalid"
	KindInternal      Kind = "internal"
)

// Error is a labeled failure. Msg is safe to show to clients; the wrapped
// cause is for logs only.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error of the same kind and message, so the sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and msg to a lower-level error.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }

var (
	ErrUnauthorized          = New(KindUnauthorized, "unauthorized")
	ErrAdminRemoveAdmin      = New(KindUnauthorized, "admin cannot remove admin")
	ErrRemoveSelfAdmin       = New(KindUnauthorized, "cannot remove self if self is an admin")
	ErrWorkspaceNotFound     = New(KindNotFound, "workspace not found")
	ErrMemberNotFound        = New(KindNotFound, "member not found")
	ErrChannelNotFound       = New(KindNotFound, "channel not found")
	ErrConversationNotFound  = New(KindNotFound, "conversation not found")
	ErrMessageNotFound       = New(KindNotFound, "message not found")
	ErrInvalidJoinCode       = New(KindConflict, "invalid join code")
	ErrAlreadyMember         = New(KindConflict, "already a member")
	ErrCreateWorkspaceFailed = New(KindInternal, "failed to create workspace and add member")
)
