// Package apierr defines the failure classes every outbound call can end in.
//
// A call fails with exactly one Kind. Unauthorized is an internal signal
// consumed by the session layer; the other kinds reach callers unchanged.
package apierr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNetwork         Kind = "NETWORK"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindRefreshRejected Kind = "REFRESH_REJECTED"
	KindBusiness        Kind = "BUSINESS"
	KindUnknown         Kind = "UNKNOWN"
)

// Error is the typed failure returned by the transport and everything above it.
type Error struct {
	Kind    Kind
	Code    string // envelope code sent by the backend, if any
	Message string
	Status  int // HTTP status, 0 when no response arrived
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNetwork) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrRefreshRejected = &Error{Kind: KindRefreshRejected}
	ErrBusiness        = &Error{Kind: KindBusiness}
	ErrUnknown         = &Error{Kind: KindUnknown}
)

func Network(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: "network failure", Cause: cause}
}

func Unauthorized(code, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg, Status: 401}
}

func RefreshRejected(msg string, cause error) *Error {
	return &Error{Kind: KindRefreshRejected, Message: msg, Cause: cause}
}

func Business(status int, code, msg string) *Error {
	return &Error{Kind: KindBusiness, Code: code, Message: msg, Status: status}
}

func Unknown(status int, msg string, cause error) *Error {
	return &Error{Kind: KindUnknown, Message: msg, Status: status, Cause: cause}
}

// KindOf reports the Kind of err, or "" when err is nil or not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// Retryable reports whether the caller may reasonably try the same call again.
func Retryable(err error) bool { return KindOf(err) == KindNetwork }
