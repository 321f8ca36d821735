// Package httpx holds the response helpers shared by the backend handlers.
// Every body is an apierr.Envelope.
package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"EEOS-client/internal/platform/apierr"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewInvalidArgumentError(msg string) error {
	return &DomainError{Code: apierr.CodeInvalidArgument, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &DomainError{Code: apierr.CodeNotFound, Message: msg}
}

func NewConflictError(msg string) error {
	return &DomainError{Code: apierr.CodeConflict, Message: msg}
}

// NewError builds a DomainError with any code; ToHTTPStatus decides its status.
func NewError(code, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

// ToHTTPStatus maps a service error to the status the handler answers with.
func ToHTTPStatus(err error) int {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case apierr.CodeInvalidArgument, apierr.CodeInvalidStatus, apierr.CodeSameStatus:
		return http.StatusBadRequest
	case apierr.CodeNotFound:
		return http.StatusNotFound
	case apierr.CodeConflict:
		return http.StatusConflict
	case apierr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apierr.CodeInvalidCode, apierr.CodeInvalidRefreshToken:
		// 401 is reserved for an unusable access token
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
