package apierr

import "encoding/json"

// Envelope wraps every backend response body.
//
//	{"success": true,  "data": {...}}
//	{"success": false, "code": "CONFLICT", "message": "..."}
type Envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Codes shared by the backend and the client.
const (
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeInvalidCode         = "INVALID_AUTHORIZATION_CODE"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeSameStatus          = "SAME_STATUS"
)
