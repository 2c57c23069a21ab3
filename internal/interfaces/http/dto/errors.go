package dto

import (
	"errors"
	"net/http"

	"github.com/gasdist/backend/internal/domain/shared"
)

// Error codes returned in the "error" field of error bodies.
// Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"

	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited       = "ERR_RATE_LIMITED"
	ErrCodeRequestInProgress = "ERR_REQUEST_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
	ErrCodeRequestInProgress: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps domain error codes to API error codes
var domainErrorCodes = map[string]string{
	shared.CodeValidation:    ErrCodeValidation,
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeAlreadyExists: ErrCodeAlreadyExists,
	shared.CodeInvalidState:  ErrCodeInvalidState,
	shared.CodeConflict:      ErrCodeConflict,
	shared.CodeForbidden:     ErrCodeForbidden,
	shared.CodeUnauthorized:  ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}

// ClassifyError returns the API error code and status for err. ok is false when
// err carries no domain error and should be treated as an internal failure.
func ClassifyError(err error) (code string, status int, message string, ok bool) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return ErrCodeInternal, http.StatusInternalServerError, "", false
	}
	code = NormalizeErrorCode(domainErr.Code)
	return code, GetHTTPStatus(code), domainErr.Message, true
}
