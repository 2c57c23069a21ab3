package shared

import "errors"

// Error codes used across the domain. The HTTP layer maps them to status codes.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidState  = "INVALID_STATE"
	CodeConflict      = "CONFLICT"
	CodeForbidden     = "FORBIDDEN"
	CodeUnauthorized  = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code, so errors.Is(err, ErrNotFound) holds for every NOT_FOUND error
// regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation    = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict      = NewDomainError(CodeConflict, "Resource was modified or removed by another process")
	ErrUnauthorized  = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden     = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState  = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// NewValidationError reports missing or malformed input.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError reports an unknown id for the named resource.
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewInvalidStateError reports an operation that the current state does not allow.
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewConflictError reports a target that vanished or changed incompatibly.
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewPermissionError reports a caller lacking the required capability.
func NewPermissionError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// AsDomainError unwraps err into a *DomainError when possible.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
