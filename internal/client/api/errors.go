package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrOffline is wrapped by the NetworkError returned while the client knows it
// has no connectivity; no request is attempted.
var ErrOffline = errors.New("client is offline")

// NetworkError means the request never got an HTTP response: the client was
// offline, the connection failed, or the transport timed out. Writes that fail
// this way are safe to queue.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Details    []FieldError
}

// FieldError is one entry of a validation error's details
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether the server rejected the bearer token
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsNetworkError reports whether err is (or wraps) a NetworkError
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsAPIError returns the APIError wrapped in err, if any
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error     string       `json:"error"`
		Message   string       `json:"message"`
		RequestID string       `json:"requestId"`
		Details   []FieldError `json:"details"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	apiErr.Code = payload.Error
	apiErr.Message = payload.Message
	apiErr.RequestID = payload.RequestID
	apiErr.Details = payload.Details
	return apiErr
}
