package dto

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error     string             `json:"error"`
	Message   string             `json:"message"`
	RequestID string             `json:"requestId,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one invalid request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse is returned by deletes and other calls without a record to return
type MessageResponse struct {
	Message string `json:"message"`
}

// NewErrorResponse creates an error body
func NewErrorResponse(code, message, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a validation error body with field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) ErrorResponse {
	return ErrorResponse{
		Error:     ErrCodeValidation,
		Message:   message,
		RequestID: requestID,
		Details:   details,
	}
}

// TotalCountHeader carries the unpaginated size of a list response
const TotalCountHeader = "X-Total-Count"
