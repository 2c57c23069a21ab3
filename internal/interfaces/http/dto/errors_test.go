package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{"validation", shared.NewValidationError("Phone number cannot be empty"), ErrCodeValidation, 400, "Phone number cannot be empty"},
		{"not found", shared.NewNotFoundError("Customer"), ErrCodeNotFound, 404, "Customer not found"},
		{"conflict", shared.NewConflictError("Customer has transactions"), ErrCodeConflict, 409, "Customer has transactions"},
		{"already exists", shared.NewDomainError(shared.CodeAlreadyExists, "Phone taken"), ErrCodeAlreadyExists, 409, "Phone taken"},
		{"invalid state", shared.NewInvalidStateError("Approval request has already been approved"), ErrCodeInvalidState, 422, "Approval request has already been approved"},
		{"forbidden", shared.NewDomainError(shared.CodeForbidden, "Account is inactive"), ErrCodeForbidden, 403, "Account is inactive"},
		{"wrapped", fmt.Errorf("approve: %w", shared.NewNotFoundError("Approval request")), ErrCodeNotFound, 404, "Approval request not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status, message, ok := ClassifyError(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}

	code, status, _, ok := ClassifyError(errors.New("connection refused"))
	assert.False(t, ok)
	assert.Equal(t, ErrCodeInternal, code)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(shared.CodeNotFound))
	assert.Equal(t, ErrCodeRateLimited, NormalizeErrorCode(ErrCodeRateLimited))
}

func TestErrorResponse_JSON(t *testing.T) {
	body, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "Customer not found", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"ERR_NOT_FOUND","message":"Customer not found","requestId":"req-1"}`, string(body))

	body, err = json.Marshal(NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "phone", Message: "Invalid phone number"},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"ERR_VALIDATION","message":"Request validation failed","details":[{"field":"phone","message":"Invalid phone number"}]}`, string(body))
}
