package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}

// DecodeJSON parses the recorded response body into T.
func DecodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// AssertErrorResponse checks the status and the error envelope every API
// error shares: a code from the error table, a message and the request id.
// It returns the decoded body for further checks.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	body := DecodeJSON[map[string]any](t, w)
	assert.Equal(t, code, body["error"], "Unexpected error code")
	assert.NotEmpty(t, body["message"], "Expected an error message")
	assert.NotEmpty(t, body["requestId"], "Expected a request id")
	return body
}
