package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTP("PUT", "/api/approvals/:id/approve", 200, 15*time.Millisecond)
	m.ObserveHTTP("PUT", "/api/approvals/:id/approve", 422, 3*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.ApprovalSubmitted("customer_edit")
	m.ApprovalDecided("customer_edit", "approved")
	m.IdempotentReplay()
	m.NotificationSent("webhook", errors.New("timeout"))
	m.NotificationSent("webhook", nil)
	m.BackupCompleted(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("PUT", "/api/approvals/:id/approve", "422")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.approvalSubmissions.WithLabelValues("customer_edit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.approvalDecisions.WithLabelValues("customer_edit", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.idempotentReplays))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("webhook", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backups.WithLabelValues("success")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ApprovalDecided("transaction_delete", "rejected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `gasdist_approval_decisions_total{outcome="rejected",request_type="transaction_delete"} 1`))
	assert.Contains(t, text, "go_goroutines")
}
