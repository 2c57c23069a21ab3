package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_EnrichesSpan(t *testing.T) {
	recorder := newRecordingProvider(t)
	svc := newTestJWTService(time.Hour)
	u := newTestUser(t, identity.RoleManager)

	r := gin.New()
	r.Use(RequestID(), Tracing(TracingConfig{ServiceName: "gasdist-test", Enabled: true}), JWTAuthMiddleware(svc), SpanEnricher())
	r.GET("/api/customers/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/api/customers/7", nil)
	req.Header.Set(RequestIDHeader, "trace-req-1")
	req.Header.Set(AuthHeaderKey, BearerPrefix+tokenFor(t, svc, u))
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "trace-req-1", attrs["request_id"].AsString())
	assert.Equal(t, u.ID.String(), attrs["user_id"].AsString())
	assert.Equal(t, "manager", attrs["user_role"].AsString())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	recorder := newRecordingProvider(t)
	r := gin.New()
	r.Use(Tracing(TracingConfig{Enabled: false}), SpanEnricher())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}
