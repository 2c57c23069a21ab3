package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exp := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{
		Enabled:       true,
		SamplingRatio: 1,
		ServiceName:   "gasdist-test",
	}, zap.NewNop(), WithSpanExporter(exp))
	require.NoError(t, err)
	require.True(t, tp.IsEnabled())

	_, span := tp.Tracer("test").Start(context.Background(), "approve")
	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "approve", spans[0].Name)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartServiceSpan(t *testing.T) {
	rec := useRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "approval", "approve",
		AttrApprovalID, "a-1",
		"attempt", 2,
		"dangling",
	)
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, errors.New("entity deleted"))
	RecordError(span, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "approval.approve", ended[0].Name())
	attrs := attrMap(ended[0])
	assert.Equal(t, "a-1", attrs[AttrApprovalID].AsString())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.NotContains(t, attrs, attribute.Key("dangling"))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

type widget struct {
	ID   uint
	Name string
}

func newTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestRegisterDBTracing(t *testing.T) {
	rec := useRecorder(t)
	db := newTracedDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{DBSystem: "sqlite"}, zap.NewNop()))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "13kg valve"}).Error)
	var w widget
	require.NoError(t, db.WithContext(ctx).First(&w).Error)
	parent.End()

	assert.Greater(t, len(rec.Ended()), 1, "statements get their own spans")
	assert.Equal(t, "13kg valve", w.Name)
}

func TestMarkSlowQuery(t *testing.T) {
	rec := useRecorder(t)
	db := newTracedDB(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, startTimeKey{}, time.Now().Add(-time.Second))
	tx := db.WithContext(ctx).Table("widgets")
	tx.Error = errors.New("disk I/O error")

	markSlowQuery(tx, 100*time.Millisecond)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	attrs := attrMap(ended[0])
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.GreaterOrEqual(t, attrs["db.query_duration_ms"].AsInt64(), int64(1000))
	assert.Equal(t, "widgets", attrs["db.sql.table"].AsString())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestMarkSlowQuery_FastQueryNotFlagged(t *testing.T) {
	rec := useRecorder(t)
	db := newTracedDB(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, startTimeKey{}, time.Now())
	markSlowQuery(db.WithContext(ctx), time.Hour)
	span.End()

	assert.NotContains(t, attrMap(rec.Ended()[0]), attribute.Key("db.slow_query"))
}
