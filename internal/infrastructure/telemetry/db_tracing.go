package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type startTimeKey struct{}

// DBTracingConfig controls database span details
type DBTracingConfig struct {
	DBSystem           string
	IncludeQueryValues bool
	SlowQueryThreshold time.Duration
}

// RegisterDBTracing installs the otelgorm plugin and a callback pair that flags
// statements slower than cfg.SlowQueryThreshold on their span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeQueryValues {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, startTimeKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, threshold) }

	cb := db.Callback()
	for _, register := range []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("gasdist:start_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("gasdist:start_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("gasdist:start_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("gasdist:start_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("gasdist:start_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("gasdist:start_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("gasdist:slow_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("gasdist:slow_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("gasdist:slow_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("gasdist:slow_delete", after) },
		func() error { return cb.Row().After("gorm:row").Register("gasdist:slow_row", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("gasdist:slow_raw", after) },
	} {
		if err := register(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", threshold),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
