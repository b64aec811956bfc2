package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls GORM instrumentation.
type DBTracingConfig struct {
	Enabled         bool
	DBName          string
	IncludeVars     bool
	SlowQueryThresh time.Duration
}

// DefaultDBTracingConfig hides bind variables and flags queries over 200ms.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{DBName: "backoffice", SlowQueryThresh: 200 * time.Millisecond}
}

type queryStartKey struct{}

// InstrumentGORM installs the otelgorm plugin plus callbacks that mark slow
// and failed statements on the current span.
func InstrumentGORM(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.IncludeVars {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh <= 0 {
		thresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markStatement(tx, thresh, logger) }

	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(string, string, func(*gorm.DB)) error
	}{
		{"create", func(n, g string, f func(*gorm.DB)) error { return cb.Create().Before(g).Register(n, f) }},
		{"query", func(n, g string, f func(*gorm.DB)) error { return cb.Query().Before(g).Register(n, f) }},
		{"update", func(n, g string, f func(*gorm.DB)) error { return cb.Update().Before(g).Register(n, f) }},
		{"delete", func(n, g string, f func(*gorm.DB)) error { return cb.Delete().Before(g).Register(n, f) }},
		{"row", func(n, g string, f func(*gorm.DB)) error { return cb.Row().Before(g).Register(n, f) }},
		{"raw", func(n, g string, f func(*gorm.DB)) error { return cb.Raw().Before(g).Register(n, f) }},
	}
	for _, h := range hooks {
		if err := h.register("backoffice:start_"+h.name, "gorm:"+h.name, before); err != nil {
			return err
		}
	}
	afters := []error{
		cb.Create().After("gorm:create").Register("backoffice:mark_create", after),
		cb.Query().After("gorm:query").Register("backoffice:mark_query", after),
		cb.Update().After("gorm:update").Register("backoffice:mark_update", after),
		cb.Delete().After("gorm:delete").Register("backoffice:mark_delete", after),
		cb.Row().After("gorm:row").Register("backoffice:mark_row", after),
		cb.Raw().After("gorm:raw").Register("backoffice:mark_raw", after),
	}
	if err := errors.Join(afters...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled", zap.Duration("slow_query_threshold", thresh))
	return nil
}

func markStatement(tx *gorm.DB, thresh time.Duration, logger *zap.Logger) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > thresh {
		span.SetAttributes(attribute.Bool("db.slow_query", true), attribute.Int64("db.duration_ms", elapsed.Milliseconds()))
		logger.Warn("slow query",
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", TraceID(ctx)),
		)
	}
}
