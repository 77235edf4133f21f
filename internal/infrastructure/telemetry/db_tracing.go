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

// DBTracingConfig controls the spans created for SQL statements
type DBTracingConfig struct {
	// LogFullSQL keeps bind variables in span statements. Development only.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// gormOperations lists the callback chains a plugin hooks into
var gormOperations = []string{"create", "query", "update", "delete", "row", "raw"}

// InstrumentDB installs otelgorm on db and flags statements slower than the
// threshold on their span
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	// registered ahead of the plugin so the slow-query hook sees the span still open
	slow := slowQueryCallback(cfg.SlowQueryThresh, logger)
	for _, op := range gormOperations {
		if err := registerAround(db, op, "ledger_trace", markQueryStart, slow); err != nil {
			return err
		}
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

func slowQueryCallback(threshold time.Duration, logger *zap.Logger) func(*gorm.DB) {
	return func(db *gorm.DB) {
		elapsed, ok := queryElapsed(db)
		if !ok || elapsed < threshold {
			return
		}
		span := trace.SpanFromContext(db.Statement.Context)
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
		}
		logger.Warn("slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold),
		)
	}
}

// registerAround hooks before and after the gorm:<op> callback
func registerAround(db *gorm.DB, op, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	name := "gorm:" + op
	switch op {
	case "create":
		if err := cb.Create().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Create().After(name).Register(prefix+":after_"+op, after)
	case "query":
		if err := cb.Query().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Query().After(name).Register(prefix+":after_"+op, after)
	case "update":
		if err := cb.Update().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Update().After(name).Register(prefix+":after_"+op, after)
	case "delete":
		if err := cb.Delete().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Delete().After(name).Register(prefix+":after_"+op, after)
	case "row":
		if err := cb.Row().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Row().After(name).Register(prefix+":after_"+op, after)
	default:
		if err := cb.Raw().Before(name).Register(prefix+":before_"+op, before); err != nil {
			return err
		}
		return cb.Raw().After(name).Register(prefix+":after_"+op, after)
	}
}
