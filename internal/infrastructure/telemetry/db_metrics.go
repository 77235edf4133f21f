package telemetry

import (
	"context"
	"database/sql"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// DBMetrics records statement latency and connection pool usage
type DBMetrics struct {
	queryDuration metric.Float64Histogram
	registration  metric.Registration
}

// NewDBMetrics hooks db's callbacks into a latency histogram and observes the
// pool of the underlying sql.DB on every collection
func NewDBMetrics(db *gorm.DB, meter metric.Meter) (*DBMetrics, error) {
	queryDuration, err := meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Duration of SQL statements"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	m := &DBMetrics{queryDuration: queryDuration}

	for _, op := range gormOperations {
		if err := registerAround(db, op, "ledger_metrics", markQueryStart, m.observe(op)); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := m.observePool(sqlDB, meter); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DBMetrics) observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		elapsed, ok := queryElapsed(db)
		if !ok {
			return
		}
		m.queryDuration.Record(db.Statement.Context, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.table", db.Statement.Table),
			attribute.Bool("error", db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)),
		))
	}
}

func (m *DBMetrics) observePool(sqlDB *sql.DB, meter metric.Meter) error {
	open, err := meter.Int64ObservableGauge("db_pool_open_connections",
		metric.WithDescription("Open connections, in use and idle"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db_pool_in_use_connections")
	if err != nil {
		return err
	}
	waitCount, err := meter.Int64ObservableCounter("db_pool_wait_count_total",
		metric.WithDescription("Connections waited for"))
	if err != nil {
		return err
	}
	waitDuration, err := meter.Float64ObservableCounter("db_pool_wait_duration_seconds_total",
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waitCount, stats.WaitCount)
		o.ObserveFloat64(waitDuration, stats.WaitDuration.Seconds())
		return nil
	}, open, inUse, waitCount, waitDuration)
	return err
}

// Close stops observing the pool
func (m *DBMetrics) Close() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
