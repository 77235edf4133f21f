package telemetry

import (
	"context"

	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics counts posting outcomes and outbox deliveries
type LedgerMetrics struct {
	entriesPosted   metric.Int64Counter
	amountPosted    metric.Float64Counter
	postingsSkipped metric.Int64Counter
	periodChanges   metric.Int64Counter
	deliveries      metric.Int64Counter
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.entriesPosted, err = meter.Int64Counter("ledger_entries_posted_total",
		metric.WithDescription("Journal entries posted")); err != nil {
		return nil, err
	}
	if m.amountPosted, err = meter.Float64Counter("ledger_amount_posted_total",
		metric.WithDescription("Sum of debits of posted journal entries")); err != nil {
		return nil, err
	}
	if m.postingsSkipped, err = meter.Int64Counter("ledger_postings_skipped_total",
		metric.WithDescription("Events that produced no entry because an account mapping was missing")); err != nil {
		return nil, err
	}
	if m.periodChanges, err = meter.Int64Counter("ledger_period_status_changes_total"); err != nil {
		return nil, err
	}
	if m.deliveries, err = meter.Int64Counter("outbox_deliveries_total",
		metric.WithDescription("Outbox delivery attempts by outcome")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordEntryPosted counts a posted entry and its total
func (m *LedgerMetrics) RecordEntryPosted(ctx context.Context, tenantID uuid.UUID, sourceType string, total float64) {
	attrs := metric.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("source_type", sourceType),
	)
	m.entriesPosted.Add(ctx, 1, attrs)
	m.amountPosted.Add(ctx, total, attrs)
}

// RecordPostingSkipped counts an event dropped for want of an account
func (m *LedgerMetrics) RecordPostingSkipped(ctx context.Context, eventType, role string) {
	m.postingsSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("role", role),
	))
}

// RecordPeriodStatusChange counts a fiscal period transition
func (m *LedgerMetrics) RecordPeriodStatusChange(ctx context.Context, from, to string) {
	m.periodChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordOutboxDelivery implements event.DeliveryRecorder
func (m *LedgerMetrics) RecordOutboxDelivery(ctx context.Context, eventType, outcome string) {
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

var _ event.DeliveryRecorder = (*LedgerMetrics)(nil)
