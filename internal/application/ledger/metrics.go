package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Metrics receives posting outcomes. telemetry.LedgerMetrics implements it.
type Metrics interface {
	RecordEntryPosted(ctx context.Context, tenantID uuid.UUID, sourceType string, total float64)
	RecordPostingSkipped(ctx context.Context, eventType, role string)
	RecordPeriodStatusChange(ctx context.Context, from, to string)
}

type noopMetrics struct{}

func (noopMetrics) RecordEntryPosted(context.Context, uuid.UUID, string, float64) {}
func (noopMetrics) RecordPostingSkipped(context.Context, string, string)          {}
func (noopMetrics) RecordPeriodStatusChange(context.Context, string, string)      {}
