package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys shared by the ledger services
const (
	AttrTenantID    = attribute.Key("erp.tenant_id")
	AttrEntryNumber = attribute.Key("ledger.entry_number")
	AttrSourceType  = attribute.Key("ledger.source_type")
	AttrEventID     = attribute.Key("ledger.event_id")
	AttrEventType   = attribute.Key("ledger.event_type")
	AttrPeriodCode  = attribute.Key("ledger.period_code")
)

// StartServiceSpan starts an internal span named {service}.{method}.
// The caller ends the span, usually through EndSpan.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "post", telemetry.TenantAttr(tenantID))
//	defer func() { telemetry.EndSpan(span, err) }()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(ScopeName).Start(ctx,
		fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// TenantAttr tags a span with the tenant
func TenantAttr(tenantID uuid.UUID) attribute.KeyValue {
	return AttrTenantID.String(tenantID.String())
}

// EndSpan records err on the span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace ID of the span in ctx, or "" outside a sampled trace
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
