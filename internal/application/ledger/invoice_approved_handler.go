package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceApprovedHandler posts an approved supplier invoice: debit expense,
// credit accounts payable. A missing account always fails the posting.
type InvoiceApprovedHandler struct {
	posting *PostingService
	logger  *zap.Logger
}

// NewInvoiceApprovedHandler creates a new InvoiceApprovedHandler
func NewInvoiceApprovedHandler(posting *PostingService, logger *zap.Logger) *InvoiceApprovedHandler {
	return &InvoiceApprovedHandler{posting: posting, logger: logger}
}

// Name identifies the handler for idempotency keys
func (h *InvoiceApprovedHandler) Name() string {
	return "ledger.InvoiceApprovedHandler"
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceApprovedHandler) EventTypes() []string {
	return []string{ledger.EventTypeInvoiceApproved}
}

// Handle posts the invoice
func (h *InvoiceApprovedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*ledger.InvoiceApprovedEvent)
	if !ok {
		return unexpectedEvent(h.logger, ledger.EventTypeInvoiceApproved, event)
	}

	h.logger.Info("posting approved invoice",
		zap.String("invoice_id", e.InvoiceID.String()),
		zap.String("invoice_number", e.InvoiceNumber),
		zap.String("supplier_name", e.SupplierName),
		zap.String("amount", e.Amount.String()),
	)

	rule := ledger.InvoiceApprovedRule
	_, err := h.posting.Post(ctx, PostingRequest{
		TenantID:        e.TenantID(),
		EventID:         e.EventID(),
		EventType:       e.EventType(),
		Date:            e.Date,
		SourceType:      ledger.SourceTypeInvoice,
		SourceID:        e.InvoiceID,
		SourceReference: e.InvoiceNumber,
		Description:     fmt.Sprintf("Invoice %s - %s", e.InvoiceNumber, e.SupplierName),
		Amount:          e.Amount,
		Debit:           RoleSide(rule.Debit, rule.DebitFallback),
		Credit:          RoleSide(rule.Credit, ""),
		MappingRequired: true,
	})
	if err != nil {
		return fmt.Errorf("failed to post invoice %s: %w", e.InvoiceNumber, err)
	}
	return nil
}

// unexpectedEvent reports a handler subscribed to the wrong event type
func unexpectedEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

var _ shared.EventHandler = (*InvoiceApprovedHandler)(nil)
