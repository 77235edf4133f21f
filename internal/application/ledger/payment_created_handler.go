package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentCreatedHandler posts a payment: debit the receivable clearing
// account (payable when no receivable account exists), credit the bank or
// cash account named by the payment.
type PaymentCreatedHandler struct {
	posting *PostingService
	logger  *zap.Logger
}

// NewPaymentCreatedHandler creates a new PaymentCreatedHandler
func NewPaymentCreatedHandler(posting *PostingService, logger *zap.Logger) *PaymentCreatedHandler {
	return &PaymentCreatedHandler{posting: posting, logger: logger}
}

// Name identifies the handler for idempotency keys
func (h *PaymentCreatedHandler) Name() string {
	return "ledger.PaymentCreatedHandler"
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentCreatedHandler) EventTypes() []string {
	return []string{ledger.EventTypePaymentCreated}
}

// Handle posts the payment
func (h *PaymentCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*ledger.PaymentCreatedEvent)
	if !ok {
		return unexpectedEvent(h.logger, ledger.EventTypePaymentCreated, event)
	}

	h.logger.Info("posting payment",
		zap.String("payment_id", e.PaymentID.String()),
		zap.String("payment_number", e.PaymentNumber),
		zap.String("account_id", e.AccountID.String()),
		zap.String("amount", e.Amount.String()),
	)

	rule := ledger.PaymentCreatedRule
	_, err := h.posting.Post(ctx, PostingRequest{
		TenantID:        e.TenantID(),
		EventID:         e.EventID(),
		EventType:       e.EventType(),
		Date:            e.OccurredOn,
		SourceType:      ledger.SourceTypePayment,
		SourceID:        e.PaymentID,
		SourceReference: e.PaymentNumber,
		Description:     fmt.Sprintf("Payment %s", e.PaymentNumber),
		Amount:          e.Amount,
		Debit:           RoleSide(rule.Debit, rule.DebitFallback),
		Credit:          AccountSide(e.AccountID),
	})
	if err != nil {
		return fmt.Errorf("failed to post payment %s: %w", e.PaymentNumber, err)
	}
	return nil
}

var _ shared.EventHandler = (*PaymentCreatedHandler)(nil)
