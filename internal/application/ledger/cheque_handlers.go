package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ChequeCreatedHandler moves a received cheque into the portfolio: debit
// cheque portfolio, credit accounts receivable
type ChequeCreatedHandler struct {
	posting *PostingService
	logger  *zap.Logger
}

// NewChequeCreatedHandler creates a new ChequeCreatedHandler
func NewChequeCreatedHandler(posting *PostingService, logger *zap.Logger) *ChequeCreatedHandler {
	return &ChequeCreatedHandler{posting: posting, logger: logger}
}

// Name identifies the handler for idempotency keys
func (h *ChequeCreatedHandler) Name() string {
	return "ledger.ChequeCreatedHandler"
}

// EventTypes returns the event types this handler is interested in
func (h *ChequeCreatedHandler) EventTypes() []string {
	return []string{ledger.EventTypeChequeCreated}
}

// Handle posts the cheque
func (h *ChequeCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*ledger.ChequeCreatedEvent)
	if !ok {
		return unexpectedEvent(h.logger, ledger.EventTypeChequeCreated, event)
	}

	rule := ledger.ChequeCreatedRule
	_, err := h.posting.Post(ctx, PostingRequest{
		TenantID:        e.TenantID(),
		EventID:         e.EventID(),
		EventType:       e.EventType(),
		Date:            e.OccurredOn,
		SourceType:      ledger.SourceTypeCheque,
		SourceID:        e.ChequeID,
		SourceReference: e.ChequeNumber,
		Description:     fmt.Sprintf("Cheque %s received", e.ChequeNumber),
		Amount:          e.Amount,
		Debit:           RoleSide(rule.Debit, rule.DebitFallback),
		Credit:          RoleSide(rule.Credit, ""),
	})
	if err != nil {
		return fmt.Errorf("failed to post cheque %s: %w", e.ChequeNumber, err)
	}
	return nil
}

// ChequeStatusUpdatedHandler posts the cheque transitions that move money
// between accounts. Other transitions post nothing.
type ChequeStatusUpdatedHandler struct {
	posting *PostingService
	logger  *zap.Logger
}

// NewChequeStatusUpdatedHandler creates a new ChequeStatusUpdatedHandler
func NewChequeStatusUpdatedHandler(posting *PostingService, logger *zap.Logger) *ChequeStatusUpdatedHandler {
	return &ChequeStatusUpdatedHandler{posting: posting, logger: logger}
}

// Name identifies the handler for idempotency keys
func (h *ChequeStatusUpdatedHandler) Name() string {
	return "ledger.ChequeStatusUpdatedHandler"
}

// EventTypes returns the event types this handler is interested in
func (h *ChequeStatusUpdatedHandler) EventTypes() []string {
	return []string{ledger.EventTypeChequeStatusUpdated}
}

// Handle posts the transition when a rule exists for it
func (h *ChequeStatusUpdatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*ledger.ChequeStatusUpdatedEvent)
	if !ok {
		return unexpectedEvent(h.logger, ledger.EventTypeChequeStatusUpdated, event)
	}

	rule, ok := ledger.ChequeTransitionRule(e.OldStatus, e.NewStatus)
	if !ok {
		h.logger.Debug("cheque transition has no posting",
			zap.String("cheque_id", e.ChequeID.String()),
			zap.String("from", e.OldStatus.String()),
			zap.String("to", e.NewStatus.String()),
		)
		return nil
	}

	_, err := h.posting.Post(ctx, PostingRequest{
		TenantID:        e.TenantID(),
		EventID:         e.EventID(),
		EventType:       e.EventType(),
		Date:            e.OccurredOn,
		SourceType:      ledger.SourceTypeCheque,
		SourceID:        e.ChequeID,
		SourceReference: e.ChequeNumber,
		Description:     fmt.Sprintf("Cheque %s %s -> %s", e.ChequeNumber, e.OldStatus, e.NewStatus),
		Amount:          e.Amount,
		Debit:           RoleSide(rule.Debit, rule.DebitFallback),
		Credit:          RoleSide(rule.Credit, ""),
	})
	if err != nil {
		return fmt.Errorf("failed to post cheque %s transition: %w", e.ChequeNumber, err)
	}
	return nil
}

// Translators returns the four posting handlers
func Translators(posting *PostingService, logger *zap.Logger) []shared.EventHandler {
	return []shared.EventHandler{
		NewInvoiceApprovedHandler(posting, logger),
		NewPaymentCreatedHandler(posting, logger),
		NewChequeCreatedHandler(posting, logger),
		NewChequeStatusUpdatedHandler(posting, logger),
	}
}

var (
	_ shared.EventHandler = (*ChequeCreatedHandler)(nil)
	_ shared.EventHandler = (*ChequeStatusUpdatedHandler)(nil)
)
