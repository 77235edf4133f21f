package handler

import (
	"net/http"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventIntakeHandler accepts business events from the modules the ledger
// posts for. Accepted events are handed to the publisher; posting happens
// asynchronously in the translators.
type EventIntakeHandler struct {
	BaseHandler
	publisher shared.EventPublisher
}

// NewEventIntakeHandler creates a new EventIntakeHandler
func NewEventIntakeHandler(publisher shared.EventPublisher) *EventIntakeHandler {
	return &EventIntakeHandler{publisher: publisher}
}

// EventAcceptedResponse acknowledges an accepted event
type EventAcceptedResponse struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
}

// InvoiceApprovedRequest is the payload of an approved supplier invoice.
// EventID lets a producer redeliver the same event without double posting.
type InvoiceApprovedRequest struct {
	EventID       *uuid.UUID      `json:"event_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id" binding:"required"`
	InvoiceNumber string          `json:"invoice_number" binding:"required,max=100"`
	SupplierName  string          `json:"supplier_name" binding:"max=200"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date" binding:"required"`
}

// PaymentCreatedRequest is the payload of a recorded payment
type PaymentCreatedRequest struct {
	EventID       *uuid.UUID      `json:"event_id"`
	PaymentID     uuid.UUID       `json:"payment_id" binding:"required"`
	PaymentNumber string          `json:"payment_number" binding:"required,max=100"`
	AccountID     uuid.UUID       `json:"account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredOn    time.Time       `json:"occurred_on" binding:"required"`
}

// ChequeCreatedRequest is the payload of a cheque entering the portfolio
type ChequeCreatedRequest struct {
	EventID      *uuid.UUID      `json:"event_id"`
	ChequeID     uuid.UUID       `json:"cheque_id" binding:"required"`
	ChequeNumber string          `json:"cheque_number" binding:"required,max=100"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredOn   time.Time       `json:"occurred_on" binding:"required"`
}

// ChequeStatusUpdatedRequest is the payload of a cheque status transition
type ChequeStatusUpdatedRequest struct {
	EventID      *uuid.UUID      `json:"event_id"`
	ChequeID     uuid.UUID       `json:"cheque_id" binding:"required"`
	ChequeNumber string          `json:"cheque_number" binding:"required,max=100"`
	Amount       decimal.Decimal `json:"amount"`
	OldStatus    string          `json:"old_status" binding:"required,oneof=PORTFOLIO BANK_COLLECTION PAID BOUNCED ENDORSED RETURNED"`
	NewStatus    string          `json:"new_status" binding:"required,oneof=PORTFOLIO BANK_COLLECTION PAID BOUNCED ENDORSED RETURNED"`
	OccurredOn   time.Time       `json:"occurred_on" binding:"required"`
}

// InvoiceApproved accepts an InvoiceApproved event
func (h *EventIntakeHandler) InvoiceApproved(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	var req InvoiceApprovedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event := ledger.NewInvoiceApprovedEvent(tenantID, req.InvoiceID, req.InvoiceNumber, req.SupplierName, req.Amount, req.Date)
	h.accept(c, &event.BaseDomainEvent, req.EventID, event)
}

// PaymentCreated accepts a PaymentCreated event
func (h *EventIntakeHandler) PaymentCreated(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	var req PaymentCreatedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event := ledger.NewPaymentCreatedEvent(tenantID, req.PaymentID, req.PaymentNumber, req.AccountID, req.Amount, req.OccurredOn)
	h.accept(c, &event.BaseDomainEvent, req.EventID, event)
}

// ChequeCreated accepts a ChequeCreated event
func (h *EventIntakeHandler) ChequeCreated(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	var req ChequeCreatedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event := ledger.NewChequeCreatedEvent(tenantID, req.ChequeID, req.ChequeNumber, req.Amount, req.OccurredOn)
	h.accept(c, &event.BaseDomainEvent, req.EventID, event)
}

// ChequeStatusUpdated accepts a ChequeStatusUpdated event
func (h *EventIntakeHandler) ChequeStatusUpdated(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	var req ChequeStatusUpdatedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event := ledger.NewChequeStatusUpdatedEvent(tenantID, req.ChequeID, req.ChequeNumber, req.Amount,
		ledger.ChequeStatus(req.OldStatus), ledger.ChequeStatus(req.NewStatus), req.OccurredOn)
	h.accept(c, &event.BaseDomainEvent, req.EventID, event)
}

// accept adopts the producer's event ID when given and hands the event on
func (h *EventIntakeHandler) accept(c *gin.Context, base *shared.BaseDomainEvent, eventID *uuid.UUID, event shared.DomainEvent) {
	if eventID != nil && *eventID != uuid.Nil {
		base.ID = *eventID
	}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(EventAcceptedResponse{
		EventID:   event.EventID(),
		EventType: event.EventType(),
	}))
}
