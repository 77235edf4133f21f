package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types consumed by the posting translators. Producers in other
// modules raise them; their payloads form the ledger's inbound contract.
const (
	EventTypeInvoiceApproved     = "InvoiceApproved"
	EventTypePaymentCreated      = "PaymentCreated"
	EventTypeChequeCreated       = "ChequeCreated"
	EventTypeChequeStatusUpdated = "ChequeStatusUpdated"
)

// ChequeStatus is the lifecycle status reported by the cheque module
type ChequeStatus string

const (
	ChequeStatusPortfolio      ChequeStatus = "PORTFOLIO"
	ChequeStatusBankCollection ChequeStatus = "BANK_COLLECTION"
	ChequeStatusPaid           ChequeStatus = "PAID"
	ChequeStatusBounced        ChequeStatus = "BOUNCED"
	ChequeStatusEndorsed       ChequeStatus = "ENDORSED"
	ChequeStatusReturned       ChequeStatus = "RETURNED"
)

// String returns the string representation of ChequeStatus
func (s ChequeStatus) String() string {
	return string(s)
}

// InvoiceApprovedEvent is raised by purchasing when a supplier invoice is approved
type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	SupplierName  string          `json:"supplier_name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
}

// EventType returns the event type name
func (e *InvoiceApprovedEvent) EventType() string {
	return EventTypeInvoiceApproved
}

// NewInvoiceApprovedEvent creates a new InvoiceApprovedEvent
func NewInvoiceApprovedEvent(tenantID, invoiceID uuid.UUID, invoiceNumber, supplierName string, amount decimal.Decimal, date time.Time) *InvoiceApprovedEvent {
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceApproved, "Invoice", invoiceID, tenantID),
		InvoiceID:       invoiceID,
		InvoiceNumber:   invoiceNumber,
		SupplierName:    supplierName,
		Amount:          amount,
		Date:            date,
	}
}

// PaymentCreatedEvent is raised by treasury when a payment is recorded against
// a bank or cash account
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	AccountID     uuid.UUID       `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredOn    time.Time       `json:"occurred_on"`
}

// EventType returns the event type name
func (e *PaymentCreatedEvent) EventType() string {
	return EventTypePaymentCreated
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(tenantID, paymentID uuid.UUID, paymentNumber string, accountID uuid.UUID, amount decimal.Decimal, occurredOn time.Time) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, "Payment", paymentID, tenantID),
		PaymentID:       paymentID,
		PaymentNumber:   paymentNumber,
		AccountID:       accountID,
		Amount:          amount,
		OccurredOn:      occurredOn,
	}
}

// ChequeCreatedEvent is raised when a received cheque enters the portfolio
type ChequeCreatedEvent struct {
	shared.BaseDomainEvent
	ChequeID     uuid.UUID       `json:"cheque_id"`
	ChequeNumber string          `json:"cheque_number"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredOn   time.Time       `json:"occurred_on"`
}

// EventType returns the event type name
func (e *ChequeCreatedEvent) EventType() string {
	return EventTypeChequeCreated
}

// NewChequeCreatedEvent creates a new ChequeCreatedEvent
func NewChequeCreatedEvent(tenantID, chequeID uuid.UUID, chequeNumber string, amount decimal.Decimal, occurredOn time.Time) *ChequeCreatedEvent {
	return &ChequeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChequeCreated, "Cheque", chequeID, tenantID),
		ChequeID:        chequeID,
		ChequeNumber:    chequeNumber,
		Amount:          amount,
		OccurredOn:      occurredOn,
	}
}

// ChequeStatusUpdatedEvent is raised on every cheque status transition
type ChequeStatusUpdatedEvent struct {
	shared.BaseDomainEvent
	ChequeID     uuid.UUID       `json:"cheque_id"`
	ChequeNumber string          `json:"cheque_number"`
	Amount       decimal.Decimal `json:"amount"`
	OldStatus    ChequeStatus    `json:"old_status"`
	NewStatus    ChequeStatus    `json:"new_status"`
	OccurredOn   time.Time       `json:"occurred_on"`
}

// EventType returns the event type name
func (e *ChequeStatusUpdatedEvent) EventType() string {
	return EventTypeChequeStatusUpdated
}

// NewChequeStatusUpdatedEvent creates a new ChequeStatusUpdatedEvent
func NewChequeStatusUpdatedEvent(tenantID, chequeID uuid.UUID, chequeNumber string, amount decimal.Decimal, oldStatus, newStatus ChequeStatus, occurredOn time.Time) *ChequeStatusUpdatedEvent {
	return &ChequeStatusUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChequeStatusUpdated, "Cheque", chequeID, tenantID),
		ChequeID:        chequeID,
		ChequeNumber:    chequeNumber,
		Amount:          amount,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
		OccurredOn:      occurredOn,
	}
}
