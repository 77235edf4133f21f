package event

import "github.com/erp/ledger/internal/domain/ledger"

// RegisterLedgerEvents registers every event the ledger stores in or reads
// from the outbox, so the processor can decode their payloads
func RegisterLedgerEvents(serializer *EventSerializer) {
	// raised by the ledger
	serializer.Register(ledger.EventTypeJournalEntryPosted, &ledger.JournalEntryPostedEvent{})
	serializer.Register(ledger.EventTypeFiscalPeriodStatusChanged, &ledger.FiscalPeriodStatusChangedEvent{})

	// consumed by the posting translators
	serializer.Register(ledger.EventTypeInvoiceApproved, &ledger.InvoiceApprovedEvent{})
	serializer.Register(ledger.EventTypePaymentCreated, &ledger.PaymentCreatedEvent{})
	serializer.Register(ledger.EventTypeChequeCreated, &ledger.ChequeCreatedEvent{})
	serializer.Register(ledger.EventTypeChequeStatusUpdated, &ledger.ChequeStatusUpdatedEvent{})
}
