package event

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher stores domain events in the outbox inside the caller's transaction
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// OutboxPublisherOption configures an OutboxPublisher
type OutboxPublisherOption func(*OutboxPublisher)

// WithMaxRetries sets the delivery attempts granted to new entries before
// they become dead letters. Values below one keep the default.
func WithMaxRetries(n int) OutboxPublisherOption {
	return func(p *OutboxPublisher) {
		if n > 0 {
			p.maxRetries = n
		}
	}
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, opts ...OutboxPublisherOption) *OutboxPublisher {
	p := &OutboxPublisher{serializer: serializer, maxRetries: shared.DefaultMaxRetries}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishWithTx serializes events and inserts one outbox row per event through tx
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		if !p.serializer.IsRegistered(event.EventType()) {
			return fmt.Errorf("%w: %s is not registered with the outbox serializer", ErrUnknownEventType, event.EventType())
		}
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entry := shared.NewOutboxEntry(event, payload)
		entry.MaxRetries = p.maxRetries
		entries = append(entries, entry)
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// SaveEvents implements shared.OutboxEventSaver; txProvider must be the *gorm.DB transaction
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}
	return p.PublishWithTx(ctx, tx, events...)
}

// Ensure OutboxPublisher implements OutboxEventSaver
var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)

// TransactionRunner runs fn in a transaction and exposes the transaction
// carried by ctx. persistence.GormUnitOfWork satisfies it.
type TransactionRunner interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	DB(ctx context.Context) *gorm.DB
}

// OutboxIntake is an EventPublisher that only enqueues: events accepted from
// other modules land in the outbox and reach the bus through the
// OutboxProcessor, so a crash never loses an accepted event.
//
// The rows are written in the unit of work carried by ctx, or in a
// transaction of their own. An event whose id is already stored is accepted
// without a second row.
type OutboxIntake struct {
	tx        TransactionRunner
	publisher *OutboxPublisher
	inline    *OutboxProcessor
}

// OutboxIntakeOption configures an OutboxIntake
type OutboxIntakeOption func(*OutboxIntake)

// WithInlineDelivery makes Publish run one delivery batch of processor after
// the rows are stored. Used when no background processor polls the outbox.
func WithInlineDelivery(processor *OutboxProcessor) OutboxIntakeOption {
	return func(i *OutboxIntake) {
		i.inline = processor
	}
}

// NewOutboxIntake creates an intake storing events through publisher
func NewOutboxIntake(tx TransactionRunner, publisher *OutboxPublisher, opts ...OutboxIntakeOption) *OutboxIntake {
	i := &OutboxIntake{tx: tx, publisher: publisher}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Publish stores all events atomically
func (i *OutboxIntake) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := i.tx.Execute(ctx, func(ctx context.Context) error {
		return i.publisher.PublishWithTx(ctx, i.tx.DB(ctx), events...)
	})
	if err != nil {
		return err
	}
	if i.inline != nil {
		// Delivery failures stay in the outbox as FAILED rows; the next batch retries them.
		i.inline.ProcessBatch(ctx)
	}
	return nil
}

var _ shared.EventPublisher = (*OutboxIntake)(nil)
