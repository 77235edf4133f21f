package event

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delivery outcomes reported to a DeliveryRecorder
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliveryDead      = "dead"
)

// DeliveryRecorder observes the outcome of every outbox delivery attempt
type DeliveryRecorder interface {
	RecordOutboxDelivery(ctx context.Context, eventType, outcome string)
}

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor delivers outbox entries to the event bus in the background.
//
// Each entry is published with its tenant in the context. A failed delivery
// is rescheduled with exponential backoff until MaxRetries, after which the
// entry becomes a dead letter.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	eventBus   shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger
	recorder   DeliveryRecorder

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OutboxProcessorOption configures an OutboxProcessor
type OutboxProcessorOption func(*OutboxProcessor)

// WithDeliveryRecorder reports delivery outcomes, typically to metrics
func WithDeliveryRecorder(recorder DeliveryRecorder) OutboxProcessorOption {
	return func(p *OutboxProcessor) {
		p.recorder = recorder
	}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	eventBus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
	opts ...OutboxProcessorOption,
) *OutboxProcessor {
	p := &OutboxProcessor{
		repo:       repo,
		eventBus:   eventBus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the polling loop and, when enabled, the cleanup loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for the batch in flight
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch delivers one batch of pending entries followed by one batch of
// entries due for retry. It returns the number of entries delivered.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	delivered := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending entries", zap.Error(err))
		return delivered
	}
	delivered += p.processEntries(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now().UTC(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable entries", zap.Error(err))
		return delivered
	}
	return delivered + p.processEntries(ctx, retryable)
}

func (p *OutboxProcessor) processEntries(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to mark entries as processing", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		if p.processEntry(ctx, entry) {
			delivered++
		}
	}
	return delivered
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry *shared.OutboxEntry) bool {
	ctx = logger.WithTenantID(ctx, entry.TenantID)
	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
	}

	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.eventBus.Publish(ctx, event)
	}
	if err != nil {
		p.fail(ctx, entry, err, fields)
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark entry as sent", append(fields, zap.Error(err))...)
	}
	p.record(ctx, entry.EventType, DeliveryDelivered)
	p.logger.Debug("event delivered", fields...)
	return true
}

func (p *OutboxProcessor) fail(ctx context.Context, entry *shared.OutboxEntry, err error, fields []zap.Field) {
	entry.MarkFailed(err.Error())
	if entry.IsDead() {
		p.logger.Warn("event moved to dead letter queue",
			append(fields,
				zap.String("aggregate_type", entry.AggregateType),
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.Int("retry_count", entry.RetryCount),
				zap.String("last_error", entry.LastError),
			)...,
		)
		p.record(ctx, entry.EventType, DeliveryDead)
	} else {
		p.logger.Error("failed to deliver event",
			append(fields, zap.Int("retry_count", entry.RetryCount), zap.Error(err))...)
		p.record(ctx, entry.EventType, DeliveryFailed)
	}
	if updateErr := p.repo.Update(ctx, entry); updateErr != nil {
		p.logger.Error("failed to update entry", append(fields, zap.Error(updateErr))...)
	}
}

func (p *OutboxProcessor) record(ctx context.Context, eventType, outcome string) {
	if p.recorder != nil {
		p.recorder.RecordOutboxDelivery(ctx, eventType, outcome)
	}
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to cleanup old entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up old outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
