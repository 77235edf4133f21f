package handler

import (
	"strconv"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// OutboxHandler lets operators inspect the outbox and requeue dead letters
type OutboxHandler struct {
	BaseHandler
	outbox      shared.OutboxRepository
	translators *event.IdempotencyMetrics
}

// OutboxHandlerOption configures an OutboxHandler
type OutboxHandlerOption func(*OutboxHandler)

// WithTranslatorMetrics reports the delivery counters of the idempotent
// translators alongside the outbox statistics
func WithTranslatorMetrics(m *event.IdempotencyMetrics) OutboxHandlerOption {
	return func(h *OutboxHandler) {
		h.translators = m
	}
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outbox shared.OutboxRepository, opts ...OutboxHandlerOption) *OutboxHandler {
	h := &OutboxHandler{outbox: outbox}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OutboxEntryResponse represents an outbox entry in API responses
type OutboxEntryResponse struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	EventID       string     `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   string     `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxStatsResponse represents outbox statistics
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
	// Translators counts deliveries since process start
	Translators *event.IdempotencyStats `json:"translators,omitempty"`
}

// GetDeadLetterEntries lists dead letters, most recently failed first
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", dto.DefaultPageSize)
	if page < 1 || pageSize < 1 || pageSize > 100 {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	entries, total, err := h.outbox.FindDead(c.Request.Context(), page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]OutboxEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = toOutboxEntryResponse(entry)
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetEntry returns one outbox entry
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outbox.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOutboxEntryResponse(entry))
}

// RetryDeadEntry requeues a dead letter for delivery
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id", "entry")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	entry, err := h.outbox.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := entry.ResetForRetry(); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, err.Error())
		return
	}
	if err := h.outbox.Update(ctx, entry); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOutboxEntryResponse(entry))
}

// GetStats reports the number of entries per status
func (h *OutboxHandler) GetStats(c *gin.Context) {
	counts, err := h.outbox.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	stats := OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	if h.translators != nil {
		snapshot := h.translators.Stats()
		stats.Translators = &snapshot
	}
	h.Success(c, stats)
}

func toOutboxEntryResponse(e *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            e.ID.String(),
		TenantID:      e.TenantID.String(),
		EventID:       e.EventID.String(),
		EventType:     e.EventType,
		AggregateID:   e.AggregateID.String(),
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// queryInt reads an integer query parameter; malformed values read as -1
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
