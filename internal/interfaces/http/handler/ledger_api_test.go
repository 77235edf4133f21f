package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingPublisher keeps accepted events instead of posting them
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// ledgerAPI serves the ledger routes over an in-memory sqlite ledger
type ledgerAPI struct {
	engine   *gin.Engine
	db       *gorm.DB
	tenantID uuid.UUID
	userID   uuid.UUID
}

// newLedgerAPI wires the ledger; a nil publisher routes events straight
// through an in-memory bus into the posting translators
func newLedgerAPI(t *testing.T, publisher shared.EventPublisher) *ledgerAPI {
	t.Helper()
	return newLedgerAPIWith(t, func(_ *persistence.GormUnitOfWork, bus *event.InMemoryEventBus) shared.EventPublisher {
		if publisher == nil {
			return bus
		}
		return publisher
	})
}

// newLedgerAPIWith lets intake build the event publisher from the ledger's
// unit of work and the translator bus
func newLedgerAPIWith(t *testing.T, intake func(uow *persistence.GormUnitOfWork, bus *event.InMemoryEventBus) shared.EventPublisher) *ledgerAPI {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	log := zap.NewNop()
	uow := persistence.NewGormUnitOfWork(db)
	accounts := persistence.NewGormAccountRepository(uow)
	periods := persistence.NewGormFiscalPeriodRepository(uow)
	entries := persistence.NewGormJournalEntryRepository(uow)
	allocator := persistence.NewGormEntryNumberAllocator(uow)

	resolver, err := ledgerapp.NewAccountResolver(accounts, ledger.DefaultAccountMapping())
	require.NoError(t, err)
	periodSvc := ledgerapp.NewFiscalPeriodService(uow, periods, entries, nil, log)
	posting := ledgerapp.NewPostingService(uow, accounts, entries, allocator, periodSvc, resolver, log)

	bus := event.NewInMemoryEventBus(log)
	for _, h := range ledgerapp.Translators(posting, log) {
		bus.Subscribe(h)
	}
	publisher := intake(uow, bus)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{HeaderEnabled: true, Required: true}))
	router.NewRouter(engine).Register(LedgerRoutes(LedgerHandlers{
		Accounts:       NewAccountHandler(ledgerapp.NewAccountService(uow, accounts, resolver, log)),
		FiscalPeriods:  NewFiscalPeriodHandler(periodSvc),
		JournalEntries: NewJournalEntryHandler(ledgerapp.NewJournalEntryService(uow, accounts, entries, allocator, periodSvc, nil, log)),
		AuditLogs:      NewAuditLogHandler(ledgerapp.NewAuditLogService(persistence.NewGormAuditLogRepository(uow))),
		Events:         NewEventIntakeHandler(publisher),
	})).Setup()

	return &ledgerAPI{engine: engine, db: db, tenantID: uuid.New(), userID: uuid.New()}
}

func (a *ledgerAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doAs(t, a.tenantID, method, path, body)
}

func (a *ledgerAPI) doAs(t *testing.T, tenantID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1/ledger"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	req.Header.Set(middleware.UserHeaderKey, a.userID.String())
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func (a *ledgerAPI) createAccount(t *testing.T, code, accountType string) ledgerapp.AccountResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/accounts", gin.H{"code": code, "name": "Account " + code, "type": accountType})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[ledgerapp.AccountResponse](t, w)
}

func (a *ledgerAPI) createJanuary(t *testing.T) ledgerapp.FiscalPeriodResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/fiscal-periods", gin.H{
		"code":          "2026-01",
		"start_date":    "2026-01-01T00:00:00Z",
		"end_date":      "2026-01-31T00:00:00Z",
		"fiscal_year":   2026,
		"period_number": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[ledgerapp.FiscalPeriodResponse](t, w)
}

func TestLedgerRoutes_Registered(t *testing.T) {
	routes := LedgerRoutes(LedgerHandlers{
		Accounts:       &AccountHandler{},
		FiscalPeriods:  &FiscalPeriodHandler{},
		JournalEntries: &JournalEntryHandler{},
		AuditLogs:      &AuditLogHandler{},
		Events:         &EventIntakeHandler{},
	}).Routes()

	assert.Contains(t, routes, router.RouteInfo{Group: "journal-entries", Method: http.MethodPost, Path: "/ledger/journal-entries/:id/post"})
	assert.Contains(t, routes, router.RouteInfo{Group: "fiscal-periods", Method: http.MethodPost, Path: "/ledger/fiscal-periods/:id/lock"})
	assert.Contains(t, routes, router.RouteInfo{Group: "fiscal-periods", Method: http.MethodGet, Path: "/ledger/fiscal-periods/resolve"})
	assert.Contains(t, routes, router.RouteInfo{Group: "events", Method: http.MethodPost, Path: "/ledger/events/cheque-status-updated"})
	assert.Contains(t, routes, router.RouteInfo{Group: "audit-logs", Method: http.MethodGet, Path: "/ledger/audit-logs"})
}

func TestAccountAPI_Lifecycle(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})

	bank := api.createAccount(t, "102001", "ASSET")
	assert.Equal(t, "102001", bank.Code)
	assert.True(t, bank.IsActive)

	w := api.do(t, http.MethodPost, "/accounts", gin.H{"code": "102001", "name": "Dup", "type": "ASSET"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, errorCodeOf(t, w))

	w = api.do(t, http.MethodPost, "/accounts", gin.H{"code": "999", "name": "Bad", "type": "STOCK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCodeOf(t, w))

	w = api.do(t, http.MethodGet, "/accounts/"+bank.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bank.ID, decodeData[ledgerapp.AccountResponse](t, w).ID)

	w = api.do(t, http.MethodPost, "/accounts/"+bank.ID.String()+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[ledgerapp.AccountResponse](t, w).IsActive)

	w = api.do(t, http.MethodDelete, "/accounts/"+bank.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/accounts/"+bank.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/accounts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountAPI_TenantIsolation(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	account := api.createAccount(t, "770001", "EXPENSE")

	w := api.doAs(t, uuid.New(), http.MethodGet, "/accounts/"+account.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.doAs(t, uuid.New(), http.MethodGet, "/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]ledgerapp.AccountResponse](t, w))
}

func TestAccountAPI_ListPaginates(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	for _, code := range []string{"770001", "770002", "320001"} {
		api.createAccount(t, code, "EXPENSE")
	}

	w := api.do(t, http.MethodGet, "/accounts?page=1&page_size=2&code_prefix=770", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Len(t, decodeData[[]ledgerapp.AccountResponse](t, w), 2)

	w = api.do(t, http.MethodGet, "/accounts?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFiscalPeriodAPI_Transitions(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	period := api.createJanuary(t)
	assert.Equal(t, "OPEN", period.Status)

	w := api.do(t, http.MethodPost, "/fiscal-periods", gin.H{
		"code":        "2026-01B",
		"start_date":  "2026-01-15T00:00:00Z",
		"end_date":    "2026-02-15T00:00:00Z",
		"fiscal_year": 2026,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodePeriodOverlap, errorCodeOf(t, w))

	base := "/fiscal-periods/" + period.ID.String()
	w = api.do(t, http.MethodPost, base+"/lock", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidPeriodTransition, errorCodeOf(t, w))

	for _, step := range []struct{ action, status string }{
		{"close", "CLOSED"}, {"reopen", "OPEN"}, {"close", "CLOSED"}, {"lock", "LOCKED"},
	} {
		w = api.do(t, http.MethodPost, base+"/"+step.action, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step.action, w.Body.String())
		assert.Equal(t, step.status, decodeData[ledgerapp.FiscalPeriodResponse](t, w).Status)
	}

	w = api.do(t, http.MethodPost, base+"/reopen", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(t, http.MethodGet, "/fiscal-periods?status=LOCKED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ledgerapp.FiscalPeriodResponse](t, w), 1)
}

func TestFiscalPeriodAPI_ResolveAndDelete(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	period := api.createJanuary(t)

	w := api.do(t, http.MethodGet, "/fiscal-periods/resolve?date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, period.ID, decodeData[ledgerapp.FiscalPeriodResponse](t, w).ID)

	w = api.do(t, http.MethodGet, "/fiscal-periods/resolve?date=2026-02-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeNoOpenPeriod, errorCodeOf(t, w))

	w = api.do(t, http.MethodGet, "/fiscal-periods/resolve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, "/fiscal-periods/"+period.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, "/fiscal-periods/"+period.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalEntryAPI_ManualEntry(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	api.createJanuary(t)
	expense := api.createAccount(t, "770001", "EXPENSE")
	payable := api.createAccount(t, "320001", "LIABILITY")

	w := api.do(t, http.MethodGet, "/journal-entries/next-number?year=2026", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, NextNumberResponse{Year: 2026, EntryNumber: "JE-2026-0001"}, decodeData[NextNumberResponse](t, w))

	w = api.do(t, http.MethodPost, "/journal-entries", gin.H{
		"entry_date":  "2026-01-10T00:00:00Z",
		"description": "Office rent",
		"lines": []gin.H{
			{"account_id": expense.ID, "debit": "250", "credit": "0"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeData[ledgerapp.JournalEntryResponse](t, w)
	assert.Equal(t, "DRAFT", draft.Status)

	w = api.do(t, http.MethodPost, "/journal-entries/"+draft.ID.String()+"/post", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeUnbalancedEntry, errorCodeOf(t, w))

	w = api.do(t, http.MethodPost, "/journal-entries/"+draft.ID.String()+"/lines", gin.H{
		"account_id": payable.ID, "debit": "0", "credit": "250",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeData[ledgerapp.JournalEntryResponse](t, w).Lines, 2)

	w = api.do(t, http.MethodPost, "/journal-entries/"+draft.ID.String()+"/post", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	posted := decodeData[ledgerapp.JournalEntryResponse](t, w)
	assert.Equal(t, "POSTED", posted.Status)
	assert.True(t, decimal.NewFromInt(250).Equal(posted.TotalDebit))

	w = api.do(t, http.MethodPost, "/journal-entries/"+draft.ID.String()+"/post", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeEntryNotDraft, errorCodeOf(t, w))

	w = api.do(t, http.MethodGet, "/accounts/"+expense.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.NewFromInt(250).Equal(decodeData[ledgerapp.AccountResponse](t, w).Balance))

	w = api.do(t, http.MethodGet, "/journal-entries?status=POSTED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ledgerapp.JournalEntryResponse](t, w), 1)

	w = api.do(t, http.MethodGet, "/audit-logs?entity_name=JournalEntry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeData[[]ledgerapp.AuditLogResponse](t, w))
}

func TestJournalEntryAPI_DeleteDraftOnly(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	api.createJanuary(t)
	expense := api.createAccount(t, "770001", "EXPENSE")
	payable := api.createAccount(t, "320001", "LIABILITY")
	lines := []gin.H{
		{"account_id": expense.ID, "debit": "15", "credit": "0"},
		{"account_id": payable.ID, "debit": "0", "credit": "15"},
	}

	w := api.do(t, http.MethodPost, "/journal-entries", gin.H{"entry_date": "2026-01-12T00:00:00Z", "lines": lines})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeData[ledgerapp.JournalEntryResponse](t, w)

	w = api.do(t, http.MethodDelete, "/journal-entries/"+draft.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/journal-entries/"+draft.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/journal-entries", gin.H{"entry_date": "2026-01-12T00:00:00Z", "lines": lines, "post": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	posted := decodeData[ledgerapp.JournalEntryResponse](t, w)

	w = api.do(t, http.MethodDelete, "/journal-entries/"+posted.ID.String(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeEntryNotDraft, errorCodeOf(t, w))
}

func TestJournalEntryAPI_NoOpenPeriod(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	api.createJanuary(t)
	expense := api.createAccount(t, "770001", "EXPENSE")
	payable := api.createAccount(t, "320001", "LIABILITY")

	w := api.do(t, http.MethodPost, "/journal-entries", gin.H{
		"entry_date": "2026-03-10T00:00:00Z",
		"post":       true,
		"lines": []gin.H{
			{"account_id": expense.ID, "debit": "10", "credit": "0"},
			{"account_id": payable.ID, "debit": "0", "credit": "10"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeNoOpenPeriod, errorCodeOf(t, w))

	w = api.do(t, http.MethodGet, "/journal-entries/next-number?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventIntakeAPI_AcceptsAndPublishes(t *testing.T) {
	publisher := &recordingPublisher{}
	api := newLedgerAPI(t, publisher)
	eventID := uuid.New()
	chequeID := uuid.New()

	w := api.do(t, http.MethodPost, "/events/cheque-status-updated", gin.H{
		"event_id":      eventID,
		"cheque_id":     chequeID,
		"cheque_number": "CHQ-100",
		"amount":        "75.50",
		"old_status":    "PORTFOLIO",
		"new_status":    "BANK_COLLECTION",
		"occurred_on":   "2026-01-20T00:00:00Z",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decodeData[EventAcceptedResponse](t, w)
	assert.Equal(t, eventID, accepted.EventID)
	assert.Equal(t, ledger.EventTypeChequeStatusUpdated, accepted.EventType)

	require.Len(t, publisher.events, 1)
	got, ok := publisher.events[0].(*ledger.ChequeStatusUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, api.tenantID, got.TenantID())
	assert.Equal(t, chequeID, got.ChequeID)
	assert.Equal(t, ledger.ChequeStatusBankCollection, got.NewStatus)
	assert.True(t, decimal.RequireFromString("75.50").Equal(got.Amount))

	w = api.do(t, http.MethodPost, "/events/cheque-status-updated", gin.H{
		"cheque_id":     chequeID,
		"cheque_number": "CHQ-100",
		"old_status":    "PORTFOLIO",
		"new_status":    "LOST",
		"occurred_on":   "2026-01-20T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, publisher.events, 1)
}

func TestEventIntakeAPI_InvoicePostsThroughTranslators(t *testing.T) {
	api := newLedgerAPI(t, nil)
	api.createJanuary(t)
	expense := api.createAccount(t, "770001", "EXPENSE")
	payable := api.createAccount(t, "320001", "LIABILITY")

	invoice := gin.H{
		"event_id":       uuid.New(),
		"invoice_id":     uuid.New(),
		"invoice_number": "INV-900",
		"supplier_name":  "Acme",
		"amount":         "1000",
		"date":           "2026-01-15T00:00:00Z",
	}
	w := api.do(t, http.MethodPost, "/events/invoice-approved", invoice)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	// redelivery of the same event must not post twice
	w = api.do(t, http.MethodPost, "/events/invoice-approved", invoice)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/journal-entries?source_type=Invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeData[[]ledgerapp.JournalEntryResponse](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "INV-900", entries[0].SourceReference)

	for id, want := range map[uuid.UUID]int64{expense.ID: 1000, payable.ID: 1000} {
		w = api.do(t, http.MethodGet, "/accounts/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decimal.NewFromInt(want).Equal(decodeData[ledgerapp.AccountResponse](t, w).Balance))
	}

	// outside any period the translator error surfaces to the producer
	invoice["event_id"] = uuid.New()
	invoice["date"] = "2026-06-01T00:00:00Z"
	w = api.do(t, http.MethodPost, "/events/invoice-approved", invoice)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeNoOpenPeriod, errorCodeOf(t, w))
}

func TestEventIntakeAPI_OutboxRedeliveryIsAccepted(t *testing.T) {
	var outboxRepo *event.GormOutboxRepository
	api := newLedgerAPIWith(t, func(uow *persistence.GormUnitOfWork, bus *event.InMemoryEventBus) shared.EventPublisher {
		serializer := event.NewEventSerializer()
		event.RegisterLedgerEvents(serializer)
		outboxRepo = event.NewGormOutboxRepository(uow.DB(context.Background()))
		config := event.DefaultOutboxProcessorConfig()
		config.CleanupEnabled = false
		processor := event.NewOutboxProcessor(outboxRepo, bus, serializer, config, zap.NewNop())
		return event.NewOutboxIntake(uow, event.NewOutboxPublisher(serializer), event.WithInlineDelivery(processor))
	})
	api.createJanuary(t)
	expense := api.createAccount(t, "770001", "EXPENSE")
	api.createAccount(t, "320001", "LIABILITY")

	invoice := gin.H{
		"event_id":       uuid.New(),
		"invoice_id":     uuid.New(),
		"invoice_number": "INV-901",
		"supplier_name":  "Acme",
		"amount":         "250",
		"date":           "2026-01-16T00:00:00Z",
	}
	for i := 0; i < 2; i++ {
		w := api.do(t, http.MethodPost, "/events/invoice-approved", invoice)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	}

	counts, err := outboxRepo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent], "one row for the redelivered event")
	assert.Zero(t, counts[shared.OutboxStatusPending])

	w := api.do(t, http.MethodGet, "/journal-entries?source_type=Invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ledgerapp.JournalEntryResponse](t, w), 1)

	w = api.do(t, http.MethodGet, "/accounts/"+expense.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.NewFromInt(250).Equal(decodeData[ledgerapp.AccountResponse](t, w).Balance))
}

func TestLedgerAPI_RequiresTenant(t *testing.T) {
	api := newLedgerAPI(t, &recordingPublisher{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/accounts", nil)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
