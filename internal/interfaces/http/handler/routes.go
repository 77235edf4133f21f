package handler

import (
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// LedgerHandlers bundles the handlers mounted under /ledger
type LedgerHandlers struct {
	Accounts       *AccountHandler
	FiscalPeriods  *FiscalPeriodHandler
	JournalEntries *JournalEntryHandler
	AuditLogs      *AuditLogHandler
	Events         *EventIntakeHandler
}

// LedgerRoutes builds the ledger route group
func LedgerRoutes(h LedgerHandlers) *router.DomainGroup {
	ledger := router.NewDomainGroup("ledger", "/ledger")

	ledger.Group("accounts", "/accounts").
		POST("", h.Accounts.Create).
		GET("", h.Accounts.List).
		GET("/:id", h.Accounts.GetByID).
		POST("/:id/deactivate", h.Accounts.Deactivate).
		DELETE("/:id", h.Accounts.Delete)

	ledger.Group("fiscal-periods", "/fiscal-periods").
		POST("", h.FiscalPeriods.Create).
		GET("", h.FiscalPeriods.List).
		GET("/resolve", h.FiscalPeriods.Resolve).
		GET("/:id", h.FiscalPeriods.GetByID).
		POST("/:id/close", h.FiscalPeriods.Close).
		POST("/:id/reopen", h.FiscalPeriods.Reopen).
		POST("/:id/lock", h.FiscalPeriods.Lock).
		DELETE("/:id", h.FiscalPeriods.Delete)

	ledger.Group("journal-entries", "/journal-entries").
		POST("", h.JournalEntries.Create).
		GET("", h.JournalEntries.List).
		GET("/next-number", h.JournalEntries.NextNumber).
		GET("/:id", h.JournalEntries.GetByID).
		POST("/:id/lines", h.JournalEntries.AddLine).
		POST("/:id/post", h.JournalEntries.Post).
		DELETE("/:id", h.JournalEntries.Delete)

	ledger.Group("audit-logs", "/audit-logs").
		GET("", h.AuditLogs.List)

	ledger.Group("events", "/events").
		POST("/invoice-approved", h.Events.InvoiceApproved).
		POST("/payment-created", h.Events.PaymentCreated).
		POST("/cheque-created", h.Events.ChequeCreated).
		POST("/cheque-status-updated", h.Events.ChequeStatusUpdated)

	return ledger
}

// SystemRoutes builds the /system group. outboxGuard protects the outbox
// administration routes.
func SystemRoutes(system *SystemHandler, outbox *OutboxHandler, outboxGuard gin.HandlerFunc) *router.DomainGroup {
	sys := router.NewDomainGroup("system", "/system").
		GET("/info", system.GetSystemInfo).
		GET("/ping", system.Ping)

	admin := sys.Group("outbox", "/outbox")
	if outboxGuard != nil {
		admin.Use(outboxGuard)
	}
	admin.GET("/stats", outbox.GetStats).
		GET("/dead", outbox.GetDeadLetterEntries).
		GET("/:id", outbox.GetEntry).
		POST("/:id/retry", outbox.RetryDeadEntry)

	return sys
}
