package handler

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AuditLogHandler exposes the audit trail written by the unit of work
type AuditLogHandler struct {
	BaseHandler
	auditService *ledgerapp.AuditLogService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(auditService *ledgerapp.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// List returns a page of audit records, newest first
func (h *AuditLogHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var filter ledgerapp.AuditLogListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.auditService.ListAuditLogs(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
