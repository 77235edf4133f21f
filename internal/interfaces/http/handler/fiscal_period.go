package handler

import (
	"context"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FiscalPeriodHandler serves fiscal period maintenance
type FiscalPeriodHandler struct {
	BaseHandler
	periodService *ledgerapp.FiscalPeriodService
}

// NewFiscalPeriodHandler creates a new FiscalPeriodHandler
func NewFiscalPeriodHandler(periodService *ledgerapp.FiscalPeriodService) *FiscalPeriodHandler {
	return &FiscalPeriodHandler{periodService: periodService}
}

// Create opens a new fiscal period
func (h *FiscalPeriodHandler) Create(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateFiscalPeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, period)
}

// GetByID returns one fiscal period
func (h *FiscalPeriodHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	periodID, ok := h.pathUUID(c, "id", "fiscal period")
	if !ok {
		return
	}

	period, err := h.periodService.GetPeriod(c.Request.Context(), tenantID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// List returns a page of fiscal periods
func (h *FiscalPeriodHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var filter ledgerapp.FiscalPeriodListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.periodService.ListPeriods(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Resolve returns the open period a posting dated ?date= would be booked into
func (h *FiscalPeriodHandler) Resolve(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var query ledgerapp.ResolvePeriodQuery
	if !h.bindQuery(c, &query) {
		return
	}

	period, err := h.periodService.ResolveOpenPeriod(c.Request.Context(), tenantID, query.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ledgerapp.ToFiscalPeriodResponse(period))
}

// Delete soft deletes a period without entries
func (h *FiscalPeriodHandler) Delete(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	periodID, ok := h.pathUUID(c, "id", "fiscal period")
	if !ok {
		return
	}

	if err := h.periodService.DeletePeriod(c.Request.Context(), tenantID, periodID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Close closes an open period
func (h *FiscalPeriodHandler) Close(c *gin.Context) {
	h.transition(c, h.periodService.ClosePeriod)
}

// Reopen reopens a closed period
func (h *FiscalPeriodHandler) Reopen(c *gin.Context) {
	h.transition(c, h.periodService.ReopenPeriod)
}

// Lock locks a closed period for good
func (h *FiscalPeriodHandler) Lock(c *gin.Context) {
	h.transition(c, h.periodService.LockPeriod)
}

type periodTransition func(ctx context.Context, tenantID, id uuid.UUID) (*ledgerapp.FiscalPeriodResponse, error)

func (h *FiscalPeriodHandler) transition(c *gin.Context, apply periodTransition) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	periodID, ok := h.pathUUID(c, "id", "fiscal period")
	if !ok {
		return
	}

	period, err := apply(c.Request.Context(), tenantID, periodID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}
