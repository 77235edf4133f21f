package handler

import (
	"strconv"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/gin-gonic/gin"
)

// JournalEntryHandler serves manual journal entries and journal queries
type JournalEntryHandler struct {
	BaseHandler
	journalService *ledgerapp.JournalEntryService
}

// NewJournalEntryHandler creates a new JournalEntryHandler
func NewJournalEntryHandler(journalService *ledgerapp.JournalEntryService) *JournalEntryHandler {
	return &JournalEntryHandler{journalService: journalService}
}

// NextNumberResponse carries a previewed entry number
type NextNumberResponse struct {
	Year        int    `json:"year"`
	EntryNumber string `json:"entry_number"`
}

// Create drafts a manual entry, posting it when the request asks to
func (h *JournalEntryHandler) Create(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateManualEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.journalService.CreateManualEntry(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// AddLine appends a line to a draft entry
func (h *JournalEntryHandler) AddLine(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	entryID, ok := h.pathUUID(c, "id", "journal entry")
	if !ok {
		return
	}

	var req ledgerapp.JournalLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.journalService.AddLine(c.Request.Context(), tenantID, entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Post posts a draft entry
func (h *JournalEntryHandler) Post(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	entryID, ok := h.pathUUID(c, "id", "journal entry")
	if !ok {
		return
	}

	entry, err := h.journalService.PostEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Delete discards a draft entry
func (h *JournalEntryHandler) Delete(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	entryID, ok := h.pathUUID(c, "id", "journal entry")
	if !ok {
		return
	}

	if err := h.journalService.DeleteDraft(c.Request.Context(), tenantID, entryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetByID returns an entry with its lines
func (h *JournalEntryHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	entryID, ok := h.pathUUID(c, "id", "journal entry")
	if !ok {
		return
	}

	entry, err := h.journalService.GetByID(c.Request.Context(), tenantID, entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// List returns a page of entry headers
func (h *JournalEntryHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var filter ledgerapp.JournalEntryListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.journalService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// NextNumber previews the next entry number of a year without consuming it.
// The year defaults to the current one.
func (h *JournalEntryHandler) NextNumber(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "Invalid year")
			return
		}
		year = parsed
	}

	number, err := h.journalService.NextEntryNumber(c.Request.Context(), tenantID, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if year == 0 {
		year, _, _ = ledger.ParseEntryNumber(number)
	}

	h.Success(c, NextNumberResponse{Year: year, EntryNumber: number})
}
