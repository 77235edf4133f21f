package handler

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the chart of accounts
type AccountHandler struct {
	BaseHandler
	accountService *ledgerapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *ledgerapp.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Create adds an account to the tenant's chart
func (h *AccountHandler) Create(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// GetByID returns one account
func (h *AccountHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathUUID(c, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// List returns a page of accounts
func (h *AccountHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var filter ledgerapp.AccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.accountService.ListAccounts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Deactivate retires an account from further posting
func (h *AccountHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathUUID(c, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.DeactivateAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Delete soft-deletes an account without balance
func (h *AccountHandler) Delete(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathUUID(c, "id", "account")
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), tenantID, accountID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
