package handler

import (
	salesapp "github.com/gasdist/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles cylinder sale and refill endpoints
type TransactionHandler struct {
	BaseHandler
	transactionService *salesapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(base BaseHandler, transactionService *salesapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, transactionService: transactionService}
}

// Create handles POST /api/transactions. The caller is recorded as the
// operator who made the sale.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req salesapp.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tx, err := h.transactionService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// GetByID handles GET /api/transactions/:id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	tx, err := h.transactionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// GetByReceiptNumber handles GET /api/transactions/receipts/:receiptNumber
func (h *TransactionHandler) GetByReceiptNumber(c *gin.Context) {
	tx, err := h.transactionService.GetByReceiptNumber(c.Request.Context(), c.Param("receiptNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// List handles GET /api/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var filter salesapp.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	txs, total, err := h.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, txs, total)
}

// Update handles PUT /api/transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req salesapp.UpdateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tx, err := h.transactionService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Delete handles DELETE /api/transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.transactionService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Transaction")
}
