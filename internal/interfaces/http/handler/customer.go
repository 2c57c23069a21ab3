package handler

import (
	partnerapp "github.com/gasdist/backend/internal/application/partner"
	salesapp "github.com/gasdist/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer endpoints, including the per-customer
// transaction and payment histories
type CustomerHandler struct {
	BaseHandler
	customerService    *partnerapp.CustomerService
	transactionService *salesapp.TransactionService
	paymentService     *salesapp.PaymentService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(
	base BaseHandler,
	customerService *partnerapp.CustomerService,
	transactionService *salesapp.TransactionService,
	paymentService *salesapp.PaymentService,
) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler:        base,
		customerService:    customerService,
		transactionService: transactionService,
		paymentService:     paymentService,
	}
}

// Create handles POST /api/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID handles GET /api/customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List handles GET /api/customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter partnerapp.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	customers, total, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, customers, total)
}

// Update handles PUT /api/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req partnerapp.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete handles DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Customer")
}

// ListTransactions handles GET /api/customers/:id/transactions
func (h *CustomerHandler) ListTransactions(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var filter salesapp.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if _, err := h.customerService.GetByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	filter.CustomerID = id.String()
	transactions, total, err := h.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, transactions, total)
}

// ListPayments handles GET /api/customers/:id/payments
func (h *CustomerHandler) ListPayments(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var filter salesapp.PaymentListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if _, err := h.customerService.GetByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	filter.CustomerID = id.String()
	payments, total, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, payments, total)
}
