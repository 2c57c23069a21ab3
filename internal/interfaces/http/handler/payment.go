package handler

import (
	salesapp "github.com/gasdist/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *salesapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(base BaseHandler, paymentService *salesapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, paymentService: paymentService}
}

// Create handles POST /api/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req salesapp.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.paymentService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// GetByID handles GET /api/payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	payment, err := h.paymentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List handles GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	var filter salesapp.PaymentListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	payments, total, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, payments, total)
}

// Update handles PUT /api/payments/:id
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req salesapp.UpdatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.paymentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Delete handles DELETE /api/payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.paymentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Payment")
}
