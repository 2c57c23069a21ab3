package handler

import (
	"context"
	"errors"
	"io"

	approvalapp "github.com/gasdist/backend/internal/application/approval"
	"github.com/gasdist/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler handles the approval workflow endpoints
type ApprovalHandler struct {
	BaseHandler
	approvalService *approvalapp.Service
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(base BaseHandler, approvalService *approvalapp.Service) *ApprovalHandler {
	return &ApprovalHandler{BaseHandler: base, approvalService: approvalService}
}

// Submit handles POST /api/approvals
func (h *ApprovalHandler) Submit(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req approvalapp.SubmitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.approvalService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID handles GET /api/approvals/:id
func (h *ApprovalHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	resp, err := h.approvalService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /api/approvals
func (h *ApprovalHandler) List(c *gin.Context) {
	var filter approvalapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.approvalService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, items, total)
}

// Approve handles PUT /api/approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.approvalService.Approve)
}

// Reject handles PUT /api/approvals/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, h.approvalService.Reject)
}

type decisionFunc func(ctx context.Context, id, managerID uuid.UUID, notes string) (*approvalapp.ApprovalResponse, error)

// decide runs approve or reject on behalf of the calling manager. The body
// with managerNotes is optional.
func (h *ApprovalHandler) decide(c *gin.Context, fn decisionFunc) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	managerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req approvalapp.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := fn(c.Request.Context(), id, managerID, req.ManagerNotes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
