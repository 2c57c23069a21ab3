package approval

import (
	"time"

	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubmitRequest represents an operator's request to edit or delete an entity
type SubmitRequest struct {
	RequestType      string       `json:"requestType" binding:"required,oneof=customer_edit customer_delete transaction_edit transaction_delete"`
	EntityType       string       `json:"entityType" binding:"omitempty,oneof=customer transaction"`
	EntityID         uuid.UUID    `json:"entityId" binding:"required"`
	RequestedChanges shared.Patch `json:"requestedChanges"`
	Reason           string       `json:"reason" binding:"max=1000"`
}

// DecisionRequest carries the manager's notes for approve and reject
type DecisionRequest struct {
	ManagerNotes string `json:"managerNotes" binding:"max=1000"`
}

// ApprovalResponse represents an approval request in API responses
type ApprovalResponse struct {
	ID               uuid.UUID    `json:"id"`
	RequestType      string       `json:"requestType"`
	EntityType       string       `json:"entityType"`
	EntityID         uuid.UUID    `json:"entityId"`
	RequestedBy      uuid.UUID    `json:"requestedBy"`
	ApprovedBy       *uuid.UUID   `json:"approvedBy"`
	Status           string       `json:"status"`
	OriginalData     shared.Patch `json:"originalData"`
	RequestedChanges shared.Patch `json:"requestedChanges"`
	Reason           string       `json:"reason,omitempty"`
	ManagerNotes     string       `json:"managerNotes,omitempty"`
	ProcessedAt      *time.Time   `json:"processedAt"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ListFilter represents filter options for the approval list
type ListFilter struct {
	Status      string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	EntityType  string `form:"entityType" binding:"omitempty,oneof=customer transaction"`
	RequestedBy string `form:"requestedBy" binding:"omitempty,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToDomain builds the repository filter
func (f ListFilter) ToDomain() (approval.Filter, error) {
	out := approval.Filter{
		Filter:     shared.DefaultFilter(),
		Status:     approval.Status(f.Status),
		EntityType: approval.EntityType(f.EntityType),
	}
	if f.Page > 0 {
		out.Page = f.Page
	}
	if f.PageSize > 0 {
		out.PageSize = f.PageSize
	}
	if f.Status != "" && !out.Status.IsValid() {
		return out, shared.NewValidationError("status must be one of: pending, approved, rejected")
	}
	if f.EntityType != "" && !out.EntityType.IsValid() {
		return out, shared.NewValidationError("entityType must be customer or transaction")
	}
	if f.RequestedBy != "" {
		id, err := uuid.Parse(f.RequestedBy)
		if err != nil {
			return out, shared.NewValidationError("requestedBy must be a valid UUID")
		}
		out.RequestedBy = &id
	}
	return out, nil
}

// ToApprovalResponse converts a domain approval to a response
func ToApprovalResponse(a *approval.PendingApproval) ApprovalResponse {
	return ApprovalResponse{
		ID:               a.ID,
		RequestType:      string(a.RequestType),
		EntityType:       string(a.EntityType),
		EntityID:         a.EntityID,
		RequestedBy:      a.RequestedBy,
		ApprovedBy:       a.ApprovedBy,
		Status:           string(a.Status),
		OriginalData:     a.OriginalData,
		RequestedChanges: a.RequestedChanges,
		Reason:           a.Reason,
		ManagerNotes:     a.ManagerNotes,
		ProcessedAt:      a.ProcessedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// ToApprovalResponses converts a slice of approvals
func ToApprovalResponses(as []approval.PendingApproval) []ApprovalResponse {
	out := make([]ApprovalResponse, len(as))
	for i := range as {
		out[i] = ToApprovalResponse(&as[i])
	}
	return out
}
