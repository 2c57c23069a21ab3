package approval

import (
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types published by the approval workflow
const (
	EventTypeSubmitted = "approval.submitted"
	EventTypeApproved  = "approval.approved"
	EventTypeRejected  = "approval.rejected"
)

const aggregateType = "PendingApproval"

// SubmittedEvent is raised when an operator submits a request
type SubmittedEvent struct {
	shared.BaseDomainEvent
	ApprovalID  uuid.UUID   `json:"approvalId"`
	RequestType RequestType `json:"requestType"`
	EntityType  EntityType  `json:"entityType"`
	EntityID    uuid.UUID   `json:"entityId"`
	RequestedBy uuid.UUID   `json:"requestedBy"`
	Reason      string      `json:"reason,omitempty"`
}

// NewSubmittedEvent creates a SubmittedEvent
func NewSubmittedEvent(a *PendingApproval) *SubmittedEvent {
	return &SubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubmitted, aggregateType, a.ID),
		ApprovalID:      a.ID,
		RequestType:     a.RequestType,
		EntityType:      a.EntityType,
		EntityID:        a.EntityID,
		RequestedBy:     a.RequestedBy,
		Reason:          a.Reason,
	}
}

// DecidedEvent is raised when a manager approves or rejects a request
type DecidedEvent struct {
	shared.BaseDomainEvent
	ApprovalID   uuid.UUID   `json:"approvalId"`
	RequestType  RequestType `json:"requestType"`
	EntityID     uuid.UUID   `json:"entityId"`
	RequestedBy  uuid.UUID   `json:"requestedBy"`
	DecidedBy    uuid.UUID   `json:"decidedBy"`
	Status       Status      `json:"status"`
	ManagerNotes string      `json:"managerNotes,omitempty"`
}

// NewApprovedEvent creates the event for an approved request
func NewApprovedEvent(a *PendingApproval) *DecidedEvent {
	return newDecidedEvent(EventTypeApproved, a)
}

// NewRejectedEvent creates the event for a rejected request
func NewRejectedEvent(a *PendingApproval) *DecidedEvent {
	return newDecidedEvent(EventTypeRejected, a)
}

func newDecidedEvent(eventType string, a *PendingApproval) *DecidedEvent {
	var decidedBy uuid.UUID
	if a.ApprovedBy != nil {
		decidedBy = *a.ApprovedBy
	}
	return &DecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType, a.ID),
		ApprovalID:      a.ID,
		RequestType:     a.RequestType,
		EntityID:        a.EntityID,
		RequestedBy:     a.RequestedBy,
		DecidedBy:       decidedBy,
		Status:          a.Status,
		ManagerNotes:    a.ManagerNotes,
	}
}
