package approval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityType is the kind of record an approval targets
type EntityType string

const (
	EntityCustomer    EntityType = "customer"
	EntityTransaction EntityType = "transaction"
)

// IsValid reports whether t is a known entity type
func (t EntityType) IsValid() bool {
	return t == EntityCustomer || t == EntityTransaction
}

// RequestType is the change an operator asks for
type RequestType string

const (
	RequestCustomerEdit      RequestType = "customer_edit"
	RequestCustomerDelete    RequestType = "customer_delete"
	RequestTransactionEdit   RequestType = "transaction_edit"
	RequestTransactionDelete RequestType = "transaction_delete"
)

// EntityType returns the entity kind the request type applies to
func (t RequestType) EntityType() EntityType {
	switch t {
	case RequestCustomerEdit, RequestCustomerDelete:
		return EntityCustomer
	case RequestTransactionEdit, RequestTransactionDelete:
		return EntityTransaction
	}
	return ""
}

// IsDelete reports whether the request removes the entity
func (t RequestType) IsDelete() bool {
	return t == RequestCustomerDelete || t == RequestTransactionDelete
}

// IsValid reports whether t is a known request type
func (t RequestType) IsValid() bool {
	return t.EntityType() != ""
}

// Status is the review state of an approval
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// target status -> statuses it may be reached from
var transitions = map[Status][]Status{
	StatusApproved: {StatusPending},
	StatusRejected: {StatusPending},
}

// CanTransition reports whether an approval may move from one status to another
func CanTransition(from, to Status) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// PendingApproval is an operator's request to edit or delete a customer or
// transaction, held until a manager decides on it.
type PendingApproval struct {
	shared.BaseAggregateRoot
	RequestType      RequestType
	EntityType       EntityType
	EntityID         uuid.UUID
	RequestedBy      uuid.UUID
	ApprovedBy       *uuid.UUID
	Status           Status
	OriginalData     shared.Patch
	RequestedChanges shared.Patch
	Reason           string
	ManagerNotes     string
	ProcessedAt      *time.Time
}

// SubmitInput carries the fields of a new approval request
type SubmitInput struct {
	RequestType      RequestType
	EntityType       EntityType
	EntityID         uuid.UUID
	RequestedBy      uuid.UUID
	OriginalData     shared.Patch
	RequestedChanges shared.Patch
	Reason           string
}

// NewPendingApproval creates a pending request. The entity type may be omitted and
// is then derived from the request type. Delete requests carry no changes.
func NewPendingApproval(in SubmitInput) (*PendingApproval, error) {
	if !in.RequestType.IsValid() {
		return nil, shared.NewValidationError("Request type must be one of: customer_edit, customer_delete, transaction_edit, transaction_delete")
	}
	if in.EntityType == "" {
		in.EntityType = in.RequestType.EntityType()
	}
	if !in.EntityType.IsValid() {
		return nil, shared.NewValidationError("Entity type must be customer or transaction")
	}
	if in.EntityType != in.RequestType.EntityType() {
		return nil, shared.NewValidationError(fmt.Sprintf("Request type %s does not apply to %s", in.RequestType, in.EntityType))
	}
	if in.EntityID == uuid.Nil {
		return nil, shared.NewValidationError("Entity ID is required")
	}
	if in.RequestedBy == uuid.Nil {
		return nil, shared.NewValidationError("Requester is required")
	}
	if in.OriginalData == nil {
		return nil, shared.NewValidationError("Original data is required")
	}

	changes := shared.Patch{}
	if !in.RequestType.IsDelete() {
		if len(in.RequestedChanges) == 0 {
			return nil, shared.NewValidationError("Requested changes are required for an edit request")
		}
		changes = in.RequestedChanges
	}

	a := &PendingApproval{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestType:       in.RequestType,
		EntityType:        in.EntityType,
		EntityID:          in.EntityID,
		RequestedBy:       in.RequestedBy,
		Status:            StatusPending,
		OriginalData:      in.OriginalData,
		RequestedChanges:  changes,
		Reason:            strings.TrimSpace(in.Reason),
	}
	a.AddDomainEvent(NewSubmittedEvent(a))
	return a, nil
}

// Approve marks the request approved. Notes are optional.
func (a *PendingApproval) Approve(managerID uuid.UUID, notes string) error {
	return a.decide(StatusApproved, managerID, strings.TrimSpace(notes))
}

// Reject marks the request rejected. Notes explain the rejection and are required.
func (a *PendingApproval) Reject(managerID uuid.UUID, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return shared.NewValidationError("Manager notes are required to reject a request")
	}
	return a.decide(StatusRejected, managerID, notes)
}

func (a *PendingApproval) decide(to Status, managerID uuid.UUID, notes string) error {
	if !CanTransition(a.Status, to) {
		return shared.NewInvalidStateError(fmt.Sprintf("Approval request has already been %s", a.Status))
	}
	if managerID == uuid.Nil {
		return shared.NewValidationError("Reviewer is required")
	}

	now := time.Now()
	a.Status = to
	a.ApprovedBy = &managerID
	a.ManagerNotes = notes
	a.ProcessedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	if to == StatusApproved {
		a.AddDomainEvent(NewApprovedEvent(a))
	} else {
		a.AddDomainEvent(NewRejectedEvent(a))
	}
	return nil
}

// IsPending reports whether the request still awaits a decision
func (a *PendingApproval) IsPending() bool {
	return a.Status == StatusPending
}

// StaleFields returns the requested fields whose current value differs from the
// value captured when the request was submitted, sorted by name.
func (a *PendingApproval) StaleFields(current shared.Patch) []string {
	var stale []string
	for field := range a.RequestedChanges {
		if !sameValue(a.OriginalData[field], current[field]) {
			stale = append(stale, field)
		}
	}
	sort.Strings(stale)
	return stale
}

// values are compared by their JSON encoding, since OriginalData has been through
// a JSON round trip and the current snapshot has not
func sameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
