package approval

import (
	"context"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows approval listings
type Filter struct {
	shared.Filter
	Status      Status
	EntityType  EntityType
	RequestedBy *uuid.UUID
}

// Repository defines the interface for approval persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PendingApproval, error)

	// FindByIDForUpdate loads the record with a row lock held until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PendingApproval, error)

	// FindAll lists approvals newest first
	FindAll(ctx context.Context, filter Filter) ([]PendingApproval, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// CountPendingFor counts open requests against one entity
	CountPendingFor(ctx context.Context, entityType EntityType, entityID uuid.UUID) (int64, error)

	Create(ctx context.Context, a *PendingApproval) error

	// SaveDecision persists an approve or reject only if the stored row is still
	// pending. It returns an invalid-state error when another reviewer got there first.
	SaveDecision(ctx context.Context, a *PendingApproval) error
}
