package partner

import (
	"context"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID returns shared.ErrNotFound when the customer does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDForUpdate loads the customer with a row lock when called inside a
	// transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)

	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	FindByIDNumber(ctx context.Context, idNumber string) (*Customer, error)

	// FindAll lists customers newest first. Supported filters: branch_id, is_active,
	// customer_type, created_from, created_to; Search matches name, phone, email and
	// id number.
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByPhone reports whether another customer than excludeID uses phone
	ExistsByPhone(ctx context.Context, phone string, excludeID uuid.UUID) (bool, error)

	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}
