package partner

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo    partner.CustomerRepository
	transactionRepo sales.TransactionRepository
	paymentRepo     sales.PaymentRepository
	txManager       shared.TransactionManager
	logger          *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	transactionRepo sales.TransactionRepository,
	paymentRepo sales.PaymentRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.Name, req.Phone, partner.CustomerType(req.CustomerType))
	if err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, customer.Phone, uuid.Nil); err != nil {
		return nil, err
	}

	if err := customer.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := customer.SetAddress(req.Address); err != nil {
		return nil, err
	}
	if err := customer.SetIDNumber(req.IDNumber); err != nil {
		return nil, err
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	customer.SetNotes(req.Notes)
	customer.AssignBranch(req.BranchID)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("phone", customer.Phone),
	)
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := filter.ToDomain()

	customers, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Update applies the set fields of req to a customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	changes := req.ToPatch()
	if len(changes) == 0 {
		return s.GetByID(ctx, id)
	}
	if err := s.ApplyChanges(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete deletes a customer that has no sales history
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.Remove(ctx, id)
}

// =============================================================================
// Approval target
// =============================================================================

// Snapshot returns the customer's editable fields as stored in an approval request
func (s *CustomerService) Snapshot(ctx context.Context, id uuid.UUID) (shared.Patch, error) {
	customer, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return customer.Snapshot(), nil
}

// PreviewChanges validates changes against the current customer without saving
func (s *CustomerService) PreviewChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error {
	customer, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return customer.ApplyChanges(changes)
}

// ApplyChanges applies a field patch to the customer inside a transaction. A
// caller's open transaction is joined.
func (s *CustomerService) ApplyChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := customer.ApplyChanges(changes); err != nil {
			return err
		}
		if _, ok := changes["phone"]; ok {
			if err := s.ensurePhoneFree(ctx, customer.Phone, customer.ID); err != nil {
				return err
			}
		}
		return s.customerRepo.Save(ctx, customer)
	})
}

// Remove deletes the customer. Customers with transactions or payments are kept
// because their history is referenced by receipts.
func (s *CustomerService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err)
		}

		txFilter := sales.TransactionFilter{Filter: shared.DefaultFilter(), CustomerID: &customer.ID}
		transactions, err := s.transactionRepo.Count(ctx, txFilter)
		if err != nil {
			return err
		}
		payFilter := sales.PaymentFilter{Filter: shared.DefaultFilter(), CustomerID: &customer.ID}
		payments, err := s.paymentRepo.Count(ctx, payFilter)
		if err != nil {
			return err
		}
		if transactions > 0 || payments > 0 {
			return shared.NewConflictError("Cannot delete a customer with transactions or payments; deactivate the customer instead")
		}
		if !customer.Balance.IsZero() {
			return shared.NewConflictError("Cannot delete a customer with an outstanding balance")
		}

		if err := s.customerRepo.Delete(ctx, id); err != nil {
			return notFound(err)
		}
		s.logger.Info("Customer deleted", zap.String("customer_id", id.String()))
		return nil
	})
}

func (s *CustomerService) find(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return customer, nil
}

func (s *CustomerService) ensurePhoneFree(ctx context.Context, phone string, excludeID uuid.UUID) error {
	exists, err := s.customerRepo.ExistsByPhone(ctx, phone, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Customer with this phone already exists")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Customer")
	}
	return err
}
