package sales

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionService records counter transactions and keeps customer balances in
// step with what remains unpaid on them.
type TransactionService struct {
	transactionRepo sales.TransactionRepository
	paymentRepo     sales.PaymentRepository
	customerRepo    partner.CustomerRepository
	txManager       shared.TransactionManager
	logger          *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactionRepo sales.TransactionRepository,
	paymentRepo sales.PaymentRepository,
	customerRepo partner.CustomerRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		customerRepo:    customerRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// Create records a transaction, numbers its receipt and charges the unpaid part
// to the customer's balance, all in one database transaction.
func (s *TransactionService) Create(ctx context.Context, createdBy uuid.UUID, req CreateTransactionRequest) (*TransactionResponse, error) {
	in := sales.TransactionInput{
		CustomerID:      req.CustomerID,
		BranchID:        req.BranchID,
		CreatedBy:       createdBy,
		CylinderType:    sales.CylinderType(req.CylinderType),
		TransactionType: sales.TransactionType(req.TransactionType),
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		PaymentMethod:   sales.PaymentMethod(req.PaymentMethod),
		AmountPaid:      req.AmountPaid,
		Notes:           req.Notes,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}
	t, err := sales.NewTransaction(in)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(ctx, t.CustomerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("Customer does not exist")
			}
			return err
		}
		if !customer.IsActive {
			return shared.NewValidationError("Customer is inactive")
		}
		if t.BranchID == nil {
			t.BranchID = customer.BranchID
		}

		seq, err := s.transactionRepo.NextReceiptSequence(ctx, t.TransactionDate)
		if err != nil {
			return err
		}
		t.AssignReceiptNumber(seq)

		if err := customer.Charge(t.Outstanding()); err != nil {
			return err
		}
		if err := s.customerRepo.Save(ctx, customer); err != nil {
			return err
		}
		return s.transactionRepo.Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transaction recorded",
		zap.String("transaction_id", t.ID.String()),
		zap.String("receipt_number", t.ReceiptNumber),
		zap.String("customer_id", t.CustomerID.String()),
		zap.String("total", t.TotalAmount.StringFixed(2)),
		zap.String("payment_status", string(t.PaymentStatus)),
	)
	response := ToTransactionResponse(t)
	return &response, nil
}

// GetByID retrieves a transaction by ID
func (s *TransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(t)
	return &response, nil
}

// GetByReceiptNumber retrieves a transaction by its receipt number
func (s *TransactionService) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*TransactionResponse, error) {
	t, err := s.transactionRepo.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, transactionNotFound(err)
	}
	response := ToTransactionResponse(t)
	return &response, nil
}

// List retrieves transactions newest first
func (s *TransactionService) List(ctx context.Context, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	transactions, err := s.transactionRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(transactions), total, nil
}

// Update corrects a transaction and moves the customer's balance by the change in
// what is outstanding
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	changes := req.ToPatch()
	if len(changes) == 0 {
		return s.GetByID(ctx, id)
	}
	if err := s.ApplyChanges(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a transaction
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.Remove(ctx, id)
}

// =============================================================================
// Approval target
// =============================================================================

// Snapshot returns the transaction's fields as stored in an approval request
func (s *TransactionService) Snapshot(ctx context.Context, id uuid.UUID) (shared.Patch, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Snapshot(), nil
}

// PreviewChanges validates changes against the current transaction without saving
func (s *TransactionService) PreviewChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error {
	t, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return t.ApplyChanges(changes)
}

// ApplyChanges applies a field patch inside a transaction, joining the caller's
// open transaction if there is one.
func (s *TransactionService) ApplyChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.transactionRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return transactionNotFound(err)
		}
		before := t.Outstanding()
		if err := t.ApplyChanges(changes); err != nil {
			return err
		}
		if err := s.adjustCustomer(ctx, t.CustomerID, t.Outstanding().Sub(before)); err != nil {
			return err
		}
		return s.transactionRepo.Save(ctx, t)
	})
}

// Remove deletes the transaction. What was still owed on it is taken off the
// customer's balance; payments made against it stay on record, unlinked.
func (s *TransactionService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.transactionRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return transactionNotFound(err)
		}

		linked, err := s.paymentRepo.FindAll(ctx, sales.PaymentFilter{
			Filter:        shared.Filter{Filters: map[string]interface{}{}},
			TransactionID: &t.ID,
		})
		if err != nil {
			return err
		}
		for i := range linked {
			linked[i].TransactionID = nil
			if err := s.paymentRepo.Save(ctx, &linked[i]); err != nil {
				return err
			}
		}

		if err := s.transactionRepo.Delete(ctx, t.ID); err != nil {
			return transactionNotFound(err)
		}
		if err := s.adjustCustomer(ctx, t.CustomerID, t.Outstanding().Neg()); err != nil {
			return err
		}

		s.logger.Info("Transaction deleted",
			zap.String("transaction_id", t.ID.String()),
			zap.String("receipt_number", t.ReceiptNumber),
			zap.Int("unlinked_payments", len(linked)),
		)
		return nil
	})
}

func (s *TransactionService) adjustCustomer(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	customer, err := s.customerRepo.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewConflictError("Customer of the transaction no longer exists")
		}
		return err
	}
	customer.AdjustBalance(delta)
	return s.customerRepo.Save(ctx, customer)
}

func (s *TransactionService) find(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	t, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, transactionNotFound(err)
	}
	return t, nil
}

func transactionNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Transaction")
	}
	return err
}
