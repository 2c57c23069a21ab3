package sales

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records money received. A completed payment lowers the
// customer's balance and, when linked, raises the transaction's amount paid in the
// same database transaction.
type PaymentService struct {
	paymentRepo     sales.PaymentRepository
	transactionRepo sales.TransactionRepository
	customerRepo    partner.CustomerRepository
	txManager       shared.TransactionManager
	logger          *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo sales.PaymentRepository,
	transactionRepo sales.TransactionRepository,
	customerRepo partner.CustomerRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		paymentRepo:     paymentRepo,
		transactionRepo: transactionRepo,
		customerRepo:    customerRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// Create records a payment
func (s *PaymentService) Create(ctx context.Context, receivedBy uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	p, err := sales.NewPayment(req.CustomerID, req.Amount, sales.PaymentMethod(req.Method), sales.PaymentRecordStatus(req.Status), receivedBy)
	if err != nil {
		return nil, err
	}
	if err := p.SetDetails(req.Reference, req.Notes); err != nil {
		return nil, err
	}
	if req.PaidAt != nil {
		p.SetPaidAt(*req.PaidAt)
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.FindByIDForUpdate(ctx, p.CustomerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("Customer does not exist")
			}
			return err
		}

		var t *sales.Transaction
		if req.TransactionID != nil {
			t, err = s.transactionRepo.FindByIDForUpdate(ctx, *req.TransactionID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewValidationError("Transaction does not exist")
				}
				return err
			}
			if t.CustomerID != customer.ID {
				return shared.NewValidationError("Transaction belongs to a different customer")
			}
			if p.Amount.GreaterThan(t.Outstanding()) {
				return shared.NewValidationError("Payment of " + p.Amount.StringFixed(2) +
					" exceeds outstanding amount " + t.Outstanding().StringFixed(2) +
					" on receipt " + t.ReceiptNumber)
			}
			p.LinkTransaction(t.ID)
		}

		if p.IsCompleted() {
			if err := s.settle(ctx, customer, t, p); err != nil {
				return err
			}
		}
		return s.paymentRepo.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", p.ID.String()),
		zap.String("customer_id", p.CustomerID.String()),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("status", string(p.Status)),
	)
	response := ToPaymentResponse(p)
	return &response, nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(p)
	return &response, nil
}

// List retrieves payments, most recently paid first
func (s *PaymentService) List(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPaymentResponses(payments), total, nil
}

// Update annotates a payment or settles a pending one. Completing a payment
// applies it to the balances the same way Create does.
func (s *PaymentService) Update(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	var updated *sales.Payment
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.findForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Reference != nil || req.Notes != nil {
			reference, notes := p.Reference, p.Notes
			if req.Reference != nil {
				reference = *req.Reference
			}
			if req.Notes != nil {
				notes = *req.Notes
			}
			if err := p.SetDetails(reference, notes); err != nil {
				return err
			}
		}
		if req.PaidAt != nil {
			p.SetPaidAt(*req.PaidAt)
		}

		if req.Status != nil {
			switch sales.PaymentRecordStatus(*req.Status) {
			case sales.PaymentRecordCompleted:
				if err := p.Complete(); err != nil {
					return err
				}
				if err := s.settleExisting(ctx, p); err != nil {
					return err
				}
			case sales.PaymentRecordFailed:
				if err := p.Fail(); err != nil {
					return err
				}
			default:
				return shared.NewValidationError("Payment status can only change to completed or failed")
			}
		}

		updated = p
		return s.paymentRepo.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(updated)
	return &response, nil
}

// Delete removes a payment. A completed payment is reversed first: the customer
// owes the amount again and the linked transaction's amount paid drops.
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.findForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if p.IsCompleted() {
			if p.TransactionID != nil {
				t, err := s.transactionRepo.FindByIDForUpdate(ctx, *p.TransactionID)
				switch {
				case err == nil:
					t.ReversePayment(p.Amount)
					if err := s.transactionRepo.Save(ctx, t); err != nil {
						return err
					}
				case !errors.Is(err, shared.ErrNotFound):
					return err
				}
			}
			customer, err := s.customerRepo.FindByIDForUpdate(ctx, p.CustomerID)
			if err != nil {
				return err
			}
			customer.AdjustBalance(p.Amount)
			if err := s.customerRepo.Save(ctx, customer); err != nil {
				return err
			}
		}

		if err := s.paymentRepo.Delete(ctx, p.ID); err != nil {
			return paymentNotFound(err)
		}
		s.logger.Info("Payment deleted", zap.String("payment_id", p.ID.String()))
		return nil
	})
}

// settleExisting applies a payment that has just been completed
func (s *PaymentService) settleExisting(ctx context.Context, p *sales.Payment) error {
	customer, err := s.customerRepo.FindByIDForUpdate(ctx, p.CustomerID)
	if err != nil {
		return err
	}
	var t *sales.Transaction
	if p.TransactionID != nil {
		t, err = s.transactionRepo.FindByIDForUpdate(ctx, *p.TransactionID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}
	return s.settle(ctx, customer, t, p)
}

func (s *PaymentService) settle(ctx context.Context, customer *partner.Customer, t *sales.Transaction, p *sales.Payment) error {
	if t != nil {
		if err := t.RecordPayment(p.Amount); err != nil {
			return err
		}
		if err := s.transactionRepo.Save(ctx, t); err != nil {
			return err
		}
	}
	if err := customer.ReceivePayment(p.Amount); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, customer)
}

func (s *PaymentService) find(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, paymentNotFound(err)
	}
	return p, nil
}

// findForUpdate locks the payment row so a status change is applied to the
// balances at most once
func (s *PaymentService) findForUpdate(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	p, err := s.paymentRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, paymentNotFound(err)
	}
	return p, nil
}

func paymentNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Payment")
	}
	return err
}
