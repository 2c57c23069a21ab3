package sales

import (
	"context"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	BranchID      *uuid.UUID
	CylinderType  CylinderType
	PaymentStatus PaymentStatus
	Period        DateRange
}

// TransactionTotals aggregates transactions over a period
type TransactionTotals struct {
	Count    int64
	Quantity int64
	Revenue  decimal.Decimal
}

// DailyQuantity is the number of cylinders moved on one day
type DailyQuantity struct {
	Day      time.Time
	Quantity int64
}

// TransactionRepository defines the interface for transaction persistence
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*Transaction, error)

	// FindAll lists transactions by transaction date, newest first
	FindAll(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	Count(ctx context.Context, filter TransactionFilter) (int64, error)

	// NextReceiptSequence reserves the next receipt sequence for the day of t.
	// Sequences are never handed out twice, even after deletes, and concurrent
	// callers are serialized until their transaction ends.
	NextReceiptSequence(ctx context.Context, t time.Time) (int, error)

	Totals(ctx context.Context, branchID *uuid.UUID, r DateRange) (TransactionTotals, error)
	DailyQuantities(ctx context.Context, branchID *uuid.UUID, cylinderType CylinderType, r DateRange) ([]DailyQuantity, error)

	Save(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	TransactionID *uuid.UUID
	Status        PaymentRecordStatus
	Period        DateRange
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll lists payments by paid-at time, newest first
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// SumCompleted totals completed payments in r, restricted to customers of the
	// branch when branchID is set
	SumCompleted(ctx context.Context, branchID *uuid.UUID, r DateRange) (decimal.Decimal, error)

	Save(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
