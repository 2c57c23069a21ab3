package sales

import (
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordStatus is the settlement state of a payment
type PaymentRecordStatus string

const (
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// IsValid reports whether s is a known payment status
func (s PaymentRecordStatus) IsValid() bool {
	switch s {
	case PaymentRecordCompleted, PaymentRecordPending, PaymentRecordFailed:
		return true
	}
	return false
}

// Payment is money received from a customer, optionally against a transaction.
// Only completed payments count towards balances.
type Payment struct {
	shared.BaseAggregateRoot
	CustomerID    uuid.UUID
	TransactionID *uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	Status        PaymentRecordStatus
	ReceivedBy    uuid.UUID
	PaidAt        time.Time
	Notes         string
}

// NewPayment creates a payment in the given status
func NewPayment(customerID uuid.UUID, amount decimal.Decimal, method PaymentMethod, status PaymentRecordStatus, receivedBy uuid.UUID) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer is required")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewValidationError("Receiving user is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	if !method.IsValid() || method == PaymentMethodCredit {
		return nil, shared.NewValidationError("Payment method must be one of: cash, mobile_money, bank")
	}
	if status == "" {
		status = PaymentRecordCompleted
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("Payment status must be one of: completed, pending, failed")
	}
	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Amount:            amount,
		Method:            method,
		Status:            status,
		ReceivedBy:        receivedBy,
		PaidAt:            time.Now(),
	}, nil
}

// IsCompleted reports whether the payment counts towards balances
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentRecordCompleted
}

// LinkTransaction ties the payment to the transaction it settles
func (p *Payment) LinkTransaction(transactionID uuid.UUID) {
	p.TransactionID = &transactionID
}

// SetPaidAt overrides the payment time
func (p *Payment) SetPaidAt(t time.Time) {
	if !t.IsZero() {
		p.PaidAt = t
	}
}

// SetDetails sets the external reference (e.g. a mobile money code) and notes
func (p *Payment) SetDetails(reference, notes string) error {
	reference = strings.TrimSpace(reference)
	if len(reference) > 100 {
		return shared.NewValidationError("Reference cannot exceed 100 characters")
	}
	p.Reference = reference
	p.Notes = strings.TrimSpace(notes)
	p.touch()
	return nil
}

// Complete settles a pending payment
func (p *Payment) Complete() error {
	if p.Status != PaymentRecordPending {
		return shared.NewInvalidStateError("Only pending payments can be completed")
	}
	p.Status = PaymentRecordCompleted
	p.touch()
	return nil
}

// Fail marks a pending payment as failed
func (p *Payment) Fail() error {
	if p.Status != PaymentRecordPending {
		return shared.NewInvalidStateError("Only pending payments can be marked failed")
	}
	p.Status = PaymentRecordFailed
	p.touch()
	return nil
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
