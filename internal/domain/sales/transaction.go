package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CylinderType is the cylinder size sold
type CylinderType string

const (
	Cylinder6kg  CylinderType = "6kg"
	Cylinder13kg CylinderType = "13kg"
	Cylinder50kg CylinderType = "50kg"
)

// CylinderTypes lists the sizes in stock order
var CylinderTypes = []CylinderType{Cylinder6kg, Cylinder13kg, Cylinder50kg}

// IsValid reports whether c is a known size
func (c CylinderType) IsValid() bool {
	switch c {
	case Cylinder6kg, Cylinder13kg, Cylinder50kg:
		return true
	}
	return false
}

// TransactionType is what happened at the counter
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "sale"
	TransactionTypeRefill   TransactionType = "refill"
	TransactionTypeExchange TransactionType = "exchange"
	TransactionTypeReturn   TransactionType = "return"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSale, TransactionTypeRefill, TransactionTypeExchange, TransactionTypeReturn:
		return true
	}
	return false
}

// PaymentMethod is how a transaction or payment is settled
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodBank        PaymentMethod = "bank"
	PaymentMethodCredit      PaymentMethod = "credit"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMobileMoney, PaymentMethodBank, PaymentMethodCredit:
		return true
	}
	return false
}

// PaymentStatus tracks how much of a transaction has been paid
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPending PaymentStatus = "pending"
)

// ReceiptPrefix starts every receipt number
const ReceiptPrefix = "RCP"

// ReceiptDay is the day part of the receipt numbers issued on day
func ReceiptDay(day time.Time) string {
	return day.Format("20060102")
}

// FormatReceiptNumber renders the receipt number of the seq-th transaction of a day.
func FormatReceiptNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", ReceiptPrefix, ReceiptDay(day), seq)
}

// ParseReceiptSequence returns the sequence part of a receipt number
func ParseReceiptSequence(receiptNumber string) (int, bool) {
	i := strings.LastIndexByte(receiptNumber, '-')
	if i < 0 || !strings.HasPrefix(receiptNumber, ReceiptPrefix+"-") {
		return 0, false
	}
	seq, err := strconv.Atoi(receiptNumber[i+1:])
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// Transaction is a single counter sale, refill, exchange or return.
type Transaction struct {
	shared.BaseAggregateRoot
	ReceiptNumber   string
	CustomerID      uuid.UUID
	BranchID        *uuid.UUID
	CreatedBy       uuid.UUID
	CylinderType    CylinderType
	TransactionType TransactionType
	Quantity        int
	UnitPrice       decimal.Decimal
	TotalAmount     decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	AmountPaid      decimal.Decimal
	Notes           string
	TransactionDate time.Time
}

// TransactionInput carries the fields of a new transaction
type TransactionInput struct {
	CustomerID      uuid.UUID
	BranchID        *uuid.UUID
	CreatedBy       uuid.UUID
	CylinderType    CylinderType
	TransactionType TransactionType
	Quantity        int
	UnitPrice       decimal.Decimal
	PaymentMethod   PaymentMethod
	// AmountPaid nil means paid in full, except for credit sales which start unpaid.
	AmountPaid      *decimal.Decimal
	Notes           string
	TransactionDate time.Time
}

// NewTransaction validates input and computes the total and payment status.
func NewTransaction(in TransactionInput) (*Transaction, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer is required")
	}
	if in.CreatedBy == uuid.Nil {
		return nil, shared.NewValidationError("Creating user is required")
	}
	if in.TransactionType == "" {
		in.TransactionType = TransactionTypeSale
	}
	if in.TransactionDate.IsZero() {
		in.TransactionDate = time.Now()
	}

	t := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        in.CustomerID,
		BranchID:          in.BranchID,
		CreatedBy:         in.CreatedBy,
		CylinderType:      in.CylinderType,
		TransactionType:   in.TransactionType,
		Quantity:          in.Quantity,
		UnitPrice:         in.UnitPrice,
		PaymentMethod:     in.PaymentMethod,
		Notes:             strings.TrimSpace(in.Notes),
		TransactionDate:   in.TransactionDate,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.TotalAmount = t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))

	switch {
	case in.AmountPaid != nil:
		t.AmountPaid = *in.AmountPaid
	case t.PaymentMethod == PaymentMethodCredit:
		t.AmountPaid = decimal.Zero
	default:
		t.AmountPaid = t.TotalAmount
	}
	if t.AmountPaid.IsNegative() {
		return nil, shared.NewValidationError("Amount paid cannot be negative")
	}
	if t.AmountPaid.GreaterThan(t.TotalAmount) {
		return nil, shared.NewValidationError("Amount paid cannot exceed the total amount")
	}
	t.refreshPaymentStatus()
	return t, nil
}

// AssignReceiptNumber stamps the receipt number for the seq-th transaction of the day
func (t *Transaction) AssignReceiptNumber(seq int) {
	t.ReceiptNumber = FormatReceiptNumber(t.TransactionDate, seq)
}

// Outstanding is what the customer still owes on this transaction
func (t *Transaction) Outstanding() decimal.Decimal {
	out := t.TotalAmount.Sub(t.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// RecordPayment adds a payment against this transaction
func (t *Transaction) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if amount.GreaterThan(t.Outstanding()) {
		return shared.NewValidationError(fmt.Sprintf(
			"Payment of %s exceeds outstanding amount %s on receipt %s",
			amount.StringFixed(2), t.Outstanding().StringFixed(2), t.ReceiptNumber))
	}
	t.AmountPaid = t.AmountPaid.Add(amount)
	t.refreshPaymentStatus()
	t.touch()
	return nil
}

// ReversePayment removes a previously recorded payment
func (t *Transaction) ReversePayment(amount decimal.Decimal) {
	t.AmountPaid = t.AmountPaid.Sub(amount)
	if t.AmountPaid.IsNegative() {
		t.AmountPaid = decimal.Zero
	}
	t.refreshPaymentStatus()
	t.touch()
}

// Snapshot returns the editable fields keyed by their JSON names.
func (t *Transaction) Snapshot() shared.Patch {
	return shared.Patch{
		"cylinderType":    string(t.CylinderType),
		"transactionType": string(t.TransactionType),
		"quantity":        float64(t.Quantity),
		"unitPrice":       t.UnitPrice.String(),
		"paymentMethod":   string(t.PaymentMethod),
		"notes":           t.Notes,
		"transactionDate": t.TransactionDate.UTC().Format(time.RFC3339),
		"branchId":        shared.UUIDPtrValue(t.BranchID),
		"totalAmount":     t.TotalAmount.String(),
		"amountPaid":      t.AmountPaid.String(),
		"receiptNumber":   t.ReceiptNumber,
		"customerId":      t.CustomerID.String(),
	}
}

// ApplyChanges applies a patch of editable fields and recomputes the total.
// Nothing changes when any field is invalid.
func (t *Transaction) ApplyChanges(changes shared.Patch) error {
	if len(changes) == 0 {
		return shared.NewValidationError("No changes requested")
	}
	next := *t
	for field, value := range changes {
		if err := next.applyField(field, value); err != nil {
			return err
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.TotalAmount = next.UnitPrice.Mul(decimal.NewFromInt(int64(next.Quantity)))
	if next.AmountPaid.GreaterThan(next.TotalAmount) {
		return shared.NewValidationError("New total is below the amount already paid")
	}
	next.refreshPaymentStatus()
	next.touch()
	*t = next
	return nil
}

func (t *Transaction) applyField(field string, value any) error {
	switch field {
	case "cylinderType":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		t.CylinderType = CylinderType(s)
	case "transactionType":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		t.TransactionType = TransactionType(s)
	case "paymentMethod":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		t.PaymentMethod = PaymentMethod(s)
	case "notes":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		t.Notes = strings.TrimSpace(s)
	case "quantity":
		n, err := shared.PatchInt(field, value)
		if err != nil {
			return err
		}
		t.Quantity = n
	case "unitPrice":
		d, err := shared.PatchDecimal(field, value)
		if err != nil {
			return err
		}
		t.UnitPrice = d
	case "transactionDate":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		d, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return shared.NewValidationError("transactionDate must be an RFC 3339 timestamp")
		}
		t.TransactionDate = d
	case "branchId":
		id, err := shared.PatchUUIDPtr(field, value)
		if err != nil {
			return err
		}
		t.BranchID = id
	default:
		return shared.NewValidationError(fmt.Sprintf("Field %q cannot be changed on a transaction", field))
	}
	return nil
}

func (t *Transaction) validate() error {
	if !t.CylinderType.IsValid() {
		return shared.NewValidationError("Cylinder type must be one of: 6kg, 13kg, 50kg")
	}
	if !t.TransactionType.IsValid() {
		return shared.NewValidationError("Transaction type must be one of: sale, refill, exchange, return")
	}
	if !t.PaymentMethod.IsValid() {
		return shared.NewValidationError("Payment method must be one of: cash, mobile_money, bank, credit")
	}
	if t.Quantity <= 0 {
		return shared.NewValidationError("Quantity must be greater than zero")
	}
	if t.UnitPrice.IsNegative() {
		return shared.NewValidationError("Unit price cannot be negative")
	}
	if len(t.Notes) > 1000 {
		return shared.NewValidationError("Notes cannot exceed 1000 characters")
	}
	return nil
}

func (t *Transaction) refreshPaymentStatus() {
	switch {
	case t.AmountPaid.GreaterThanOrEqual(t.TotalAmount):
		t.PaymentStatus = PaymentStatusPaid
	case t.AmountPaid.IsPositive():
		t.PaymentStatus = PaymentStatusPartial
	default:
		t.PaymentStatus = PaymentStatusPending
	}
}

func (t *Transaction) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}
