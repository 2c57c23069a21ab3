package sales

import (
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Transaction DTOs
// =============================================================================

// CreateTransactionRequest represents a request to record a counter transaction
type CreateTransactionRequest struct {
	CustomerID      uuid.UUID        `json:"customerId" binding:"required"`
	BranchID        *uuid.UUID       `json:"branchId"`
	CylinderType    string           `json:"cylinderType" binding:"required,cylinder_type"`
	TransactionType string           `json:"transactionType" binding:"omitempty,oneof=sale refill exchange return"`
	Quantity        int              `json:"quantity" binding:"required,min=1"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required,oneof=cash mobile_money bank credit"`
	AmountPaid      *decimal.Decimal `json:"amountPaid"`
	Notes           string           `json:"notes" binding:"max=1000"`
	TransactionDate *time.Time       `json:"transactionDate"`
}

// UpdateTransactionRequest represents a request to correct a transaction. Nil
// fields are left unchanged.
type UpdateTransactionRequest struct {
	CylinderType    *string          `json:"cylinderType" binding:"omitempty,cylinder_type"`
	TransactionType *string          `json:"transactionType" binding:"omitempty,oneof=sale refill exchange return"`
	Quantity        *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	PaymentMethod   *string          `json:"paymentMethod" binding:"omitempty,oneof=cash mobile_money bank credit"`
	Notes           *string          `json:"notes" binding:"omitempty,max=1000"`
	TransactionDate *time.Time       `json:"transactionDate"`
	BranchID        *string          `json:"branchId"`
}

// ToPatch converts the request to the field patch the transaction applies
func (r UpdateTransactionRequest) ToPatch() shared.Patch {
	p := shared.Patch{}
	if r.CylinderType != nil {
		p["cylinderType"] = *r.CylinderType
	}
	if r.TransactionType != nil {
		p["transactionType"] = *r.TransactionType
	}
	if r.Quantity != nil {
		p["quantity"] = *r.Quantity
	}
	if r.UnitPrice != nil {
		p["unitPrice"] = r.UnitPrice.String()
	}
	if r.PaymentMethod != nil {
		p["paymentMethod"] = *r.PaymentMethod
	}
	if r.Notes != nil {
		p["notes"] = *r.Notes
	}
	if r.TransactionDate != nil {
		p["transactionDate"] = r.TransactionDate.UTC().Format(time.RFC3339)
	}
	if r.BranchID != nil {
		p["branchId"] = *r.BranchID
	}
	return p
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	ReceiptNumber   string          `json:"receiptNumber"`
	CustomerID      uuid.UUID       `json:"customerId"`
	BranchID        *uuid.UUID      `json:"branchId"`
	CreatedBy       uuid.UUID       `json:"createdBy"`
	CylinderType    string          `json:"cylinderType"`
	TransactionType string          `json:"transactionType"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Notes           string          `json:"notes,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TransactionListFilter represents filter options for the transaction list.
// From and To accept a date (2006-01-02) or an RFC 3339 timestamp; a date-only To
// includes the whole day.
type TransactionListFilter struct {
	Search        string `form:"search"`
	CustomerID    string `form:"customerId" binding:"omitempty,uuid"`
	BranchID      string `form:"branchId" binding:"omitempty,uuid"`
	CylinderType  string `form:"cylinderType" binding:"omitempty,cylinder_type"`
	PaymentStatus string `form:"paymentStatus" binding:"omitempty,oneof=paid partial pending"`
	From          string `form:"from"`
	To            string `form:"to"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"orderBy"`
	OrderDir      string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain builds the repository filter
func (f TransactionListFilter) ToDomain() (sales.TransactionFilter, error) {
	out := sales.TransactionFilter{
		Filter:        pageFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		CylinderType:  sales.CylinderType(f.CylinderType),
		PaymentStatus: sales.PaymentStatus(f.PaymentStatus),
	}
	var err error
	if out.CustomerID, err = optionalUUID("customerId", f.CustomerID); err != nil {
		return out, err
	}
	if out.BranchID, err = optionalUUID("branchId", f.BranchID); err != nil {
		return out, err
	}
	out.Period, err = ParsePeriod(f.From, f.To)
	return out, err
}

// ToTransactionResponse converts a domain transaction to a response
func ToTransactionResponse(t *sales.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		ReceiptNumber:   t.ReceiptNumber,
		CustomerID:      t.CustomerID,
		BranchID:        t.BranchID,
		CreatedBy:       t.CreatedBy,
		CylinderType:    string(t.CylinderType),
		TransactionType: string(t.TransactionType),
		Quantity:        t.Quantity,
		UnitPrice:       t.UnitPrice,
		TotalAmount:     t.TotalAmount,
		PaymentMethod:   string(t.PaymentMethod),
		PaymentStatus:   string(t.PaymentStatus),
		AmountPaid:      t.AmountPaid,
		Outstanding:     t.Outstanding(),
		Notes:           t.Notes,
		TransactionDate: t.TransactionDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(ts []sales.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(ts))
	for i := range ts {
		out[i] = ToTransactionResponse(&ts[i])
	}
	return out
}

// =============================================================================
// Payment DTOs
// =============================================================================

// CreatePaymentRequest represents a request to record money received
type CreatePaymentRequest struct {
	CustomerID    uuid.UUID       `json:"customerId" binding:"required"`
	TransactionID *uuid.UUID      `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" binding:"required,oneof=cash mobile_money bank"`
	Reference     string          `json:"reference" binding:"max=100"`
	Status        string          `json:"status" binding:"omitempty,oneof=completed pending failed"`
	PaidAt        *time.Time      `json:"paidAt"`
	Notes         string          `json:"notes"`
}

// UpdatePaymentRequest represents a request to settle or annotate a payment.
// Status may only move a pending payment to completed or failed.
type UpdatePaymentRequest struct {
	Status    *string    `json:"status" binding:"omitempty,oneof=completed failed"`
	Reference *string    `json:"reference" binding:"omitempty,max=100"`
	Notes     *string    `json:"notes"`
	PaidAt    *time.Time `json:"paidAt"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customerId"`
	TransactionID *uuid.UUID      `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference,omitempty"`
	Status        string          `json:"status"`
	ReceivedBy    uuid.UUID       `json:"receivedBy"`
	PaidAt        time.Time       `json:"paidAt"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PaymentListFilter represents filter options for the payment list
type PaymentListFilter struct {
	Search        string `form:"search"`
	CustomerID    string `form:"customerId" binding:"omitempty,uuid"`
	TransactionID string `form:"transactionId" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=completed pending failed"`
	From          string `form:"from"`
	To            string `form:"to"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"orderBy"`
	OrderDir      string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain builds the repository filter
func (f PaymentListFilter) ToDomain() (sales.PaymentFilter, error) {
	out := sales.PaymentFilter{
		Filter: pageFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		Status: sales.PaymentRecordStatus(f.Status),
	}
	var err error
	if out.CustomerID, err = optionalUUID("customerId", f.CustomerID); err != nil {
		return out, err
	}
	if out.TransactionID, err = optionalUUID("transactionId", f.TransactionID); err != nil {
		return out, err
	}
	out.Period, err = ParsePeriod(f.From, f.To)
	return out, err
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *sales.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		CustomerID:    p.CustomerID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Reference:     p.Reference,
		Status:        string(p.Status),
		ReceivedBy:    p.ReceivedBy,
		PaidAt:        p.PaidAt,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(ps []sales.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(ps))
	for i := range ps {
		out[i] = ToPaymentResponse(&ps[i])
	}
	return out
}

// =============================================================================
// Helpers
// =============================================================================

// ParsePeriod builds a date range from optional query bounds
func ParsePeriod(from, to string) (sales.DateRange, error) {
	var r sales.DateRange
	if from = strings.TrimSpace(from); from != "" {
		t, _, err := parseBound("from", from)
		if err != nil {
			return r, err
		}
		r.From = t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, dateOnly, err := parseBound("to", to)
		if err != nil {
			return r, err
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.To = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, shared.NewValidationError("to must not be before from")
	}
	return r, nil
}

func parseBound(name, value string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, shared.NewValidationError(name + " must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	return t, false, nil
}

func optionalUUID(name, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewValidationError(name + " must be a valid UUID")
	}
	return &id, nil
}

func pageFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.OrderBy = orderBy
	f.Search = search
	return f
}
