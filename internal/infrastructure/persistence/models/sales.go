package models

import (
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for the Transaction domain entity.
type TransactionModel struct {
	AggregateModel
	ReceiptNumber   string                `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	BranchID        *uuid.UUID            `gorm:"type:uuid;index"`
	CreatedBy       uuid.UUID             `gorm:"type:uuid;not null"`
	CylinderType    sales.CylinderType    `gorm:"type:varchar(10);not null"`
	TransactionType sales.TransactionType `gorm:"type:varchar(20);not null"`
	Quantity        int                   `gorm:"not null"`
	UnitPrice       decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	PaymentMethod   sales.PaymentMethod   `gorm:"type:varchar(20);not null"`
	PaymentStatus   sales.PaymentStatus   `gorm:"type:varchar(20);not null;index"`
	AmountPaid      decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	Notes           string                `gorm:"type:text"`
	TransactionDate time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *sales.Transaction {
	return &sales.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ReceiptNumber:     m.ReceiptNumber,
		CustomerID:        m.CustomerID,
		BranchID:          m.BranchID,
		CreatedBy:         m.CreatedBy,
		CylinderType:      m.CylinderType,
		TransactionType:   m.TransactionType,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		TotalAmount:       m.TotalAmount,
		PaymentMethod:     m.PaymentMethod,
		PaymentStatus:     m.PaymentStatus,
		AmountPaid:        m.AmountPaid,
		Notes:             m.Notes,
		TransactionDate:   m.TransactionDate,
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction.
// Dates are stored in UTC so range queries compare consistently on every driver.
func TransactionModelFromDomain(t *sales.Transaction) *TransactionModel {
	m := &TransactionModel{
		ReceiptNumber:   t.ReceiptNumber,
		CustomerID:      t.CustomerID,
		BranchID:        t.BranchID,
		CreatedBy:       t.CreatedBy,
		CylinderType:    t.CylinderType,
		TransactionType: t.TransactionType,
		Quantity:        t.Quantity,
		UnitPrice:       t.UnitPrice,
		TotalAmount:     t.TotalAmount,
		PaymentMethod:   t.PaymentMethod,
		PaymentStatus:   t.PaymentStatus,
		AmountPaid:      t.AmountPaid,
		Notes:           t.Notes,
		TransactionDate: t.TransactionDate.UTC(),
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// ReceiptSequenceModel holds the last receipt sequence issued for a day
type ReceiptSequenceModel struct {
	Day     string `gorm:"type:varchar(8);primaryKey"`
	LastSeq int    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptSequenceModel) TableName() string {
	return "receipt_sequences"
}

// PaymentModel is the persistence model for the Payment domain entity.
type PaymentModel struct {
	AggregateModel
	CustomerID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	TransactionID *uuid.UUID                `gorm:"type:uuid;index"`
	Amount        decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	Method        sales.PaymentMethod       `gorm:"type:varchar(20);not null"`
	Reference     string                    `gorm:"type:varchar(100)"`
	Status        sales.PaymentRecordStatus `gorm:"type:varchar(20);not null;default:'completed'"`
	ReceivedBy    uuid.UUID                 `gorm:"type:uuid;not null"`
	PaidAt        time.Time                 `gorm:"not null;index"`
	Notes         string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *sales.Payment {
	return &sales.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		TransactionID:     m.TransactionID,
		Amount:            m.Amount,
		Method:            m.Method,
		Reference:         m.Reference,
		Status:            m.Status,
		ReceivedBy:        m.ReceivedBy,
		PaidAt:            m.PaidAt,
		Notes:             m.Notes,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *sales.Payment) *PaymentModel {
	m := &PaymentModel{
		CustomerID:    p.CustomerID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		Status:        p.Status,
		ReceivedBy:    p.ReceivedBy,
		PaidAt:        p.PaidAt.UTC(),
		Notes:         p.Notes,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
