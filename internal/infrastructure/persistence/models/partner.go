package models

import (
	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	BranchID     *uuid.UUID           `gorm:"type:uuid;index"`
	Name         string               `gorm:"type:varchar(100);not null;index"`
	Phone        string               `gorm:"type:varchar(30);not null;uniqueIndex"`
	Email        string               `gorm:"type:varchar(200)"`
	Address      string               `gorm:"type:text"`
	CustomerType partner.CustomerType `gorm:"type:varchar(20);not null;default:'individual'"`
	IDNumber     string               `gorm:"column:id_number;type:varchar(50);index"`
	Balance      decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	CreditLimit  decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	IsActive     bool                 `gorm:"not null;default:true"`
	Notes        string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BranchID:          m.BranchID,
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		CustomerType:      m.CustomerType,
		IDNumber:          m.IDNumber,
		Balance:           m.Balance,
		CreditLimit:       m.CreditLimit,
		IsActive:          m.IsActive,
		Notes:             m.Notes,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		BranchID:     c.BranchID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		CustomerType: c.CustomerType,
		IDNumber:     c.IDNumber,
		Balance:      c.Balance,
		CreditLimit:  c.CreditLimit,
		IsActive:     c.IsActive,
		Notes:        c.Notes,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
