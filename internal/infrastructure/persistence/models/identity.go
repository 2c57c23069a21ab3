package models

import (
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// BranchModel is the persistence model for the Branch domain entity.
type BranchModel struct {
	AggregateModel
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Location  string     `gorm:"type:varchar(200);not null"`
	Phone     string     `gorm:"type:varchar(30)"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	IsActive  bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch
func (m *BranchModel) ToDomain() *identity.Branch {
	return &identity.Branch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Location:          m.Location,
		Phone:             m.Phone,
		ManagerID:         m.ManagerID,
		IsActive:          m.IsActive,
	}
}

// BranchModelFromDomain creates a persistence model from a domain Branch
func BranchModelFromDomain(b *identity.Branch) *BranchModel {
	m := &BranchModel{
		Name:      b.Name,
		Location:  b.Location,
		Phone:     b.Phone,
		ManagerID: b.ManagerID,
		IsActive:  b.IsActive,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username     string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	FullName     string        `gorm:"type:varchar(100);not null"`
	Email        string        `gorm:"type:varchar(200)"`
	Phone        string        `gorm:"type:varchar(30)"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null;default:'operator'"`
	BranchID     *uuid.UUID    `gorm:"type:uuid;index"`
	IsActive     bool          `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		FullName:          m.FullName,
		Email:             m.Email,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		BranchID:          m.BranchID,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		BranchID:     u.BranchID,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
