package models

import (
	"time"

	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/google/uuid"
)

// PendingApprovalModel is the persistence model for the PendingApproval aggregate.
type PendingApprovalModel struct {
	AggregateModel
	RequestType      approval.RequestType `gorm:"type:varchar(30);not null"`
	EntityType       approval.EntityType  `gorm:"type:varchar(20);not null;index:idx_pending_approvals_entity"`
	EntityID         uuid.UUID            `gorm:"type:uuid;not null;index:idx_pending_approvals_entity"`
	RequestedBy      uuid.UUID            `gorm:"type:uuid;not null;index"`
	ApprovedBy       *uuid.UUID           `gorm:"type:uuid"`
	Status           approval.Status      `gorm:"type:varchar(20);not null;default:'pending';index"`
	OriginalData     JSONMap              `gorm:"type:jsonb;not null"`
	RequestedChanges JSONMap              `gorm:"type:jsonb;not null"`
	Reason           string               `gorm:"type:text"`
	ManagerNotes     string               `gorm:"type:text"`
	ProcessedAt      *time.Time
}

// TableName returns the table name for GORM
func (PendingApprovalModel) TableName() string {
	return "pending_approvals"
}

// ToDomain converts the persistence model to a domain PendingApproval
func (m *PendingApprovalModel) ToDomain() *approval.PendingApproval {
	return &approval.PendingApproval{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		RequestType:       m.RequestType,
		EntityType:        m.EntityType,
		EntityID:          m.EntityID,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		Status:            m.Status,
		OriginalData:      m.OriginalData.Patch(),
		RequestedChanges:  m.RequestedChanges.Patch(),
		Reason:            m.Reason,
		ManagerNotes:      m.ManagerNotes,
		ProcessedAt:       m.ProcessedAt,
	}
}

// PendingApprovalModelFromDomain creates a persistence model from a domain PendingApproval
func PendingApprovalModelFromDomain(a *approval.PendingApproval) *PendingApprovalModel {
	m := &PendingApprovalModel{
		RequestType:      a.RequestType,
		EntityType:       a.EntityType,
		EntityID:         a.EntityID,
		RequestedBy:      a.RequestedBy,
		ApprovedBy:       a.ApprovedBy,
		Status:           a.Status,
		OriginalData:     JSONMap(a.OriginalData),
		RequestedChanges: JSONMap(a.RequestedChanges),
		Reason:           a.Reason,
		ManagerNotes:     a.ManagerNotes,
		ProcessedAt:      a.ProcessedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
