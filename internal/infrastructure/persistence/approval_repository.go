package persistence

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApprovalRepository implements approval.Repository using GORM
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewGormApprovalRepository creates a new GormApprovalRepository
func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// FindByID finds an approval by ID
func (r *GormApprovalRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.PendingApproval, error) {
	return r.findOne(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate finds an approval and locks its row until the transaction ends.
// SQLite has no row locks; there the single connection serializes writers.
func (r *GormApprovalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*approval.PendingApproval, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *GormApprovalRepository) findOne(query *gorm.DB) (*approval.PendingApproval, error) {
	var model models.PendingApprovalModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists approvals newest first
func (r *GormApprovalRepository) FindAll(ctx context.Context, filter approval.Filter) ([]approval.PendingApproval, error) {
	var rows []models.PendingApprovalModel
	query := paginate(r.applyFilter(conn(ctx, r.db).Model(&models.PendingApprovalModel{}), filter), filter.Filter, ApprovalSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]approval.PendingApproval, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts approvals matching the filter
func (r *GormApprovalRepository) Count(ctx context.Context, filter approval.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(conn(ctx, r.db).Model(&models.PendingApprovalModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountPendingFor counts open requests against one entity
func (r *GormApprovalRepository) CountPendingFor(ctx context.Context, entityType approval.EntityType, entityID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.PendingApprovalModel{}).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, approval.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new approval request
func (r *GormApprovalRepository) Create(ctx context.Context, a *approval.PendingApproval) error {
	return conn(ctx, r.db).Create(models.PendingApprovalModelFromDomain(a)).Error
}

// SaveDecision writes the decision only while the stored row is still pending, so
// two reviewers racing on the same request cannot both succeed.
func (r *GormApprovalRepository) SaveDecision(ctx context.Context, a *approval.PendingApproval) error {
	result := conn(ctx, r.db).Model(&models.PendingApprovalModel{}).
		Where("id = ? AND status = ?", a.ID, approval.StatusPending).
		Updates(map[string]any{
			"status":        a.Status,
			"approved_by":   a.ApprovedBy,
			"manager_notes": a.ManagerNotes,
			"processed_at":  a.ProcessedAt,
			"updated_at":    a.UpdatedAt,
			"version":       a.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return shared.NewInvalidStateError("Approval request has already been processed")
	}
	return nil
}

func (r *GormApprovalRepository) applyFilter(query *gorm.DB, filter approval.Filter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.RequestedBy != nil {
		query = query.Where("requested_by = ?", *filter.RequestedBy)
	}
	return query
}
