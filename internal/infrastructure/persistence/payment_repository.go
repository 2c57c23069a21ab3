package persistence

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements sales.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	return r.findOne(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate finds a payment and locks its row for the rest of the transaction
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *GormPaymentRepository) findOne(query *gorm.DB) (*sales.Payment, error) {
	var model models.PaymentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists payments matching the filter, most recently paid first
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter sales.PaymentFilter) ([]sales.Payment, error) {
	var rows []models.PaymentModel
	query := paginate(r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}), filter), filter.Filter, PaymentSortFields, "paid_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]sales.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter sales.PaymentFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumCompleted totals completed payments in rng, restricted to customers of a branch when set
func (r *GormPaymentRepository) SumCompleted(ctx context.Context, branchID *uuid.UUID, rng sales.DateRange) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	query := inRange(conn(ctx, r.db).Model(&models.PaymentModel{}), "paid_at", rng).
		Where("status = ?", sales.PaymentRecordCompleted)
	if branchID != nil {
		query = query.Where("customer_id IN (?)",
			conn(ctx, r.db).Model(&models.CustomerModel{}).Select("id").Where("branch_id = ?", *branchID))
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *sales.Payment) error {
	return conn(ctx, r.db).Save(models.PaymentModelFromDomain(p)).Error
}

// Delete deletes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter sales.PaymentFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where(`LOWER(reference) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.TransactionID != nil {
		query = query.Where("transaction_id = ?", *filter.TransactionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return inRange(query, "paid_at", filter.Period)
}
