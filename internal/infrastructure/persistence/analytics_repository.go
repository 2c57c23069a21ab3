package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gasdist/backend/internal/domain/analytics"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormForecastRepository implements analytics.ForecastRepository using GORM
type GormForecastRepository struct {
	db *gorm.DB
}

// NewGormForecastRepository creates a new GormForecastRepository
func NewGormForecastRepository(db *gorm.DB) *GormForecastRepository {
	return &GormForecastRepository{db: db}
}

// FindByID finds a forecast by ID
func (r *GormForecastRepository) FindByID(ctx context.Context, id uuid.UUID) (*analytics.Forecast, error) {
	var model models.ForecastModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists forecasts by forecast date, newest first
func (r *GormForecastRepository) FindAll(ctx context.Context, filter analytics.ForecastFilter) ([]analytics.Forecast, error) {
	var rows []models.ForecastModel
	query := paginate(r.applyFilter(conn(ctx, r.db).Model(&models.ForecastModel{}), filter), filter.Filter, ForecastSortFields, "forecast_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]analytics.Forecast, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts forecasts matching the filter
func (r *GormForecastRepository) Count(ctx context.Context, filter analytics.ForecastFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(conn(ctx, r.db).Model(&models.ForecastModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a forecast
func (r *GormForecastRepository) Save(ctx context.Context, f *analytics.Forecast) error {
	return conn(ctx, r.db).Save(models.ForecastModelFromDomain(f)).Error
}

// Delete deletes a forecast
func (r *GormForecastRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ForecastModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormForecastRepository) applyFilter(query *gorm.DB, filter analytics.ForecastFilter) *gorm.DB {
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.CylinderType != "" {
		query = query.Where("cylinder_type = ?", filter.CylinderType)
	}
	return inRange(query, "forecast_date", filter.Period)
}

// GormAnalyticsRepository implements analytics.AnalyticsRepository using GORM
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new GormAnalyticsRepository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// FindByID finds an analytics row by ID
func (r *GormAnalyticsRepository) FindByID(ctx context.Context, id uuid.UUID) (*analytics.Analytics, error) {
	return r.findOne(conn(ctx, r.db).Where("id = ?", id))
}

// FindByPeriod finds the row for a branch and period; a nil branch means company-wide
func (r *GormAnalyticsRepository) FindByPeriod(ctx context.Context, branchID *uuid.UUID, periodType analytics.PeriodType, periodStart time.Time) (*analytics.Analytics, error) {
	query := conn(ctx, r.db).Where("period_type = ? AND period_start = ?", periodType, periodStart.UTC())
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	} else {
		query = query.Where("branch_id IS NULL")
	}
	return r.findOne(query)
}

func (r *GormAnalyticsRepository) findOne(query *gorm.DB) (*analytics.Analytics, error) {
	var model models.AnalyticsModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists analytics rows by period start, newest first
func (r *GormAnalyticsRepository) FindAll(ctx context.Context, filter analytics.AnalyticsFilter) ([]analytics.Analytics, error) {
	var rows []models.AnalyticsModel
	query := paginate(r.applyFilter(conn(ctx, r.db).Model(&models.AnalyticsModel{}), filter), filter.Filter, AnalyticsSortFields, "period_start")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]analytics.Analytics, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts analytics rows matching the filter
func (r *GormAnalyticsRepository) Count(ctx context.Context, filter analytics.AnalyticsFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(conn(ctx, r.db).Model(&models.AnalyticsModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an analytics row
func (r *GormAnalyticsRepository) Save(ctx context.Context, a *analytics.Analytics) error {
	return conn(ctx, r.db).Save(models.AnalyticsModelFromDomain(a)).Error
}

// Delete deletes an analytics row
func (r *GormAnalyticsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.AnalyticsModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAnalyticsRepository) applyFilter(query *gorm.DB, filter analytics.AnalyticsFilter) *gorm.DB {
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.PeriodType != "" {
		query = query.Where("period_type = ?", filter.PeriodType)
	}
	return query
}
