package analytics

import (
	"context"
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ForecastFilter narrows forecast listings
type ForecastFilter struct {
	shared.Filter
	BranchID     *uuid.UUID
	CylinderType sales.CylinderType
	Period       sales.DateRange
}

// ForecastRepository defines the interface for forecast persistence
type ForecastRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Forecast, error)
	// FindAll lists forecasts by forecast date, newest first
	FindAll(ctx context.Context, filter ForecastFilter) ([]Forecast, error)
	Count(ctx context.Context, filter ForecastFilter) (int64, error)
	Save(ctx context.Context, f *Forecast) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalyticsFilter narrows analytics listings
type AnalyticsFilter struct {
	shared.Filter
	BranchID   *uuid.UUID
	PeriodType PeriodType
}

// AnalyticsRepository defines the interface for analytics persistence
type AnalyticsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Analytics, error)
	// FindByPeriod returns the row for a branch (nil for company-wide) and period
	FindByPeriod(ctx context.Context, branchID *uuid.UUID, periodType PeriodType, periodStart time.Time) (*Analytics, error)
	// FindAll lists rows by period start, newest first
	FindAll(ctx context.Context, filter AnalyticsFilter) ([]Analytics, error)
	Count(ctx context.Context, filter AnalyticsFilter) (int64, error)
	Save(ctx context.Context, a *Analytics) error
	Delete(ctx context.Context, id uuid.UUID) error
}
