package models

import (
	"time"

	"github.com/gasdist/backend/internal/domain/analytics"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForecastModel is the persistence model for the Forecast domain entity.
type ForecastModel struct {
	AggregateModel
	BranchID        *uuid.UUID               `gorm:"type:uuid;index"`
	CylinderType    sales.CylinderType       `gorm:"type:varchar(10);not null"`
	ForecastDate    time.Time                `gorm:"not null;index"`
	PredictedDemand decimal.Decimal          `gorm:"type:decimal(10,2);not null"`
	Confidence      decimal.Decimal          `gorm:"type:decimal(3,2);not null;default:0"`
	Method          analytics.ForecastMethod `gorm:"type:varchar(20);not null;default:'manual'"`
	ActualDemand    *int
	Notes           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ForecastModel) TableName() string {
	return "forecasts"
}

// ToDomain converts the persistence model to a domain Forecast
func (m *ForecastModel) ToDomain() *analytics.Forecast {
	return &analytics.Forecast{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BranchID:          m.BranchID,
		CylinderType:      m.CylinderType,
		ForecastDate:      m.ForecastDate,
		PredictedDemand:   m.PredictedDemand,
		Confidence:        m.Confidence,
		Method:            m.Method,
		ActualDemand:      m.ActualDemand,
		Notes:             m.Notes,
	}
}

// ForecastModelFromDomain creates a persistence model from a domain Forecast
func ForecastModelFromDomain(f *analytics.Forecast) *ForecastModel {
	m := &ForecastModel{
		BranchID:        f.BranchID,
		CylinderType:    f.CylinderType,
		ForecastDate:    f.ForecastDate.UTC(),
		PredictedDemand: f.PredictedDemand,
		Confidence:      f.Confidence,
		Method:          f.Method,
		ActualDemand:    f.ActualDemand,
		Notes:           f.Notes,
	}
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	return m
}

// AnalyticsModel is the persistence model for the Analytics domain entity.
type AnalyticsModel struct {
	AggregateModel
	BranchID          *uuid.UUID           `gorm:"type:uuid;index"`
	PeriodType        analytics.PeriodType `gorm:"type:varchar(10);not null"`
	PeriodStart       time.Time            `gorm:"not null;index"`
	PeriodEnd         time.Time            `gorm:"not null"`
	TotalTransactions int64                `gorm:"not null;default:0"`
	TotalQuantity     int64                `gorm:"not null;default:0"`
	TotalRevenue      decimal.Decimal      `gorm:"type:decimal(14,2);not null;default:0"`
	TotalPayments     decimal.Decimal      `gorm:"type:decimal(14,2);not null;default:0"`
	NewCustomers      int64                `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AnalyticsModel) TableName() string {
	return "analytics"
}

// ToDomain converts the persistence model to a domain Analytics row
func (m *AnalyticsModel) ToDomain() *analytics.Analytics {
	return &analytics.Analytics{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BranchID:          m.BranchID,
		PeriodType:        m.PeriodType,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		Metrics: analytics.Metrics{
			TotalTransactions: m.TotalTransactions,
			TotalQuantity:     m.TotalQuantity,
			TotalRevenue:      m.TotalRevenue,
			TotalPayments:     m.TotalPayments,
			NewCustomers:      m.NewCustomers,
		},
	}
}

// AnalyticsModelFromDomain creates a persistence model from a domain Analytics row
func AnalyticsModelFromDomain(a *analytics.Analytics) *AnalyticsModel {
	m := &AnalyticsModel{
		BranchID:          a.BranchID,
		PeriodType:        a.PeriodType,
		PeriodStart:       a.PeriodStart.UTC(),
		PeriodEnd:         a.PeriodEnd.UTC(),
		TotalTransactions: a.TotalTransactions,
		TotalQuantity:     a.TotalQuantity,
		TotalRevenue:      a.TotalRevenue,
		TotalPayments:     a.TotalPayments,
		NewCustomers:      a.NewCustomers,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
