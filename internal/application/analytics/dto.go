package analytics

import (
	"time"

	"github.com/gasdist/backend/internal/domain/analytics"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the moving-average window used when a generate request
// does not name one
const DefaultWindowDays = 14

// =============================================================================
// Forecast DTOs
// =============================================================================

// CreateForecastRequest records a manual forecast
type CreateForecastRequest struct {
	BranchID        *uuid.UUID      `json:"branchId"`
	CylinderType    string          `json:"cylinderType" binding:"required,cylinder_type"`
	ForecastDate    time.Time       `json:"forecastDate" binding:"required"`
	PredictedDemand decimal.Decimal `json:"predictedDemand"`
	Confidence      decimal.Decimal `json:"confidence"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

// UpdateForecastRequest revises a forecast or records the observed demand
type UpdateForecastRequest struct {
	PredictedDemand *decimal.Decimal `json:"predictedDemand"`
	Confidence      *decimal.Decimal `json:"confidence"`
	Notes           *string          `json:"notes" binding:"omitempty,max=1000"`
	ActualDemand    *int             `json:"actualDemand" binding:"omitempty,min=0"`
}

// GenerateForecastRequest asks for a moving-average forecast
type GenerateForecastRequest struct {
	BranchID     *uuid.UUID `json:"branchId"`
	CylinderType string     `json:"cylinderType" binding:"required,cylinder_type"`
	ForecastDate time.Time  `json:"forecastDate" binding:"required"`
	WindowDays   int        `json:"windowDays" binding:"omitempty,min=1,max=365"`
}

// ForecastResponse represents a forecast in API responses
type ForecastResponse struct {
	ID              uuid.UUID        `json:"id"`
	BranchID        *uuid.UUID       `json:"branchId"`
	CylinderType    string           `json:"cylinderType"`
	ForecastDate    time.Time        `json:"forecastDate"`
	PredictedDemand decimal.Decimal  `json:"predictedDemand"`
	Confidence      decimal.Decimal  `json:"confidence"`
	Method          string           `json:"method"`
	ActualDemand    *int             `json:"actualDemand"`
	AbsoluteError   *decimal.Decimal `json:"absoluteError,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ForecastListFilter represents filter options for the forecast list
type ForecastListFilter struct {
	BranchID     string `form:"branchId" binding:"omitempty,uuid"`
	CylinderType string `form:"cylinderType" binding:"omitempty,cylinder_type"`
	From         string `form:"from"`
	To           string `form:"to"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToDomain builds the repository filter
func (f ForecastListFilter) ToDomain() (analytics.ForecastFilter, error) {
	out := analytics.ForecastFilter{
		Filter:       pageFilter(f.Page, f.PageSize),
		CylinderType: sales.CylinderType(f.CylinderType),
	}
	var err error
	if out.BranchID, err = optionalUUID("branchId", f.BranchID); err != nil {
		return out, err
	}
	out.Period, err = parsePeriod(f.From, f.To)
	return out, err
}

// ToForecastResponse converts a domain forecast to a response
func ToForecastResponse(f *analytics.Forecast) ForecastResponse {
	return ForecastResponse{
		ID:              f.ID,
		BranchID:        f.BranchID,
		CylinderType:    string(f.CylinderType),
		ForecastDate:    f.ForecastDate,
		PredictedDemand: f.PredictedDemand,
		Confidence:      f.Confidence,
		Method:          string(f.Method),
		ActualDemand:    f.ActualDemand,
		AbsoluteError:   f.AbsoluteError(),
		Notes:           f.Notes,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// =============================================================================
// Analytics DTOs
// =============================================================================

// CreateAnalyticsRequest records figures for a period by hand
type CreateAnalyticsRequest struct {
	BranchID          *uuid.UUID      `json:"branchId"`
	PeriodType        string          `json:"periodType" binding:"required,oneof=daily weekly monthly"`
	PeriodStart       time.Time       `json:"periodStart" binding:"required"`
	TotalTransactions int64           `json:"totalTransactions" binding:"min=0"`
	TotalQuantity     int64           `json:"totalQuantity" binding:"min=0"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalPayments     decimal.Decimal `json:"totalPayments"`
	NewCustomers      int64           `json:"newCustomers" binding:"min=0"`
}

// Metrics returns the figures of the request
func (r CreateAnalyticsRequest) Metrics() analytics.Metrics {
	return analytics.Metrics{
		TotalTransactions: r.TotalTransactions,
		TotalQuantity:     r.TotalQuantity,
		TotalRevenue:      r.TotalRevenue,
		TotalPayments:     r.TotalPayments,
		NewCustomers:      r.NewCustomers,
	}
}

// UpdateAnalyticsRequest corrects stored figures. Nil fields are left unchanged.
type UpdateAnalyticsRequest struct {
	TotalTransactions *int64           `json:"totalTransactions" binding:"omitempty,min=0"`
	TotalQuantity     *int64           `json:"totalQuantity" binding:"omitempty,min=0"`
	TotalRevenue      *decimal.Decimal `json:"totalRevenue"`
	TotalPayments     *decimal.Decimal `json:"totalPayments"`
	NewCustomers      *int64           `json:"newCustomers" binding:"omitempty,min=0"`
}

// ComputeAnalyticsRequest asks for a period to be aggregated from the ledger
type ComputeAnalyticsRequest struct {
	BranchID    *uuid.UUID `json:"branchId"`
	PeriodType  string     `json:"periodType" binding:"required,oneof=daily weekly monthly"`
	PeriodStart time.Time  `json:"periodStart" binding:"required"`
}

// AnalyticsResponse represents an analytics row in API responses
type AnalyticsResponse struct {
	ID                      uuid.UUID       `json:"id"`
	BranchID                *uuid.UUID      `json:"branchId"`
	PeriodType              string          `json:"periodType"`
	PeriodStart             time.Time       `json:"periodStart"`
	PeriodEnd               time.Time       `json:"periodEnd"`
	TotalTransactions       int64           `json:"totalTransactions"`
	TotalQuantity           int64           `json:"totalQuantity"`
	TotalRevenue            decimal.Decimal `json:"totalRevenue"`
	TotalPayments           decimal.Decimal `json:"totalPayments"`
	NewCustomers            int64           `json:"newCustomers"`
	AverageTransactionValue decimal.Decimal `json:"averageTransactionValue"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// AnalyticsListFilter represents filter options for the analytics list
type AnalyticsListFilter struct {
	BranchID   string `form:"branchId" binding:"omitempty,uuid"`
	PeriodType string `form:"periodType" binding:"omitempty,oneof=daily weekly monthly"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToDomain builds the repository filter
func (f AnalyticsListFilter) ToDomain() (analytics.AnalyticsFilter, error) {
	out := analytics.AnalyticsFilter{
		Filter:     pageFilter(f.Page, f.PageSize),
		PeriodType: analytics.PeriodType(f.PeriodType),
	}
	var err error
	out.BranchID, err = optionalUUID("branchId", f.BranchID)
	return out, err
}

// ToAnalyticsResponse converts a domain analytics row to a response
func ToAnalyticsResponse(a *analytics.Analytics) AnalyticsResponse {
	return AnalyticsResponse{
		ID:                      a.ID,
		BranchID:                a.BranchID,
		PeriodType:              string(a.PeriodType),
		PeriodStart:             a.PeriodStart,
		PeriodEnd:               a.PeriodEnd,
		TotalTransactions:       a.TotalTransactions,
		TotalQuantity:           a.TotalQuantity,
		TotalRevenue:            a.TotalRevenue,
		TotalPayments:           a.TotalPayments,
		NewCustomers:            a.NewCustomers,
		AverageTransactionValue: a.AverageTransactionValue(),
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
}

func pageFilter(page, pageSize int) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	return f
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

func parsePeriod(from, to string) (sales.DateRange, error) {
	var r sales.DateRange
	var err error
	if from != "" {
		if r.From, err = time.Parse("2006-01-02", from); err != nil {
			return r, shared.NewValidationError("from must be a date (YYYY-MM-DD)")
		}
	}
	if to != "" {
		if r.To, err = time.Parse("2006-01-02", to); err != nil {
			return r, shared.NewValidationError("to must be a date (YYYY-MM-DD)")
		}
		r.To = r.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return sales.NewDateRange(r.From, r.To)
}
