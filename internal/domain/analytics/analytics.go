package analytics

import (
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodType is the granularity of an analytics row
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// IsValid reports whether p is a known period type
func (p PeriodType) IsValid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// Bounds returns the period containing start: the day, the ISO week starting
// Monday, or the calendar month.
func (p PeriodType) Bounds(start time.Time) (time.Time, time.Time) {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		from := day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7).Add(-time.Nanosecond)
	case PeriodMonthly:
		from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		return day, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
}

// Metrics are the aggregated figures of a period
type Metrics struct {
	TotalTransactions int64
	TotalQuantity     int64
	TotalRevenue      decimal.Decimal
	TotalPayments     decimal.Decimal
	NewCustomers      int64
}

// Analytics is a stored summary of business activity over a period.
type Analytics struct {
	shared.BaseAggregateRoot
	BranchID    *uuid.UUID
	PeriodType  PeriodType
	PeriodStart time.Time
	PeriodEnd   time.Time
	Metrics
}

// NewAnalytics creates a summary row for the period containing start
func NewAnalytics(branchID *uuid.UUID, periodType PeriodType, start time.Time, m Metrics) (*Analytics, error) {
	if !periodType.IsValid() {
		return nil, shared.NewValidationError("Period type must be one of: daily, weekly, monthly")
	}
	if start.IsZero() {
		return nil, shared.NewValidationError("Period start is required")
	}
	if err := validateMetrics(m); err != nil {
		return nil, err
	}
	from, to := periodType.Bounds(start)
	return &Analytics{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		PeriodType:        periodType,
		PeriodStart:       from,
		PeriodEnd:         to,
		Metrics:           m,
	}, nil
}

// Refresh replaces the figures
func (a *Analytics) Refresh(m Metrics) error {
	if err := validateMetrics(m); err != nil {
		return err
	}
	a.Metrics = m
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// AverageTransactionValue is revenue per transaction
func (a *Analytics) AverageTransactionValue() decimal.Decimal {
	if a.TotalTransactions == 0 {
		return decimal.Zero
	}
	return a.TotalRevenue.Div(decimal.NewFromInt(a.TotalTransactions)).Round(2)
}

func validateMetrics(m Metrics) error {
	if m.TotalTransactions < 0 || m.TotalQuantity < 0 || m.NewCustomers < 0 {
		return shared.NewValidationError("Counts cannot be negative")
	}
	if m.TotalRevenue.IsNegative() || m.TotalPayments.IsNegative() {
		return shared.NewValidationError("Amounts cannot be negative")
	}
	return nil
}
