package analytics

import (
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForecastMethod records how a forecast was produced
type ForecastMethod string

const (
	ForecastMethodManual        ForecastMethod = "manual"
	ForecastMethodMovingAverage ForecastMethod = "moving_average"
)

// Forecast is the expected cylinder demand of one size on one day.
type Forecast struct {
	shared.BaseAggregateRoot
	BranchID        *uuid.UUID
	CylinderType    sales.CylinderType
	ForecastDate    time.Time
	PredictedDemand decimal.Decimal
	Confidence      decimal.Decimal
	Method          ForecastMethod
	ActualDemand    *int
	Notes           string
}

// NewForecast creates a forecast. Confidence is a fraction in [0, 1].
func NewForecast(branchID *uuid.UUID, cylinderType sales.CylinderType, forecastDate time.Time, predicted, confidence decimal.Decimal, method ForecastMethod) (*Forecast, error) {
	f := &Forecast{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		CylinderType:      cylinderType,
		ForecastDate:      truncateDay(forecastDate),
		PredictedDemand:   predicted,
		Confidence:        confidence,
		Method:            method,
	}
	if f.Method == "" {
		f.Method = ForecastMethodManual
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Revise replaces the prediction
func (f *Forecast) Revise(predicted, confidence decimal.Decimal, notes string) error {
	next := *f
	next.PredictedDemand = predicted
	next.Confidence = confidence
	next.Notes = strings.TrimSpace(notes)
	if err := next.validate(); err != nil {
		return err
	}
	*f = next
	f.touch()
	return nil
}

// RecordActual stores the observed demand once the day has passed
func (f *Forecast) RecordActual(actual int) error {
	if actual < 0 {
		return shared.NewValidationError("Actual demand cannot be negative")
	}
	f.ActualDemand = &actual
	f.touch()
	return nil
}

// AbsoluteError is |predicted - actual|, nil until the actual is known
func (f *Forecast) AbsoluteError() *decimal.Decimal {
	if f.ActualDemand == nil {
		return nil
	}
	diff := f.PredictedDemand.Sub(decimal.NewFromInt(int64(*f.ActualDemand))).Abs()
	return &diff
}

func (f *Forecast) validate() error {
	if !f.CylinderType.IsValid() {
		return shared.NewValidationError("Cylinder type must be one of: 6kg, 13kg, 50kg")
	}
	if f.ForecastDate.IsZero() {
		return shared.NewValidationError("Forecast date is required")
	}
	if f.PredictedDemand.IsNegative() {
		return shared.NewValidationError("Predicted demand cannot be negative")
	}
	if f.Confidence.IsNegative() || f.Confidence.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewValidationError("Confidence must be between 0 and 1")
	}
	if f.Method != ForecastMethodManual && f.Method != ForecastMethodMovingAverage {
		return shared.NewValidationError("Method must be manual or moving_average")
	}
	return nil
}

func (f *Forecast) touch() {
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
}

// MovingAverage predicts the next day's demand as the mean daily quantity over a
// window of days. Days without sales count as zero. Confidence is the share of
// days that had sales, scaled down by the mean absolute deviation.
func MovingAverage(days []sales.DailyQuantity, windowDays int) (predicted, confidence decimal.Decimal) {
	if windowDays <= 0 {
		return decimal.Zero, decimal.Zero
	}
	perDay := make(map[string]int64, len(days))
	var total int64
	for _, d := range days {
		perDay[d.Day.Format("2006-01-02")] += d.Quantity
		total += d.Quantity
	}
	if total <= 0 {
		return decimal.Zero, decimal.Zero
	}

	window := decimal.NewFromInt(int64(windowDays))
	mean := decimal.NewFromInt(total).Div(window)

	active := 0
	deviation := decimal.Zero
	for _, q := range perDay {
		if q > 0 {
			active++
		}
		deviation = deviation.Add(decimal.NewFromInt(q).Sub(mean).Abs())
	}
	if missing := windowDays - len(perDay); missing > 0 {
		deviation = deviation.Add(mean.Mul(decimal.NewFromInt(int64(missing))))
	}
	mad := deviation.Div(window)

	stability := decimal.NewFromInt(1).Sub(mad.Div(mean))
	if stability.IsNegative() {
		stability = decimal.Zero
	}
	coverage := decimal.NewFromInt(int64(active)).Div(window)
	if coverage.GreaterThan(decimal.NewFromInt(1)) {
		coverage = decimal.NewFromInt(1)
	}
	return mean.Round(2), coverage.Mul(stability).Round(2)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
