package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/gasdist/backend/internal/domain/analytics"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForecastService manages demand forecasts
type ForecastService struct {
	forecastRepo    analytics.ForecastRepository
	transactionRepo sales.TransactionRepository
	logger          *zap.Logger
}

// NewForecastService creates a new ForecastService
func NewForecastService(forecastRepo analytics.ForecastRepository, transactionRepo sales.TransactionRepository, logger *zap.Logger) *ForecastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastService{forecastRepo: forecastRepo, transactionRepo: transactionRepo, logger: logger}
}

// Create records a manual forecast
func (s *ForecastService) Create(ctx context.Context, req CreateForecastRequest) (*ForecastResponse, error) {
	f, err := analytics.NewForecast(req.BranchID, sales.CylinderType(req.CylinderType), req.ForecastDate,
		req.PredictedDemand, req.Confidence, analytics.ForecastMethodManual)
	if err != nil {
		return nil, err
	}
	f.Notes = req.Notes
	if err := s.forecastRepo.Save(ctx, f); err != nil {
		return nil, err
	}
	response := ToForecastResponse(f)
	return &response, nil
}

// Generate predicts demand for forecastDate as the moving average of daily
// quantities over the preceding window of days.
func (s *ForecastService) Generate(ctx context.Context, req GenerateForecastRequest) (*ForecastResponse, error) {
	cylinderType := sales.CylinderType(req.CylinderType)
	if !cylinderType.IsValid() {
		return nil, shared.NewValidationError("Cylinder type must be one of: 6kg, 13kg, 50kg")
	}
	if req.ForecastDate.IsZero() {
		return nil, shared.NewValidationError("Forecast date is required")
	}
	window := req.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}

	history, err := s.transactionRepo.DailyQuantities(ctx, req.BranchID, cylinderType, sales.LastDays(req.ForecastDate, window))
	if err != nil {
		return nil, err
	}
	predicted, confidence := analytics.MovingAverage(history, window)

	f, err := analytics.NewForecast(req.BranchID, cylinderType, req.ForecastDate, predicted, confidence, analytics.ForecastMethodMovingAverage)
	if err != nil {
		return nil, err
	}
	f.Notes = fmt.Sprintf("%d-day moving average over %d active days", window, len(history))
	if err := s.forecastRepo.Save(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("Forecast generated",
		zap.String("forecast_id", f.ID.String()),
		zap.String("cylinder_type", string(cylinderType)),
		zap.Time("forecast_date", f.ForecastDate),
		zap.String("predicted", predicted.String()),
		zap.String("confidence", confidence.String()),
	)
	response := ToForecastResponse(f)
	return &response, nil
}

// GetByID retrieves a forecast
func (s *ForecastService) GetByID(ctx context.Context, id uuid.UUID) (*ForecastResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToForecastResponse(f)
	return &response, nil
}

// List retrieves forecasts by forecast date, newest first
func (s *ForecastService) List(ctx context.Context, filter ForecastListFilter) ([]ForecastResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	forecasts, err := s.forecastRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.forecastRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ForecastResponse, len(forecasts))
	for i := range forecasts {
		out[i] = ToForecastResponse(&forecasts[i])
	}
	return out, total, nil
}

// Update revises the prediction and records the observed demand
func (s *ForecastService) Update(ctx context.Context, id uuid.UUID, req UpdateForecastRequest) (*ForecastResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PredictedDemand != nil || req.Confidence != nil || req.Notes != nil {
		predicted, confidence, notes := f.PredictedDemand, f.Confidence, f.Notes
		if req.PredictedDemand != nil {
			predicted = *req.PredictedDemand
		}
		if req.Confidence != nil {
			confidence = *req.Confidence
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		if err := f.Revise(predicted, confidence, notes); err != nil {
			return nil, err
		}
	}
	if req.ActualDemand != nil {
		if err := f.RecordActual(*req.ActualDemand); err != nil {
			return nil, err
		}
	}
	if err := s.forecastRepo.Save(ctx, f); err != nil {
		return nil, err
	}
	response := ToForecastResponse(f)
	return &response, nil
}

// Delete removes a forecast
func (s *ForecastService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.forecastRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("Forecast")
		}
		return err
	}
	return nil
}

func (s *ForecastService) find(ctx context.Context, id uuid.UUID) (*analytics.Forecast, error) {
	f, err := s.forecastRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Forecast")
		}
		return nil, err
	}
	return f, nil
}
