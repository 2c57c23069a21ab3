package analytics

import (
	"context"
	"errors"

	"github.com/gasdist/backend/internal/domain/analytics"
	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyticsService stores period summaries, either entered by hand or computed
// from transactions, payments and customer sign-ups.
type AnalyticsService struct {
	analyticsRepo   analytics.AnalyticsRepository
	transactionRepo sales.TransactionRepository
	paymentRepo     sales.PaymentRepository
	customerRepo    partner.CustomerRepository
	logger          *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	analyticsRepo analytics.AnalyticsRepository,
	transactionRepo sales.TransactionRepository,
	paymentRepo sales.PaymentRepository,
	customerRepo partner.CustomerRepository,
	logger *zap.Logger,
) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		analyticsRepo:   analyticsRepo,
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		customerRepo:    customerRepo,
		logger:          logger,
	}
}

// Create stores figures for a period. A second row for the same branch and
// period is refused; use Compute or Update to change it.
func (s *AnalyticsService) Create(ctx context.Context, req CreateAnalyticsRequest) (*AnalyticsResponse, error) {
	a, err := analytics.NewAnalytics(req.BranchID, analytics.PeriodType(req.PeriodType), req.PeriodStart, req.Metrics())
	if err != nil {
		return nil, err
	}
	existing, err := s.analyticsRepo.FindByPeriod(ctx, a.BranchID, a.PeriodType, a.PeriodStart)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Analytics for this period already exist")
	}
	if err := s.analyticsRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	response := ToAnalyticsResponse(a)
	return &response, nil
}

// Compute aggregates the period containing PeriodStart and stores the result,
// replacing the figures of an existing row for the same branch and period.
func (s *AnalyticsService) Compute(ctx context.Context, req ComputeAnalyticsRequest) (*AnalyticsResponse, error) {
	periodType := analytics.PeriodType(req.PeriodType)
	if !periodType.IsValid() {
		return nil, shared.NewValidationError("Period type must be one of: daily, weekly, monthly")
	}
	if req.PeriodStart.IsZero() {
		return nil, shared.NewValidationError("Period start is required")
	}
	from, to := periodType.Bounds(req.PeriodStart)
	period := sales.DateRange{From: from, To: to}

	totals, err := s.transactionRepo.Totals(ctx, req.BranchID, period)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.SumCompleted(ctx, req.BranchID, period)
	if err != nil {
		return nil, err
	}
	customerFilter := shared.Filter{Filters: map[string]interface{}{
		"created_from": from,
		"created_to":   to,
	}}
	if req.BranchID != nil {
		customerFilter.Filters["branch_id"] = req.BranchID.String()
	}
	newCustomers, err := s.customerRepo.Count(ctx, customerFilter)
	if err != nil {
		return nil, err
	}

	m := analytics.Metrics{
		TotalTransactions: totals.Count,
		TotalQuantity:     totals.Quantity,
		TotalRevenue:      totals.Revenue,
		TotalPayments:     payments,
		NewCustomers:      newCustomers,
	}

	a, err := s.analyticsRepo.FindByPeriod(ctx, req.BranchID, periodType, from)
	switch {
	case err == nil:
		if err := a.Refresh(m); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		if a, err = analytics.NewAnalytics(req.BranchID, periodType, from, m); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := s.analyticsRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("Analytics computed",
		zap.String("analytics_id", a.ID.String()),
		zap.String("period_type", string(periodType)),
		zap.Time("period_start", from),
		zap.Int64("transactions", m.TotalTransactions),
	)
	response := ToAnalyticsResponse(a)
	return &response, nil
}

// GetByID retrieves an analytics row
func (s *AnalyticsService) GetByID(ctx context.Context, id uuid.UUID) (*AnalyticsResponse, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAnalyticsResponse(a)
	return &response, nil
}

// List retrieves analytics rows by period start, newest first
func (s *AnalyticsService) List(ctx context.Context, filter AnalyticsListFilter) ([]AnalyticsResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.analyticsRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.analyticsRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]AnalyticsResponse, len(rows))
	for i := range rows {
		out[i] = ToAnalyticsResponse(&rows[i])
	}
	return out, total, nil
}

// Update corrects stored figures
func (s *AnalyticsService) Update(ctx context.Context, id uuid.UUID, req UpdateAnalyticsRequest) (*AnalyticsResponse, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	m := a.Metrics
	if req.TotalTransactions != nil {
		m.TotalTransactions = *req.TotalTransactions
	}
	if req.TotalQuantity != nil {
		m.TotalQuantity = *req.TotalQuantity
	}
	if req.TotalRevenue != nil {
		m.TotalRevenue = *req.TotalRevenue
	}
	if req.TotalPayments != nil {
		m.TotalPayments = *req.TotalPayments
	}
	if req.NewCustomers != nil {
		m.NewCustomers = *req.NewCustomers
	}
	if err := a.Refresh(m); err != nil {
		return nil, err
	}
	if err := s.analyticsRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	response := ToAnalyticsResponse(a)
	return &response, nil
}

// Delete removes an analytics row
func (s *AnalyticsService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.analyticsRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("Analytics")
		}
		return err
	}
	return nil
}

func (s *AnalyticsService) find(ctx context.Context, id uuid.UUID) (*analytics.Analytics, error) {
	a, err := s.analyticsRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Analytics")
		}
		return nil, err
	}
	return a, nil
}
