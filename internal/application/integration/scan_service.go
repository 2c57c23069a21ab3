package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/gasdist/backend/internal/application/partner"
	"github.com/gasdist/backend/internal/application/sales"
	"github.com/gasdist/backend/internal/domain/integration"
	domainpartner "github.com/gasdist/backend/internal/domain/partner"
	domainsales "github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ScanService resolves scanned codes to receipts and customers
type ScanService struct {
	scanner         integration.ScanPort
	transactionRepo domainsales.TransactionRepository
	customerRepo    domainpartner.CustomerRepository
	logger          *zap.Logger
}

// NewScanService creates a new ScanService
func NewScanService(
	scanner integration.ScanPort,
	transactionRepo domainsales.TransactionRepository,
	customerRepo domainpartner.CustomerRepository,
	logger *zap.Logger,
) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		scanner:         scanner,
		transactionRepo: transactionRepo,
		customerRepo:    customerRepo,
		logger:          logger,
	}
}

// Resolve decodes raw scanner input and looks the code up. A receipt number
// resolves to its transaction; any other code is tried as a customer phone
// number and then as an id number.
func (s *ScanService) Resolve(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	result, err := s.scanner.Decode(ctx, []byte(req.Raw))
	if err != nil {
		if errors.Is(err, integration.ErrInvalidScan) {
			return nil, shared.NewValidationError(err.Error())
		}
		return nil, err
	}
	response := &ScanResponse{Code: result.Code, Symbology: string(result.Symbology)}

	if code := strings.ToUpper(result.Code); strings.HasPrefix(code, domainsales.ReceiptPrefix+"-") {
		t, err := s.transactionRepo.FindByReceiptNumber(ctx, code)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewNotFoundError("Receipt " + code)
			}
			return nil, err
		}
		tr := sales.ToTransactionResponse(t)
		response.Match = MatchTransaction
		response.Transaction = &tr
		return response, nil
	}

	c, err := s.findCustomer(ctx, result.Code)
	if err != nil {
		return nil, err
	}
	cr := partner.ToCustomerResponse(c)
	response.Match = MatchCustomer
	response.Customer = &cr
	s.logger.Debug("Scan resolved to customer",
		zap.String("code", result.Code),
		zap.String("customer_id", c.ID.String()),
	)
	return response, nil
}

func (s *ScanService) findCustomer(ctx context.Context, code string) (*domainpartner.Customer, error) {
	c, err := s.customerRepo.FindByPhone(ctx, code)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	c, err = s.customerRepo.FindByIDNumber(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Customer for code " + code)
		}
		return nil, err
	}
	return c, nil
}
