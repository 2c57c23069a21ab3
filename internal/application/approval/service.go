package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Target is an entity service that approval requests act on. ApplyChanges and
// Remove join the caller's database transaction when one is open in ctx.
type Target interface {
	Snapshot(ctx context.Context, id uuid.UUID) (shared.Patch, error)
	PreviewChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error
	ApplyChanges(ctx context.Context, id uuid.UUID, changes shared.Patch) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Metrics receives approval counters
type Metrics interface {
	ApprovalSubmitted(requestType string)
	ApprovalDecided(requestType, outcome string)
}

// Service runs the approval workflow: operators submit edit and delete requests,
// managers approve or reject them, and an approved request is carried out in the
// same database transaction that records the decision.
type Service struct {
	repo           approval.Repository
	targets        map[approval.EntityType]Target
	txManager      shared.TransactionManager
	stalePolicy    string
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewService creates a new approval Service. An empty stale policy means
// config.StalePolicyReject.
func NewService(
	repo approval.Repository,
	txManager shared.TransactionManager,
	targets map[approval.EntityType]Target,
	stalePolicy string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stalePolicy == "" {
		stalePolicy = config.StalePolicyReject
	}
	return &Service{
		repo:        repo,
		targets:     targets,
		txManager:   txManager,
		stalePolicy: stalePolicy,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives approval events after commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics sink
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// Submit records a pending request against the current state of the entity.
// Edit requests are dry-run against the entity so that unknown fields and invalid
// values are refused now rather than at approval time.
func (s *Service) Submit(ctx context.Context, requestedBy uuid.UUID, req SubmitRequest) (*ApprovalResponse, error) {
	requestType := approval.RequestType(req.RequestType)
	if !requestType.IsValid() {
		return nil, shared.NewValidationError("Request type must be one of: customer_edit, customer_delete, transaction_edit, transaction_delete")
	}
	entityType := approval.EntityType(req.EntityType)
	if entityType == "" {
		entityType = requestType.EntityType()
	}
	target, err := s.target(entityType)
	if err != nil {
		return nil, err
	}

	original, err := target.Snapshot(ctx, req.EntityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(fmt.Sprintf("%s %s does not exist", entityLabel(entityType), req.EntityID))
		}
		return nil, err
	}
	if !requestType.IsDelete() {
		if len(req.RequestedChanges) == 0 {
			return nil, shared.NewValidationError("Requested changes are required for an edit request")
		}
		if err := target.PreviewChanges(ctx, req.EntityID, req.RequestedChanges); err != nil {
			return nil, err
		}
	}

	a, err := approval.NewPendingApproval(approval.SubmitInput{
		RequestType:      requestType,
		EntityType:       entityType,
		EntityID:         req.EntityID,
		RequestedBy:      requestedBy,
		OriginalData:     original,
		RequestedChanges: req.RequestedChanges,
		Reason:           req.Reason,
	})
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := s.repo.CountPendingFor(ctx, a.EntityType, a.EntityID)
		if err != nil {
			return err
		}
		if open > 0 {
			return shared.NewConflictError(fmt.Sprintf("%s already has a pending approval request", entityLabel(a.EntityType)))
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval request submitted",
		zap.String("approval_id", a.ID.String()),
		zap.String("request_type", string(a.RequestType)),
		zap.String("entity_id", a.EntityID.String()),
		zap.String("requested_by", requestedBy.String()),
	)
	if s.metrics != nil {
		s.metrics.ApprovalSubmitted(string(a.RequestType))
	}
	s.publish(ctx, a)

	response := ToApprovalResponse(a)
	return &response, nil
}

// GetByID retrieves an approval request
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ApprovalResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, approvalNotFound(err)
	}
	response := ToApprovalResponse(a)
	return &response, nil
}

// List retrieves approval requests newest first
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ApprovalResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	approvals, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToApprovalResponses(approvals), total, nil
}

// Approve accepts a pending request and carries it out. The row lock, the entity
// change and the conditional status update share one database transaction, so a
// request is applied at most once even with concurrent reviewers.
func (s *Service) Approve(ctx context.Context, id, managerID uuid.UUID, notes string) (*ApprovalResponse, error) {
	var decided *approval.PendingApproval
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return approvalNotFound(err)
		}
		if err := a.Approve(managerID, notes); err != nil {
			return err
		}
		target, err := s.target(a.EntityType)
		if err != nil {
			return err
		}

		if a.RequestType.IsDelete() {
			if err := target.Remove(ctx, a.EntityID); err != nil {
				return targetGone(a, err)
			}
		} else {
			current, err := target.Snapshot(ctx, a.EntityID)
			if err != nil {
				return targetGone(a, err)
			}
			if s.stalePolicy == config.StalePolicyReject {
				if stale := a.StaleFields(current); len(stale) > 0 {
					return shared.NewConflictError(fmt.Sprintf(
						"%s changed since the request was submitted: %s",
						entityLabel(a.EntityType), strings.Join(stale, ", ")))
				}
			}
			if err := target.ApplyChanges(ctx, a.EntityID, a.RequestedChanges); err != nil {
				return targetGone(a, err)
			}
		}

		if err := s.repo.SaveDecision(ctx, a); err != nil {
			return err
		}
		decided = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.decided(ctx, decided)
	response := ToApprovalResponse(decided)
	return &response, nil
}

// Reject declines a pending request. The entity is left untouched.
func (s *Service) Reject(ctx context.Context, id, managerID uuid.UUID, notes string) (*ApprovalResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, shared.NewValidationError("Manager notes are required to reject a request")
	}

	var decided *approval.PendingApproval
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return approvalNotFound(err)
		}
		if err := a.Reject(managerID, notes); err != nil {
			return err
		}
		if err := s.repo.SaveDecision(ctx, a); err != nil {
			return err
		}
		decided = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.decided(ctx, decided)
	response := ToApprovalResponse(decided)
	return &response, nil
}

func (s *Service) decided(ctx context.Context, a *approval.PendingApproval) {
	s.logger.Info("Approval request decided",
		zap.String("approval_id", a.ID.String()),
		zap.String("request_type", string(a.RequestType)),
		zap.String("status", string(a.Status)),
		zap.Stringp("decided_by", uuidString(a.ApprovedBy)),
	)
	if s.metrics != nil {
		s.metrics.ApprovalDecided(string(a.RequestType), string(a.Status))
	}
	s.publish(ctx, a)
}

// publish hands the aggregate's events to the bus once the decision is committed.
// Delivery failures are logged; the decision stands.
func (s *Service) publish(ctx context.Context, a *approval.PendingApproval) {
	events := a.GetDomainEvents()
	a.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish approval events",
			zap.String("approval_id", a.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) target(entityType approval.EntityType) (Target, error) {
	t, ok := s.targets[entityType]
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf("Entity type %q is not supported", entityType))
	}
	return t, nil
}

// targetGone turns a missing entity into a conflict: the request was valid when
// submitted but can no longer be carried out.
func targetGone(a *approval.PendingApproval, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewConflictError(fmt.Sprintf("%s %s no longer exists", entityLabel(a.EntityType), a.EntityID))
	}
	return err
}

func approvalNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Approval request")
	}
	return err
}

func entityLabel(t approval.EntityType) string {
	switch t {
	case approval.EntityCustomer:
		return "Customer"
	case approval.EntityTransaction:
		return "Transaction"
	default:
		return string(t)
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
