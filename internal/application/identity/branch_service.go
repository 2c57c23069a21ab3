package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BranchService manages depots and shops
type BranchService struct {
	branchRepo identity.BranchRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(branchRepo identity.BranchRepository, userRepo identity.UserRepository, logger *zap.Logger) *BranchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{branchRepo: branchRepo, userRepo: userRepo, logger: logger}
}

// Create creates a branch
func (s *BranchService) Create(ctx context.Context, req CreateBranchRequest) (*BranchResponse, error) {
	b, err := identity.NewBranch(req.Name, req.Location)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, b.Name); err != nil {
		return nil, err
	}
	if err := b.SetPhone(req.Phone); err != nil {
		return nil, err
	}
	if req.ManagerID != nil {
		if err := s.ensureManager(ctx, *req.ManagerID); err != nil {
			return nil, err
		}
		b.AssignManager(req.ManagerID)
	}
	if err := s.branchRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Branch created", zap.String("branch_id", b.ID.String()), zap.String("name", b.Name))
	response := ToBranchResponse(b)
	return &response, nil
}

// GetByID retrieves a branch
func (s *BranchService) GetByID(ctx context.Context, id uuid.UUID) (*BranchResponse, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBranchResponse(b)
	return &response, nil
}

// List retrieves branches
func (s *BranchService) List(ctx context.Context, filter BranchListFilter) ([]BranchResponse, int64, error) {
	domainFilter := filter.ToDomain()
	branches, err := s.branchRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.branchRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BranchResponse, len(branches))
	for i := range branches {
		out[i] = ToBranchResponse(&branches[i])
	}
	return out, total, nil
}

// Update changes a branch
func (s *BranchService) Update(ctx context.Context, id uuid.UUID, req UpdateBranchRequest) (*BranchResponse, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && !strings.EqualFold(strings.TrimSpace(*req.Name), b.Name) {
		if err := b.Rename(*req.Name); err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, b.Name); err != nil {
			return nil, err
		}
	}
	if req.Location != nil {
		if err := b.Relocate(*req.Location); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil {
		if err := b.SetPhone(*req.Phone); err != nil {
			return nil, err
		}
	}
	if req.ManagerID != nil {
		managerID, err := shared.PatchUUIDPtr("managerId", *req.ManagerID)
		if err != nil {
			return nil, err
		}
		if managerID != nil {
			if err := s.ensureManager(ctx, *managerID); err != nil {
				return nil, err
			}
		}
		b.AssignManager(managerID)
	}
	if req.IsActive != nil {
		b.SetActive(*req.IsActive)
	}
	if err := s.branchRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	response := ToBranchResponse(b)
	return &response, nil
}

// Delete removes a branch. On PostgreSQL the foreign keys detach its users,
// customers and transactions and drop its forecasts and analytics rows.
func (s *BranchService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.branchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewNotFoundError("Branch")
		}
		return err
	}
	s.logger.Info("Branch deleted", zap.String("branch_id", id.String()))
	return nil
}

func (s *BranchService) ensureNameFree(ctx context.Context, name string) error {
	exists, err := s.branchRepo.ExistsByName(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Branch with this name already exists")
	}
	return nil
}

// ensureManager checks that the user exists and holds the manager or admin role
func (s *BranchService) ensureManager(ctx context.Context, userID uuid.UUID) error {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("Manager does not exist")
		}
		return err
	}
	if u.Role != identity.RoleManager && u.Role != identity.RoleAdmin {
		return shared.NewValidationError("Branch manager must have the manager or admin role")
	}
	return nil
}

func (s *BranchService) find(ctx context.Context, id uuid.UUID) (*identity.Branch, error) {
	b, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Branch")
		}
		return nil, err
	}
	return b, nil
}
