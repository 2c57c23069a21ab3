package identity

import (
	"context"
	"errors"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenRevoker invalidates a user's outstanding tokens
type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
}

// UserService handles user management operations
type UserService struct {
	userRepo   identity.UserRepository
	branchRepo identity.BranchRepository
	revoker    TokenRevoker
	tokenTTL   time.Duration
	logger     *zap.Logger
}

// NewUserService creates a new user service. tokenTTL is the access token lifetime;
// a revocation is kept at least that long.
func NewUserService(
	userRepo identity.UserRepository,
	branchRepo identity.BranchRepository,
	revoker TokenRevoker,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:   userRepo,
		branchRepo: branchRepo,
		revoker:    revoker,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// Create creates a new active user
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}

	user, err := identity.NewUser(req.Username, req.FullName, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	if err := user.SetContact(req.Email, req.Phone); err != nil {
		return nil, err
	}
	if req.BranchID != nil {
		if err := s.ensureBranch(ctx, *req.BranchID); err != nil {
			return nil, err
		}
		user.AssignBranch(req.BranchID)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	response := ToUserResponse(user)
	return &response, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// List retrieves users
func (s *UserService) List(ctx context.Context, filter UserListFilter) ([]UserResponse, int64, error) {
	domainFilter := filter.ToDomain()
	users, err := s.userRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out, total, nil
}

// Update changes a user's profile, role, branch, status or password. A change
// to the role or status, or a new password, revokes the user's existing tokens.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	revoke := false

	if req.FullName != nil {
		if err := user.SetFullName(*req.FullName); err != nil {
			return nil, err
		}
	}
	if req.Email != nil || req.Phone != nil {
		email, phone := user.Email, user.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := user.SetContact(email, phone); err != nil {
			return nil, err
		}
	}
	if req.Role != nil && identity.Role(*req.Role) != user.Role {
		if err := user.ChangeRole(identity.Role(*req.Role)); err != nil {
			return nil, err
		}
		revoke = true
	}
	if req.BranchID != nil {
		branchID, err := shared.PatchUUIDPtr("branchId", *req.BranchID)
		if err != nil {
			return nil, err
		}
		if branchID != nil {
			if err := s.ensureBranch(ctx, *branchID); err != nil {
				return nil, err
			}
		}
		user.AssignBranch(branchID)
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if *req.IsActive {
			user.Activate()
		} else {
			user.Deactivate()
		}
		revoke = true
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
		revoke = true
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if revoke {
		s.revoke(ctx, user)
	}

	response := ToUserResponse(user)
	return &response, nil
}

// Deactivate disables a user and revokes their tokens. Users are never hard
// deleted because transactions and approvals reference them.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}
	user.Deactivate()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.revoke(ctx, user)
	s.logger.Info("User deactivated", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *UserService) revoke(ctx context.Context, user *identity.User) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.RevokeUser(ctx, user.ID.String(), s.tokenTTL); err != nil {
		s.logger.Error("Failed to revoke user tokens",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}
}

func (s *UserService) ensureBranch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.branchRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("Branch does not exist")
		}
		return err
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}
	return user, nil
}
