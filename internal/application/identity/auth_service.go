package identity

import (
	"context"
	"errors"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(u *identity.User) (*auth.Token, error)
}

// AuthService checks staff credentials and issues access tokens. The public API
// has no login route; operators sign in through the identity provider in front
// of the service, and this is used by cmd/seed to mint development tokens.
type AuthService struct {
	userRepo identity.UserRepository
	issuer   TokenIssuer
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo identity.UserRepository, issuer TokenIssuer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{userRepo: userRepo, issuer: issuer, logger: logger}
}

// IssueToken verifies a username and password and returns a signed token
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (*auth.Token, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")
		}
		return nil, err
	}
	if !user.VerifyPassword(password) {
		s.logger.Warn("Rejected credentials", zap.String("username", user.Username))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")
	}
	if !user.IsActive {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Account has been deactivated")
	}

	token, err := s.issuer.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Warn("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return token, nil
}
