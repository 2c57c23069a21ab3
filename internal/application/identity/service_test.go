package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/persistence"
	"github.com/gasdist/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []string
	ttls    []time.Duration
}

func (r *recordingRevoker) RevokeUser(_ context.Context, userID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, userID)
	r.ttls = append(r.ttls, ttl)
	return nil
}

type identityFixture struct {
	users    *UserService
	branches *BranchService
	auth     *AuthService
	revoker  *recordingRevoker
	jwt      *auth.JWTService
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	userRepo := persistence.NewGormUserRepository(db)
	branchRepo := persistence.NewGormBranchRepository(db)
	revoker := &recordingRevoker{}
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough-32",
		Issuer:                "gasdist-test",
		AccessTokenExpiration: time.Hour,
	})
	return &identityFixture{
		users:    NewUserService(userRepo, branchRepo, revoker, time.Hour, nil),
		branches: NewBranchService(branchRepo, userRepo, nil),
		auth:     NewAuthService(userRepo, jwtService, nil),
		revoker:  revoker,
		jwt:      jwtService,
	}
}

func TestUserService_Create(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, CreateUserRequest{
		Username: "Operator1",
		FullName: "Wanjiku Operator",
		Password: "secret123",
		Email:    "Op1@Example.com",
		Role:     "operator",
	})
	require.NoError(t, err)
	assert.Equal(t, "operator1", u.Username)
	assert.Equal(t, "op1@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Contains(t, u.Capabilities, "approvals.request")
	assert.NotContains(t, u.Capabilities, "approvals.manage")

	_, err = f.users.Create(ctx, CreateUserRequest{
		Username: "operator1", FullName: "Someone Else", Password: "secret123", Role: "operator",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = f.users.Create(ctx, CreateUserRequest{
		Username: "weak", FullName: "Weak Password", Password: "password", Role: "operator",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	missing := uuid.New()
	_, err = f.users.Create(ctx, CreateUserRequest{
		Username: "nobranch", FullName: "No Branch", Password: "secret123", Role: "operator", BranchID: &missing,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUserService_UpdateRevokesOnRoleAndStatus(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	u, err := f.users.Create(ctx, CreateUserRequest{
		Username: "clerk", FullName: "Counter Clerk", Password: "secret123", Role: "operator",
	})
	require.NoError(t, err)

	name := "Senior Clerk"
	_, err = f.users.Update(ctx, u.ID, UpdateUserRequest{FullName: &name})
	require.NoError(t, err)
	assert.Empty(t, f.revoker.revoked, "profile edits keep tokens")

	role := "manager"
	updated, err := f.users.Update(ctx, u.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)
	assert.Contains(t, updated.Capabilities, "approvals.manage")
	assert.Equal(t, []string{u.ID.String()}, f.revoker.revoked)
	assert.Equal(t, []time.Duration{time.Hour}, f.revoker.ttls)

	require.NoError(t, f.users.Deactivate(ctx, u.ID))
	assert.Len(t, f.revoker.revoked, 2)
	require.NoError(t, f.users.Deactivate(ctx, u.ID))
	assert.Len(t, f.revoker.revoked, 2, "already inactive")

	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Empty(t, got.Capabilities)

	_, err = f.users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUserService_List(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	for _, r := range []string{"operator", "operator", "manager"} {
		_, err := f.users.Create(ctx, CreateUserRequest{
			Username: r + uuid.NewString()[:8], FullName: "Staff Member", Password: "secret123", Role: r,
		})
		require.NoError(t, err)
	}

	_, total, err := f.users.List(ctx, UserListFilter{Role: "operator"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	items, total, err := f.users.List(ctx, UserListFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
}

func TestBranchService(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	b, err := f.branches.Create(ctx, CreateBranchRequest{Name: "kisumu depot", Location: "Oginga Odinga Street"})
	require.NoError(t, err)
	assert.Equal(t, "Kisumu Depot", b.Name)
	assert.True(t, b.IsActive)

	_, err = f.branches.Create(ctx, CreateBranchRequest{Name: "KISUMU DEPOT", Location: "Elsewhere"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	operator, err := f.users.Create(ctx, CreateUserRequest{
		Username: "opx", FullName: "Operator X", Password: "secret123", Role: "operator",
	})
	require.NoError(t, err)
	managerID := operator.ID.String()
	_, err = f.branches.Update(ctx, b.ID, UpdateBranchRequest{ManagerID: &managerID})
	assert.ErrorIs(t, err, shared.ErrValidation, "operators cannot manage a branch")

	role := "manager"
	_, err = f.users.Update(ctx, operator.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	active := false
	updated, err := f.branches.Update(ctx, b.ID, UpdateBranchRequest{ManagerID: &managerID, IsActive: &active})
	require.NoError(t, err)
	require.NotNil(t, updated.ManagerID)
	assert.Equal(t, operator.ID, *updated.ManagerID)
	assert.False(t, updated.IsActive)

	branchID := b.ID.String()
	moved, err := f.users.Update(ctx, operator.ID, UpdateUserRequest{BranchID: &branchID})
	require.NoError(t, err)
	require.NotNil(t, moved.BranchID)
	assert.Equal(t, b.ID, *moved.BranchID)

	inactive := false
	list, total, err := f.branches.List(ctx, BranchListFilter{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, list[0].ID)

	require.NoError(t, f.branches.Delete(ctx, b.ID))
	assert.ErrorIs(t, f.branches.Delete(ctx, b.ID), shared.ErrNotFound)
}

func TestAuthService_IssueToken(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	u, err := f.users.Create(ctx, CreateUserRequest{
		Username: "admin", FullName: "System Admin", Password: "admin1234", Role: "admin",
	})
	require.NoError(t, err)

	token, err := f.auth.IssueToken(ctx, "Admin", "admin1234")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := f.jwt.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.True(t, claims.Capabilities().Has("backups.create"))

	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	_, err = f.auth.IssueToken(ctx, "admin", "wrong1234")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.auth.IssueToken(ctx, "ghost", "admin1234")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	require.NoError(t, f.users.Deactivate(ctx, u.ID))
	_, err = f.auth.IssueToken(ctx, "admin", "admin1234")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
