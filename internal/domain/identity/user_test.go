package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("  JKamau ", "Jane Kamau", "Password123", RoleOperator)

		require.NoError(t, err)
		assert.Equal(t, "jkamau", user.Username)
		assert.Equal(t, "Jane Kamau", user.FullName)
		assert.Equal(t, RoleOperator, user.Role)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))
		assert.False(t, user.VerifyPassword("wrong-pass1"))
		assert.Equal(t, 1, user.Version)
	})

	t.Run("fails with short username", func(t *testing.T) {
		_, err := NewUser("ab", "Jane", "Password123", RoleOperator)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		_, err := NewUser("jane", "Jane", "Password123", Role("owner"))
		assert.Error(t, err)
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewUser("jane", "Jane", "password", RoleOperator)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "letter and one number")
	})
}

func TestUser_Capabilities(t *testing.T) {
	user, err := NewUser("mgr", "Manager One", "Password123", RoleManager)
	require.NoError(t, err)

	assert.True(t, user.Capabilities().Has(CapApprovalsManage))

	user.Deactivate()
	assert.Empty(t, user.Capabilities())

	user.Activate()
	require.NoError(t, user.ChangeRole(RoleOperator))
	assert.False(t, user.Capabilities().Has(CapApprovalsManage))
}

func TestUser_SetContact(t *testing.T) {
	user, err := NewUser("jane", "Jane", "Password123", RoleOperator)
	require.NoError(t, err)

	require.NoError(t, user.SetContact(" Jane@Example.COM ", "0712345678"))
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "0712345678", user.Phone)

	assert.Error(t, user.SetContact("not-an-email", ""))
}

func TestBranch(t *testing.T) {
	t.Run("title-cases the name", func(t *testing.T) {
		branch, err := NewBranch("  westlands depot ", "Westlands, Nairobi")
		require.NoError(t, err)
		assert.Equal(t, "Westlands Depot", branch.Name)
		assert.True(t, branch.IsActive)
		assert.Equal(t, 1, branch.Version)
	})

	t.Run("requires location", func(t *testing.T) {
		_, err := NewBranch("Main", " ")
		assert.Error(t, err)
	})

	t.Run("assigns a manager", func(t *testing.T) {
		branch, err := NewBranch("Main", "CBD")
		require.NoError(t, err)
		managerID := uuid.New()
		branch.AssignManager(&managerID)
		assert.Equal(t, &managerID, branch.ManagerID)
		assert.Equal(t, 2, branch.Version)
	})
}
