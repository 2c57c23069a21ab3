package partner

import (
	"errors"
	"testing"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCustomer(t *testing.T) *Customer {
	t.Helper()
	c, err := NewCustomer("mary wanjiku", "0711000111", CustomerTypeIndividual)
	require.NoError(t, err)
	return c
}

func TestNewCustomer(t *testing.T) {
	t.Run("creates active customer", func(t *testing.T) {
		c, err := NewCustomer("  mary   wanjiku ", "0711000111", "")

		require.NoError(t, err)
		assert.Equal(t, "Mary Wanjiku", c.Name)
		assert.Equal(t, "0711000111", c.Phone)
		assert.Equal(t, CustomerTypeIndividual, c.CustomerType)
		assert.True(t, c.Balance.IsZero())
		assert.True(t, c.IsActive)
		assert.NotEqual(t, uuid.Nil, c.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCustomer(" ", "0711000111", CustomerTypeIndividual)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects malformed phone", func(t *testing.T) {
		_, err := NewCustomer("Mary", "call me", CustomerTypeIndividual)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "phone")
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewCustomer("Mary", "0711000111", CustomerType("reseller"))
		assert.Error(t, err)
	})
}

func TestCustomer_ApplyChanges(t *testing.T) {
	t.Run("changes only the named fields", func(t *testing.T) {
		c := newTestCustomer(t)
		require.NoError(t, c.SetAddress("Kasarani"))
		before := c.Snapshot()

		err := c.ApplyChanges(shared.Patch{"phone": "0700000000"})

		require.NoError(t, err)
		after := c.Snapshot()
		assert.Equal(t, "0700000000", after["phone"])
		for field, value := range before {
			if field == "phone" {
				continue
			}
			assert.Equal(t, value, after[field], field)
		}
	})

	t.Run("accepts numbers and strings for credit limit", func(t *testing.T) {
		c := newTestCustomer(t)

		require.NoError(t, c.ApplyChanges(shared.Patch{"creditLimit": float64(5000)}))
		assert.True(t, c.CreditLimit.Equal(decimal.NewFromInt(5000)))

		require.NoError(t, c.ApplyChanges(shared.Patch{"creditLimit": "2500.50"}))
		assert.Equal(t, "2500.5", c.CreditLimit.String())
	})

	t.Run("is all-or-nothing", func(t *testing.T) {
		c := newTestCustomer(t)

		err := c.ApplyChanges(shared.Patch{"name": "Jane Doe", "phone": "not a phone"})

		require.Error(t, err)
		assert.Equal(t, "Mary Wanjiku", c.Name)
		assert.Equal(t, "0711000111", c.Phone)
	})

	t.Run("rejects read-only and unknown fields", func(t *testing.T) {
		c := newTestCustomer(t)

		assert.Error(t, c.ApplyChanges(shared.Patch{"balance": "0"}))
		assert.Error(t, c.ApplyChanges(shared.Patch{"favouriteColour": "blue"}))
		assert.Error(t, c.ApplyChanges(shared.Patch{}))
	})

	t.Run("clears branch with null", func(t *testing.T) {
		c := newTestCustomer(t)
		branchID := uuid.New()
		c.AssignBranch(&branchID)

		require.NoError(t, c.ApplyChanges(shared.Patch{"branchId": nil}))
		assert.Nil(t, c.BranchID)
	})
}

func TestCustomer_Balance(t *testing.T) {
	t.Run("charge respects credit limit", func(t *testing.T) {
		c := newTestCustomer(t)
		require.NoError(t, c.SetCreditLimit(decimal.NewFromInt(1000)))

		require.NoError(t, c.Charge(decimal.NewFromInt(800)))
		err := c.Charge(decimal.NewFromInt(300))

		assert.Error(t, err)
		assert.True(t, c.Balance.Equal(decimal.NewFromInt(800)))
	})

	t.Run("charge without limit is unbounded", func(t *testing.T) {
		c := newTestCustomer(t)
		require.NoError(t, c.Charge(decimal.NewFromInt(1_000_000)))
		assert.True(t, c.Balance.Equal(decimal.NewFromInt(1_000_000)))
	})

	t.Run("payment reduces balance", func(t *testing.T) {
		c := newTestCustomer(t)
		require.NoError(t, c.Charge(decimal.NewFromInt(500)))
		require.NoError(t, c.ReceivePayment(decimal.NewFromInt(200)))
		assert.True(t, c.Balance.Equal(decimal.NewFromInt(300)))

		assert.Error(t, c.ReceivePayment(decimal.Zero))
	})
}
