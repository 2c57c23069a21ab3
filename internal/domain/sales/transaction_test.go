package sales

import (
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() TransactionInput {
	return TransactionInput{
		CustomerID:      uuid.New(),
		CreatedBy:       uuid.New(),
		CylinderType:    Cylinder13kg,
		TransactionType: TransactionTypeRefill,
		Quantity:        2,
		UnitPrice:       decimal.NewFromInt(2800),
		PaymentMethod:   PaymentMethodCash,
		TransactionDate: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestNewTransaction(t *testing.T) {
	t.Run("computes total and marks cash sales paid", func(t *testing.T) {
		tx, err := NewTransaction(validInput())

		require.NoError(t, err)
		assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(5600)))
		assert.True(t, tx.AmountPaid.Equal(tx.TotalAmount))
		assert.Equal(t, PaymentStatusPaid, tx.PaymentStatus)
		assert.True(t, tx.Outstanding().IsZero())
	})

	t.Run("credit sales start unpaid", func(t *testing.T) {
		in := validInput()
		in.PaymentMethod = PaymentMethodCredit

		tx, err := NewTransaction(in)

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, tx.PaymentStatus)
		assert.True(t, tx.Outstanding().Equal(decimal.NewFromInt(5600)))
	})

	t.Run("partial payment", func(t *testing.T) {
		in := validInput()
		paid := decimal.NewFromInt(1000)
		in.AmountPaid = &paid

		tx, err := NewTransaction(in)

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPartial, tx.PaymentStatus)
		assert.True(t, tx.Outstanding().Equal(decimal.NewFromInt(4600)))
	})

	t.Run("defaults to sale", func(t *testing.T) {
		in := validInput()
		in.TransactionType = ""
		tx, err := NewTransaction(in)
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeSale, tx.TransactionType)
	})

	tests := []struct {
		name   string
		modify func(*TransactionInput)
	}{
		{"zero quantity", func(in *TransactionInput) { in.Quantity = 0 }},
		{"unknown cylinder", func(in *TransactionInput) { in.CylinderType = "9kg" }},
		{"unknown payment method", func(in *TransactionInput) { in.PaymentMethod = "cheque" }},
		{"negative price", func(in *TransactionInput) { in.UnitPrice = decimal.NewFromInt(-1) }},
		{"missing customer", func(in *TransactionInput) { in.CustomerID = uuid.Nil }},
		{"overpaid", func(in *TransactionInput) {
			paid := decimal.NewFromInt(10000)
			in.AmountPaid = &paid
		}},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			_, err := NewTransaction(in)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestFormatReceiptNumber(t *testing.T) {
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "RCP-20261019-0001", FormatReceiptNumber(day, 1))
	assert.Equal(t, "RCP-20261019-0123", FormatReceiptNumber(day, 123))

	seq, ok := ParseReceiptSequence("RCP-20261019-0123")
	assert.True(t, ok)
	assert.Equal(t, 123, seq)
	seq, ok = ParseReceiptSequence("RCP-20261019-12000")
	assert.True(t, ok)
	assert.Equal(t, 12000, seq)
	_, ok = ParseReceiptSequence("INV-20261019-0001")
	assert.False(t, ok)
	_, ok = ParseReceiptSequence("RCP-20261019-abcd")
	assert.False(t, ok)
}

func TestTransaction_RecordPayment(t *testing.T) {
	in := validInput()
	in.PaymentMethod = PaymentMethodCredit
	tx, err := NewTransaction(in)
	require.NoError(t, err)

	require.NoError(t, tx.RecordPayment(decimal.NewFromInt(600)))
	assert.Equal(t, PaymentStatusPartial, tx.PaymentStatus)

	err = tx.RecordPayment(decimal.NewFromInt(6000))
	assert.Error(t, err)

	require.NoError(t, tx.RecordPayment(decimal.NewFromInt(5000)))
	assert.Equal(t, PaymentStatusPaid, tx.PaymentStatus)

	tx.ReversePayment(decimal.NewFromInt(5000))
	assert.Equal(t, PaymentStatusPartial, tx.PaymentStatus)
}

func TestTransaction_ApplyChanges(t *testing.T) {
	t.Run("recomputes total on quantity change", func(t *testing.T) {
		in := validInput()
		in.PaymentMethod = PaymentMethodCredit
		tx, err := NewTransaction(in)
		require.NoError(t, err)

		require.NoError(t, tx.ApplyChanges(shared.Patch{"quantity": float64(3)}))

		assert.Equal(t, 3, tx.Quantity)
		assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(8400)))
		assert.Equal(t, Cylinder13kg, tx.CylinderType)
	})

	t.Run("refuses totals below amount paid", func(t *testing.T) {
		tx, err := NewTransaction(validInput())
		require.NoError(t, err)

		err = tx.ApplyChanges(shared.Patch{"quantity": float64(1)})

		assert.Error(t, err)
		assert.Equal(t, 2, tx.Quantity)
	})

	t.Run("rejects fractional quantity and read-only fields", func(t *testing.T) {
		tx, err := NewTransaction(validInput())
		require.NoError(t, err)

		assert.Error(t, tx.ApplyChanges(shared.Patch{"quantity": 1.5}))
		assert.Error(t, tx.ApplyChanges(shared.Patch{"receiptNumber": "RCP-1"}))
		assert.Error(t, tx.ApplyChanges(shared.Patch{"customerId": uuid.NewString()}))
	})

	t.Run("parses transaction date", func(t *testing.T) {
		tx, err := NewTransaction(validInput())
		require.NoError(t, err)

		require.NoError(t, tx.ApplyChanges(shared.Patch{"transactionDate": "2026-03-15T08:00:00Z"}))
		assert.Equal(t, 15, tx.TransactionDate.Day())
		assert.Equal(t, "2026-03-15T08:00:00Z", tx.Snapshot()["transactionDate"])
	})
}

func TestDateRange(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

	day := Day(now)
	assert.True(t, day.Contains(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	assert.True(t, day.Contains(time.Date(2026, 10, 19, 23, 59, 59, 0, time.UTC)))
	assert.False(t, day.Contains(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)))

	week := LastDays(now, 7)
	assert.True(t, week.Contains(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, week.Contains(now))

	_, err := NewDateRange(now, now.Add(-time.Hour))
	assert.Error(t, err)

	assert.True(t, DateRange{}.IsZero())
}

func TestPayment(t *testing.T) {
	t.Run("defaults to completed", func(t *testing.T) {
		p, err := NewPayment(uuid.New(), decimal.NewFromInt(500), PaymentMethodMobileMoney, "", uuid.New())
		require.NoError(t, err)
		assert.True(t, p.IsCompleted())
		assert.Error(t, p.Complete())
	})

	t.Run("rejects credit as a payment method", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), decimal.NewFromInt(500), PaymentMethodCredit, "", uuid.New())
		assert.Error(t, err)
	})

	t.Run("pending can complete or fail once", func(t *testing.T) {
		p, err := NewPayment(uuid.New(), decimal.NewFromInt(500), PaymentMethodBank, PaymentRecordPending, uuid.New())
		require.NoError(t, err)
		require.NoError(t, p.Fail())
		assert.ErrorIs(t, p.Complete(), shared.ErrInvalidState)
	})
}
