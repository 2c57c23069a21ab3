package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txFixture struct {
	cylinder sales.CylinderType
	txType   sales.TransactionType
	quantity int
	price    string
	method   sales.PaymentMethod
	at       time.Time
}

func saveTransactions(t *testing.T, repo *GormTransactionRepository, customerID uuid.UUID, branchID *uuid.UUID, fixtures []txFixture) []*sales.Transaction {
	t.Helper()
	ctx := context.Background()
	out := make([]*sales.Transaction, 0, len(fixtures))
	for _, f := range fixtures {
		method := f.method
		if method == "" {
			method = sales.PaymentMethodCash
		}
		tx, err := sales.NewTransaction(sales.TransactionInput{
			CustomerID:      customerID,
			BranchID:        branchID,
			CreatedBy:       uuid.New(),
			CylinderType:    f.cylinder,
			TransactionType: f.txType,
			Quantity:        f.quantity,
			UnitPrice:       decimal.RequireFromString(f.price),
			PaymentMethod:   method,
			TransactionDate: f.at,
		})
		require.NoError(t, err)

		seq, err := repo.NextReceiptSequence(ctx, f.at)
		require.NoError(t, err)
		tx.AssignReceiptNumber(seq)
		require.NoError(t, repo.Save(ctx, tx))
		out = append(out, tx)
	}
	return out
}

func TestGormTransactionRepository_ReceiptSequence(t *testing.T) {
	repo := NewGormTransactionRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	day := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	txs := saveTransactions(t, repo, uuid.New(), nil, []txFixture{
		{cylinder: sales.Cylinder13kg, quantity: 1, price: "2800", at: day.Add(8 * time.Hour)},
		{cylinder: sales.Cylinder6kg, quantity: 2, price: "1200", at: day.Add(17 * time.Hour)},
		{cylinder: sales.Cylinder6kg, quantity: 1, price: "1200", at: day.Add(33 * time.Hour)},
	})

	assert.Equal(t, "RCP-20261014-0001", txs[0].ReceiptNumber)
	assert.Equal(t, "RCP-20261014-0002", txs[1].ReceiptNumber)
	assert.Equal(t, "RCP-20261015-0001", txs[2].ReceiptNumber)

	found, err := repo.FindByReceiptNumber(ctx, "RCP-20261014-0002")
	require.NoError(t, err)
	assert.Equal(t, txs[1].ID, found.ID)
	assert.Equal(t, 2, found.Quantity)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(2400)))
	assert.Equal(t, sales.PaymentStatusPaid, found.PaymentStatus)
}

func TestGormTransactionRepository_NextReceiptSequence(t *testing.T) {
	repo := NewGormTransactionRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	day := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("counts up per day", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			seq, err := repo.NextReceiptSequence(ctx, day)
			require.NoError(t, err)
			assert.Equal(t, want, seq)
		}
		seq, err := repo.NextReceiptSequence(ctx, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
	})

	t.Run("skips past receipts already stored", func(t *testing.T) {
		other := day.AddDate(0, 0, 7)
		tx, err := sales.NewTransaction(sales.TransactionInput{
			CustomerID:      uuid.New(),
			CreatedBy:       uuid.New(),
			CylinderType:    sales.Cylinder13kg,
			TransactionType: sales.TransactionTypeRefill,
			Quantity:        1,
			UnitPrice:       decimal.NewFromInt(2800),
			PaymentMethod:   sales.PaymentMethodCash,
			TransactionDate: other,
		})
		require.NoError(t, err)
		tx.AssignReceiptNumber(41)
		require.NoError(t, repo.Save(ctx, tx))

		seq, err := repo.NextReceiptSequence(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, 42, seq)

		require.NoError(t, repo.Delete(ctx, tx.ID))
		seq, err = repo.NextReceiptSequence(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, 43, seq)
	})
}

func TestGormTransactionRepository_FindAll(t *testing.T) {
	repo := NewGormTransactionRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	customerID := uuid.New()
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	saveTransactions(t, repo, customerID, nil, []txFixture{
		{cylinder: sales.Cylinder13kg, quantity: 1, price: "2800", at: day.Add(9 * time.Hour)},
		{cylinder: sales.Cylinder50kg, quantity: 1, price: "9500", method: sales.PaymentMethodCredit, at: day.Add(34 * time.Hour)},
		{cylinder: sales.Cylinder6kg, quantity: 3, price: "1200", at: day.Add(58 * time.Hour)},
	})
	saveTransactions(t, repo, uuid.New(), nil, []txFixture{
		{cylinder: sales.Cylinder6kg, quantity: 1, price: "1200", at: day.Add(10 * time.Hour)},
	})

	t.Run("orders by transaction date newest first", func(t *testing.T) {
		list, err := repo.FindAll(ctx, sales.TransactionFilter{Filter: shared.DefaultFilter(), CustomerID: &customerID})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, sales.Cylinder6kg, list[0].CylinderType)
		assert.Equal(t, sales.Cylinder50kg, list[1].CylinderType)
		assert.Equal(t, sales.Cylinder13kg, list[2].CylinderType)
	})

	t.Run("filters by payment status", func(t *testing.T) {
		filter := sales.TransactionFilter{Filter: shared.DefaultFilter(), PaymentStatus: sales.PaymentStatusPending}
		list, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, sales.PaymentMethodCredit, list[0].PaymentMethod)
		assert.True(t, list[0].Outstanding().Equal(decimal.NewFromInt(9500)))
	})

	t.Run("filters by period", func(t *testing.T) {
		filter := sales.TransactionFilter{Filter: shared.DefaultFilter(), Period: sales.Day(day)}
		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("searches receipt numbers", func(t *testing.T) {
		filter := sales.TransactionFilter{Filter: shared.DefaultFilter()}
		filter.Search = "rcp-20261003"
		list, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "RCP-20261003-0001", list[0].ReceiptNumber)
	})
}

func TestGormTransactionRepository_Aggregates(t *testing.T) {
	repo := NewGormTransactionRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	branchID := uuid.New()
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	saveTransactions(t, repo, uuid.New(), &branchID, []txFixture{
		{cylinder: sales.Cylinder6kg, txType: sales.TransactionTypeRefill, quantity: 2, price: "1000.50", at: day.Add(8 * time.Hour)},
		{cylinder: sales.Cylinder6kg, txType: sales.TransactionTypeSale, quantity: 1, price: "3500", at: day.Add(15 * time.Hour)},
		{cylinder: sales.Cylinder6kg, txType: sales.TransactionTypeReturn, quantity: 1, price: "0", at: day.Add(16 * time.Hour)},
		{cylinder: sales.Cylinder13kg, txType: sales.TransactionTypeSale, quantity: 1, price: "2800", at: day.Add(20 * time.Hour)},
		{cylinder: sales.Cylinder6kg, txType: sales.TransactionTypeRefill, quantity: 4, price: "1000", at: day.Add(50 * time.Hour)},
	})
	saveTransactions(t, repo, uuid.New(), nil, []txFixture{
		{cylinder: sales.Cylinder6kg, quantity: 10, price: "1000", at: day.Add(9 * time.Hour)},
	})

	t.Run("totals per branch", func(t *testing.T) {
		totals, err := repo.Totals(ctx, &branchID, sales.Day(day))
		require.NoError(t, err)
		assert.Equal(t, int64(4), totals.Count)
		assert.Equal(t, int64(5), totals.Quantity)
		assert.Equal(t, "8301", totals.Revenue.String())
	})

	t.Run("totals across branches", func(t *testing.T) {
		totals, err := repo.Totals(ctx, nil, sales.Day(day))
		require.NoError(t, err)
		assert.Equal(t, int64(5), totals.Count)
		assert.Equal(t, int64(15), totals.Quantity)
	})

	t.Run("daily quantities skip returns", func(t *testing.T) {
		rng, err := sales.NewDateRange(day, day.AddDate(0, 0, 3))
		require.NoError(t, err)
		days, err := repo.DailyQuantities(ctx, &branchID, sales.Cylinder6kg, rng)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, day, days[0].Day)
		assert.Equal(t, int64(3), days[0].Quantity)
		assert.Equal(t, day.AddDate(0, 0, 2), days[1].Day)
		assert.Equal(t, int64(4), days[1].Quantity)
	})
}

func TestGormTransactionRepository_Delete(t *testing.T) {
	repo := NewGormTransactionRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	txs := saveTransactions(t, repo, uuid.New(), nil, []txFixture{
		{cylinder: sales.Cylinder13kg, quantity: 1, price: "2800", at: time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, repo.Delete(ctx, txs[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, txs[0].ID), shared.ErrNotFound)
}

func TestGormPaymentRepository_SumCompleted(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	customers := NewGormCustomerRepository(db)
	payments := NewGormPaymentRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	local := newTestCustomer(t, "Branch Customer", "0701000001")
	local.AssignBranch(&branchID)
	require.NoError(t, customers.Save(ctx, local))
	elsewhere := newTestCustomer(t, "Other Customer", "0701000002")
	require.NoError(t, customers.Save(ctx, elsewhere))

	paidAt := time.Date(2026, 10, 7, 11, 0, 0, 0, time.UTC)
	record := func(customerID uuid.UUID, amount string, status sales.PaymentRecordStatus) {
		p, err := sales.NewPayment(customerID, decimal.RequireFromString(amount), sales.PaymentMethodMobileMoney, status, uuid.New())
		require.NoError(t, err)
		p.SetPaidAt(paidAt)
		require.NoError(t, payments.Save(ctx, p))
	}
	record(local.ID, "1500", sales.PaymentRecordCompleted)
	record(local.ID, "700", sales.PaymentRecordPending)
	record(elsewhere.ID, "2000", sales.PaymentRecordCompleted)

	total, err := payments.SumCompleted(ctx, &branchID, sales.Day(paidAt))
	require.NoError(t, err)
	assert.Equal(t, "1500", total.String())

	total, err = payments.SumCompleted(ctx, nil, sales.Day(paidAt))
	require.NoError(t, err)
	assert.Equal(t, "3500", total.String())

	total, err = payments.SumCompleted(ctx, nil, sales.Day(paidAt.AddDate(0, 0, 1)))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestGormTransactionRepository_InterfaceCompliance(t *testing.T) {
	var _ sales.TransactionRepository = (*GormTransactionRepository)(nil)
	var _ sales.PaymentRepository = (*GormPaymentRepository)(nil)
}
