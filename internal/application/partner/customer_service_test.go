package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/persistence"
	"github.com/gasdist/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDNumber(ctx context.Context, idNumber string) (*partner.Customer, error) {
	args := m.Called(ctx, idNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByPhone(ctx context.Context, phone string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =============================================================================
// Helpers
// =============================================================================

type customerFixture struct {
	svc          *CustomerService
	customers    *persistence.GormCustomerRepository
	transactions *persistence.GormTransactionRepository
	payments     *persistence.GormPaymentRepository
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &customerFixture{
		customers:    persistence.NewGormCustomerRepository(db),
		transactions: persistence.NewGormTransactionRepository(db),
		payments:     persistence.NewGormPaymentRepository(db),
	}
	f.svc = NewCustomerService(f.customers, f.transactions, f.payments, persistence.NewTxManager(db), nil)
	return f
}

func (f *customerFixture) create(t *testing.T, name, phone string) *CustomerResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), CreateCustomerRequest{Name: name, Phone: phone})
	require.NoError(t, err)
	return resp
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Tests
// =============================================================================

func TestCustomerService_Create(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	limit := decimal.NewFromInt(5000)

	resp, err := f.svc.Create(ctx, CreateCustomerRequest{
		Name:         "  mary   wanjiku ",
		Phone:        "0712345678",
		Email:        "Mary@Example.com",
		CustomerType: "business",
		CreditLimit:  &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mary Wanjiku", resp.Name)
	assert.Equal(t, "mary@example.com", resp.Email)
	assert.Equal(t, "business", resp.CustomerType)
	assert.True(t, resp.Balance.IsZero())
	assert.True(t, limit.Equal(resp.CreditLimit))
	assert.True(t, resp.IsActive)

	t.Run("duplicate phone", func(t *testing.T) {
		_, err := f.svc.Create(ctx, CreateCustomerRequest{Name: "Other", Phone: "0712345678"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := f.svc.Create(ctx, CreateCustomerRequest{Name: "Other", Phone: "call me"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestCustomerService_GetByID_NotFound(t *testing.T) {
	f := newCustomerFixture(t)

	_, err := f.svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.EqualError(t, err, "Customer not found")
}

func TestCustomerService_List(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	f.create(t, "Alice Achieng", "0700000001")
	f.create(t, "Bob Otieno", "0700000002")
	inactive := f.create(t, "Carol Njeri", "0700000003")
	_, err := f.svc.Update(ctx, inactive.ID, UpdateCustomerRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)

	all, total, err := f.svc.List(ctx, CustomerListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	found, total, err := f.svc.List(ctx, CustomerListFilter{Search: "otieno"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Bob Otieno", found[0].Name)

	active, total, err := f.svc.List(ctx, CustomerListFilter{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, active, 2)
}

func TestCustomerService_List_RepositoryError(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, nil, nil, nil, nil)
	repo.On("FindAll", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, _, err := svc.List(context.Background(), CustomerListFilter{Page: 2, PageSize: 10})
	assert.EqualError(t, err, "db down")
	repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}

func TestCustomerService_Update(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	c := f.create(t, "Dan Kamau", "0711111111")
	f.create(t, "Eve Muthoni", "0722222222")

	t.Run("applies set fields only", func(t *testing.T) {
		resp, err := f.svc.Update(ctx, c.ID, UpdateCustomerRequest{Address: strPtr("Kisumu Road 4")})
		require.NoError(t, err)
		assert.Equal(t, "Kisumu Road 4", resp.Address)
		assert.Equal(t, "Dan Kamau", resp.Name)
	})

	t.Run("phone taken by another customer", func(t *testing.T) {
		_, err := f.svc.Update(ctx, c.ID, UpdateCustomerRequest{Phone: strPtr("0722222222")})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		stored, err := f.customers.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "0711111111", stored.Phone)
	})

	t.Run("invalid field leaves customer unchanged", func(t *testing.T) {
		_, err := f.svc.Update(ctx, c.ID, UpdateCustomerRequest{Name: strPtr("Daniel"), Email: strPtr("not-an-email")})
		assert.ErrorIs(t, err, shared.ErrValidation)

		stored, err := f.customers.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dan Kamau", stored.Name)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := f.svc.Update(ctx, uuid.New(), UpdateCustomerRequest{Name: strPtr("Ghost")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCustomerService_Delete(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()

	t.Run("customer without history", func(t *testing.T) {
		c := f.create(t, "Fresh Customer", "0733333333")
		require.NoError(t, f.svc.Delete(ctx, c.ID))

		_, err := f.svc.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("customer with transactions is kept", func(t *testing.T) {
		c := f.create(t, "Regular Buyer", "0744444444")
		tx, err := sales.NewTransaction(sales.TransactionInput{
			CustomerID:    c.ID,
			CreatedBy:     uuid.New(),
			CylinderType:  sales.Cylinder13kg,
			Quantity:      1,
			UnitPrice:     decimal.NewFromInt(2500),
			PaymentMethod: sales.PaymentMethodCash,
		})
		require.NoError(t, err)
		tx.AssignReceiptNumber(1)
		require.NoError(t, f.transactions.Save(ctx, tx))

		err = f.svc.Delete(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrConflict)

		_, err = f.svc.GetByID(ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown customer", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, uuid.New()), shared.ErrNotFound)
	})
}

func TestCustomerService_ApprovalTarget(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()
	c := f.create(t, "Grace Akinyi", "0755555555")

	snap, err := f.svc.Snapshot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Akinyi", snap["name"])
	assert.Equal(t, "0755555555", snap["phone"])

	assert.NoError(t, f.svc.PreviewChanges(ctx, c.ID, shared.Patch{"name": "Grace A."}))
	assert.ErrorIs(t, f.svc.PreviewChanges(ctx, c.ID, shared.Patch{"balance": "0"}), shared.ErrValidation)

	stored, err := f.customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Akinyi", stored.Name, "preview does not persist")

	require.NoError(t, f.svc.ApplyChanges(ctx, c.ID, shared.Patch{"name": "grace achieng"}))
	stored, err = f.customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Achieng", stored.Name)
}

func TestUpdateCustomerRequest_ToPatch(t *testing.T) {
	limit := decimal.RequireFromString("1500.50")
	active := false
	p := UpdateCustomerRequest{
		Name:        strPtr("New Name"),
		CreditLimit: &limit,
		IsActive:    &active,
		BranchID:    strPtr(""),
	}.ToPatch()

	assert.Equal(t, shared.Patch{
		"name":        "New Name",
		"creditLimit": "1500.5",
		"isActive":    false,
		"branchId":    "",
	}, p)
	assert.Empty(t, UpdateCustomerRequest{}.ToPatch())
}

func boolPtr(b bool) *bool { return &b }
