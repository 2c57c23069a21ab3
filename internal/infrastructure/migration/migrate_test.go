package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Up() error                  { return m.Called().Error(0) }
func (m *mockEngine) Down() error                { return m.Called().Error(0) }
func (m *mockEngine) Steps(n int) error          { return m.Called(n).Error(0) }
func (m *mockEngine) Migrate(version uint) error { return m.Called(version).Error(0) }
func (m *mockEngine) Force(version int) error    { return m.Called(version).Error(0) }

func (m *mockEngine) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *mockEngine) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigrator_Up(t *testing.T) {
	e := new(mockEngine)
	e.On("Up").Return(nil)
	e.On("Version").Return(uint(20261001000200), false, nil)

	require.NoError(t, newMigrator(e, nil).Up())
	e.AssertExpectations(t)
}

func TestMigrator_NoChangeIsSuccess(t *testing.T) {
	e := new(mockEngine)
	e.On("Steps", -1).Return(migrate.ErrNoChange)

	require.NoError(t, newMigrator(e, nil).Steps(-1))
	e.AssertNotCalled(t, "Version")
}

func TestMigrator_FailureWraps(t *testing.T) {
	e := new(mockEngine)
	cause := errors.New("syntax error at or near")
	e.On("Migrate", uint(20261001000100)).Return(cause)

	err := newMigrator(e, nil).GoTo(20261001000100)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "goto 20261001000100")
}

func TestMigrator_VersionNilIsZero(t *testing.T) {
	e := new(mockEngine)
	e.On("Version").Return(uint(0), false, migrate.ErrNilVersion)

	v, dirty, err := newMigrator(e, nil).Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)
}

func TestMigrator_Close(t *testing.T) {
	e := new(mockEngine)
	e.On("Close").Return(nil, errors.New("db close"))

	assert.ErrorContains(t, newMigrator(e, nil).Close(), "db close")
}
