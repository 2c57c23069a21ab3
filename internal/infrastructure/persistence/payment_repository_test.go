package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGormPaymentRepository_FindByIDForUpdate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	db, mock := mockDB.DB, mockDB.Mock
	repo := NewGormPaymentRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.FindByIDForUpdate(context.Background(), id)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	mockDB.ExpectationsWereMet(t)
}
