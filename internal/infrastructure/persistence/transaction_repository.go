package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransactionRepository implements sales.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	return r.findOne(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate finds a transaction and locks its row for the rest of the transaction
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByReceiptNumber finds a transaction by its receipt number
func (r *GormTransactionRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*sales.Transaction, error) {
	return r.findOne(conn(ctx, r.db).Where("receipt_number = ?", receiptNumber))
}

func (r *GormTransactionRepository) findOne(query *gorm.DB) (*sales.Transaction, error) {
	var model models.TransactionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists transactions matching the filter, by transaction date newest first
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter sales.TransactionFilter) ([]sales.Transaction, error) {
	var rows []models.TransactionModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.TransactionModel{}), filter)
	query = paginate(query, filter.Filter, TransactionSortFields, "transaction_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	txs := make([]sales.Transaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter sales.TransactionFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(conn(ctx, r.db).Model(&models.TransactionModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextReceiptSequence bumps the day's counter row and returns the new value. The
// upsert leaves the row locked until the surrounding transaction ends. The
// counter is lifted above any receipt already stored for the day, so rows written
// before the counter existed are never collided with.
func (r *GormTransactionRepository) NextReceiptSequence(ctx context.Context, t time.Time) (int, error) {
	db := conn(ctx, r.db)
	day := sales.ReceiptDay(t)

	var seq int
	err := db.Raw(`INSERT INTO receipt_sequences (day, last_seq) VALUES (?, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = receipt_sequences.last_seq + 1
		RETURNING last_seq`, day).Scan(&seq).Error
	if err != nil {
		return 0, err
	}

	var issued []string
	err = db.Model(&models.TransactionModel{}).
		Where("receipt_number LIKE ?", sales.ReceiptPrefix+"-"+day+"-%").
		Pluck("receipt_number", &issued).Error
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, number := range issued {
		if n, ok := sales.ParseReceiptSequence(number); ok && n > highest {
			highest = n
		}
	}
	if highest < seq {
		return seq, nil
	}

	seq = highest + 1
	err = db.Model(&models.ReceiptSequenceModel{}).Where("day = ?", day).Update("last_seq", seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Totals aggregates count, quantity and revenue for a period
func (r *GormTransactionRepository) Totals(ctx context.Context, branchID *uuid.UUID, rng sales.DateRange) (sales.TransactionTotals, error) {
	var row struct {
		Count    int64
		Quantity int64
		Revenue  decimal.Decimal
	}
	query := inRange(conn(ctx, r.db).Model(&models.TransactionModel{}), "transaction_date", rng)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	err := query.Select("COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS quantity, COALESCE(SUM(total_amount), 0) AS revenue").
		Scan(&row).Error
	if err != nil {
		return sales.TransactionTotals{}, err
	}
	return sales.TransactionTotals{
		Count:    row.Count,
		Quantity: row.Quantity,
		Revenue:  row.Revenue,
	}, nil
}

// DailyQuantities sums quantities per day for one cylinder size. Days are grouped
// in Go so the query stays portable between PostgreSQL and SQLite.
func (r *GormTransactionRepository) DailyQuantities(ctx context.Context, branchID *uuid.UUID, cylinderType sales.CylinderType, rng sales.DateRange) ([]sales.DailyQuantity, error) {
	var rows []struct {
		TransactionDate time.Time
		Quantity        int64
	}
	query := inRange(conn(ctx, r.db).Model(&models.TransactionModel{}), "transaction_date", rng).
		Where("cylinder_type = ?", cylinderType).
		Where("transaction_type <> ?", sales.TransactionTypeReturn)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	if err := query.Select("transaction_date, quantity").Order("transaction_date").Scan(&rows).Error; err != nil {
		return nil, err
	}

	var out []sales.DailyQuantity
	for _, row := range rows {
		d := row.TransactionDate.UTC()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].Quantity += row.Quantity
			continue
		}
		out = append(out, sales.DailyQuantity{Day: day, Quantity: row.Quantity})
	}
	return out, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, t *sales.Transaction) error {
	return conn(ctx, r.db).Save(models.TransactionModelFromDomain(t)).Error
}

// Delete deletes a transaction
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter sales.TransactionFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where(`LOWER(receipt_number) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.CylinderType != "" {
		query = query.Where("cylinder_type = ?", filter.CylinderType)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	return inRange(query, "transaction_date", filter.Period)
}

// inRange restricts column to rng; a zero bound is open
func inRange(query *gorm.DB, column string, rng sales.DateRange) *gorm.DB {
	if !rng.From.IsZero() {
		query = query.Where(column+" >= ?", rng.From.UTC())
	}
	if !rng.To.IsZero() {
		query = query.Where(column+" <= ?", rng.To.UTC())
	}
	return query
}
