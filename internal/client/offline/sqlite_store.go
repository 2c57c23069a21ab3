package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const lastSyncKey = "last_sync"

type queueItemModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	Seq            int64     `gorm:"not null;uniqueIndex"`
	Timestamp      time.Time `gorm:"not null"`
	Operation      string    `gorm:"type:varchar(100);not null"`
	Data           string    `gorm:"type:text"`
	Endpoint       string    `gorm:"type:varchar(500);not null"`
	Method         string    `gorm:"type:varchar(10);not null"`
	Status         string    `gorm:"type:varchar(20);not null;index"`
	Error          string    `gorm:"type:text"`
	SyncedAt       *time.Time
	IdempotencyKey string `gorm:"type:varchar(128)"`
}

func (queueItemModel) TableName() string { return "offline_queue" }

type queueMetaModel struct {
	Name  string    `gorm:"type:varchar(50);primaryKey"`
	Value time.Time `gorm:"not null"`
}

func (queueMetaModel) TableName() string { return "offline_queue_meta" }

func (m queueItemModel) toItem() (Item, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return Item{}, fmt.Errorf("queue item %q: %w", m.ID, err)
	}
	item := Item{
		ID:             id,
		Timestamp:      m.Timestamp,
		Operation:      m.Operation,
		Endpoint:       m.Endpoint,
		Method:         m.Method,
		Status:         ItemStatus(m.Status),
		Error:          m.Error,
		SyncedAt:       m.SyncedAt,
		IdempotencyKey: m.IdempotencyKey,
	}
	if m.Data != "" {
		item.Data = []byte(m.Data)
	}
	return item, nil
}

// SQLiteStore keeps the queue in a SQLite file on the device, so queued
// writes survive restarts until the file is deleted.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLiteStore opens (creating if needed) the queue database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("queue database path is required")
	}
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return NewSQLiteStore(db)
}

// NewSQLiteStore uses an already open database and creates the queue tables
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&queueItemModel{}, &queueMetaModel{}); err != nil {
		return nil, fmt.Errorf("migrate queue tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, item Item) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&queueItemModel{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
			return err
		}
		m := queueItemModel{
			ID:             item.ID.String(),
			Seq:            last + 1,
			Timestamp:      item.Timestamp.UTC(),
			Operation:      item.Operation,
			Data:           string(item.Data),
			Endpoint:       item.Endpoint,
			Method:         item.Method,
			Status:         string(item.Status),
			Error:          item.Error,
			SyncedAt:       item.SyncedAt,
			IdempotencyKey: item.IdempotencyKey,
		}
		return tx.Create(&m).Error
	})
}

func (s *SQLiteStore) List(ctx context.Context) ([]Item, error) {
	var models []queueItemModel
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(models))
	for _, m := range models {
		item, err := m.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *SQLiteStore) Update(ctx context.Context, item Item) error {
	result := s.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("id = ?", item.ID.String()).
		Updates(map[string]any{
			"status":    string(item.Status),
			"error":     item.Error,
			"synced_at": item.SyncedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&queueItemModel{}, "id = ?", id.String())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&queueItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&queueMetaModel{}).Error
	})
}

func (s *SQLiteStore) LastSync(ctx context.Context) (*time.Time, error) {
	var meta queueMetaModel
	err := s.db.WithContext(ctx).Where("name = ?", lastSyncKey).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta.Value, nil
}

func (s *SQLiteStore) SetLastSync(ctx context.Context, at time.Time) error {
	meta := queueMetaModel{Name: lastSyncKey, Value: at.UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}
