package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// BackupTables are the business tables included in a backup, in restore order
var BackupTables = []string{
	"branches",
	"users",
	"customers",
	"transactions",
	"payments",
	"forecasts",
	"analytics",
	"pending_approvals",
}

// GormTableExporter reads whole tables as generic rows for backup
type GormTableExporter struct {
	db *gorm.DB
}

// NewGormTableExporter creates a new GormTableExporter
func NewGormTableExporter(db *gorm.DB) *GormTableExporter {
	return &GormTableExporter{db: db}
}

// Tables returns the exported table names
func (e *GormTableExporter) Tables() []string {
	return BackupTables
}

// ExportTable returns every row of table ordered by creation time. Password hashes
// are left out.
func (e *GormTableExporter) ExportTable(ctx context.Context, table string) ([]map[string]any, error) {
	if !isBackupTable(table) {
		return nil, fmt.Errorf("table %q is not exportable", table)
	}
	var rows []map[string]any
	if err := conn(ctx, e.db).Table(table).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("export %s: %w", table, err)
	}
	if table == "users" {
		for _, row := range rows {
			delete(row, "password_hash")
		}
	}
	return rows, nil
}

func isBackupTable(name string) bool {
	for _, t := range BackupTables {
		if t == name {
			return true
		}
	}
	return false
}
