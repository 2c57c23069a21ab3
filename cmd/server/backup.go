package main

import (
	"context"

	integrationapp "github.com/gasdist/backend/internal/application/integration"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// backupCreator is the part of the backup service the nightly job needs
type backupCreator interface {
	Create(ctx context.Context) (*integrationapp.BackupResponse, error)
}

// newBackupScheduler returns nil when no backup schedule is configured
func newBackupScheduler(cfg config.StorageConfig, backups backupCreator, log *zap.Logger) (*scheduler.DailyScheduler, error) {
	if cfg.BackupSchedule == "" {
		return nil, nil
	}
	return scheduler.NewDailyScheduler(scheduler.Config{
		Name:          "backup",
		Schedule:      cfg.BackupSchedule,
		JobTimeout:    cfg.BackupJobTimeout,
		RetryAttempts: cfg.BackupRetries,
		RetryDelay:    cfg.BackupRetryDelay,
	}, func(ctx context.Context) error {
		resp, err := backups.Create(ctx)
		if err != nil {
			return err
		}
		log.Info("Scheduled backup stored", zap.String("name", resp.Name), zap.Int64("size", resp.Size))
		return nil
	}, log)
}
