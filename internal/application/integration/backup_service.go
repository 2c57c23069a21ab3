package integration

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gasdist/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// TableExporter reads business tables as generic rows
type TableExporter interface {
	Tables() []string
	ExportTable(ctx context.Context, table string) ([]map[string]any, error)
}

// BackupMetrics counts backup runs
type BackupMetrics interface {
	BackupCompleted(err error)
}

// BackupService writes gzipped JSON snapshots of the database to the backup store
type BackupService struct {
	exporter TableExporter
	store    integration.BackupPort
	notifier integration.NotifyPort
	metrics  BackupMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewBackupService creates a new BackupService. notifier may be nil.
func NewBackupService(exporter TableExporter, store integration.BackupPort, notifier integration.NotifyPort, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		exporter: exporter,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics sets the backup counters
func (s *BackupService) SetMetrics(m BackupMetrics) {
	s.metrics = m
}

// Create exports every business table into one archive and stores it
func (s *BackupService) Create(ctx context.Context) (resp *BackupResponse, err error) {
	defer func() {
		if s.metrics != nil {
			s.metrics.BackupCompleted(err)
		}
		s.notify(ctx, resp, err)
	}()

	createdAt := s.now().UTC()
	doc := backupDocument{
		Version:   backupFormatVersion,
		CreatedAt: createdAt,
		Tables:    make(map[string][]map[string]any),
	}
	counts := make(map[string]int)
	for _, table := range s.exporter.Tables() {
		rows, err := s.exporter.ExportTable(ctx, table)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		doc.Tables[table] = rows
		counts[table] = len(rows)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress backup: %w", err)
	}

	name := fmt.Sprintf("gasdist-%s.json.gz", createdAt.Format("20060102T150405Z"))
	size := int64(buf.Len())
	ref, err := s.store.Store(ctx, name, &buf, size)
	if err != nil {
		return nil, fmt.Errorf("store backup: %w", err)
	}

	s.logger.Info("Backup stored",
		zap.String("name", ref.Name),
		zap.String("location", ref.Location),
		zap.Int64("size", ref.Size),
	)
	out := ToBackupResponse(ref)
	out.Tables = counts
	return &out, nil
}

// List returns stored archives, newest first
func (s *BackupService) List(ctx context.Context) ([]BackupResponse, error) {
	refs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BackupResponse, len(refs))
	for i, ref := range refs {
		out[i] = ToBackupResponse(ref)
	}
	return out, nil
}

func (s *BackupService) notify(ctx context.Context, resp *BackupResponse, backupErr error) {
	if s.notifier == nil {
		return
	}
	n := integration.Notification{
		Type:      "backup.completed",
		Subject:   "Backup completed",
		CreatedAt: s.now().UTC(),
	}
	if backupErr != nil {
		n.Type = "backup.failed"
		n.Subject = "Backup failed"
		n.Body = backupErr.Error()
	} else if resp != nil {
		n.Body = fmt.Sprintf("Stored %s (%d bytes)", resp.Name, resp.Size)
		n.Data = map[string]any{"name": resp.Name, "location": resp.Location, "size": resp.Size}
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("Backup notification failed",
			zap.String("provider", s.notifier.Name()),
			zap.Error(err),
		)
	}
}
