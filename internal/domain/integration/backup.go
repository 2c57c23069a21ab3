package integration

import (
	"context"
	"io"
	"time"
)

// BackupRef describes a stored backup archive
type BackupRef struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// BackupPort stores backup archives
type BackupPort interface {
	Store(ctx context.Context, name string, r io.Reader, size int64) (BackupRef, error)
	// List returns stored archives, newest first
	List(ctx context.Context) ([]BackupRef, error)
}
