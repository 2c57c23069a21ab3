// Package offline queues writes made while the field client has no
// connectivity and replays them, oldest first, once it is back online.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the replay state of a queued write
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusSynced  ItemStatus = "synced"
	StatusFailed  ItemStatus = "failed"
)

// Item is one queued write
type Item struct {
	ID        uuid.UUID
	Timestamp time.Time
	Operation string
	Data      json.RawMessage
	Endpoint  string
	Method    string
	Status    ItemStatus
	Error     string
	SyncedAt  *time.Time
	// IdempotencyKey is sent on every replay of this item; it defaults to the
	// item id
	IdempotencyKey string
}

// Replayable reports whether the next replay sweep picks the item up
func (i Item) Replayable() bool {
	return i.Status == StatusPending || i.Status == StatusFailed
}

func (i Item) key() string {
	if i.IdempotencyKey != "" {
		return i.IdempotencyKey
	}
	return i.ID.String()
}

// ErrItemNotFound is returned by stores for unknown ids
var ErrItemNotFound = errors.New("queue item not found")

// Store persists the queue on the device. Implementations keep items in
// enqueue order and are safe for concurrent use.
type Store interface {
	Append(ctx context.Context, item Item) error
	// List returns every item in enqueue order
	List(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
	LastSync(ctx context.Context) (*time.Time, error)
	SetLastSync(ctx context.Context, at time.Time) error
}
