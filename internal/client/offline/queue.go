package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gasdist/backend/internal/client/api"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrReplayInProgress is returned when a replay is requested while another
	// one is still running
	ErrReplayInProgress = errors.New("replay already in progress")
	// ErrOffline is returned by Replay while the client has no connectivity
	ErrOffline = errors.New("cannot replay while offline")
	// ErrNotSerializable is returned by Enqueue for payloads that are not JSON
	ErrNotSerializable = errors.New("payload is not JSON-serializable")
)

// Transport sends a replayed write. *api.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, req api.Request) (*api.Response, error)
}

// SyncResult is the outcome of replaying one item
type SyncResult struct {
	ItemID     uuid.UUID
	Operation  string
	Endpoint   string
	Method     string
	Success    bool
	StatusCode int
	Error      string
}

// Status is a snapshot of the queue for display
type Status struct {
	IsOnline     bool
	QueueLength  int
	PendingCount int
	FailedCount  int
	LastSync     *time.Time
}

// Queue is the offline write queue
type Queue struct {
	store        Store
	transport    Transport
	connectivity api.Connectivity
	logger       *zap.Logger
	now          func() time.Time
	replaying    atomic.Bool
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithQueueLogger sets the logger
func WithQueueLogger(l *zap.Logger) QueueOption {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithQueueClock replaces time.Now
func WithQueueClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// NewQueue creates a queue over store. connectivity may be nil, in which case
// the queue always considers itself online.
func NewQueue(store Store, transport Transport, connectivity api.Connectivity, opts ...QueueOption) *Queue {
	q := &Queue{
		store:        store,
		transport:    transport,
		connectivity: connectivity,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores a write for later replay and returns its id. The only check
// made is that payload encodes as JSON.
func (q *Queue) Enqueue(ctx context.Context, operation, endpoint, method string, payload any) (uuid.UUID, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return uuid.Nil, err
	}
	return q.append(ctx, Item{
		Operation: operation,
		Endpoint:  endpoint,
		Method:    method,
		Data:      data,
	})
}

// EnqueueWrite stores a write that failed with a network error, keeping the
// idempotency key it was first sent with
func (q *Queue) EnqueueWrite(ctx context.Context, w api.QueuedWrite) (uuid.UUID, error) {
	data, err := encodePayload(w.Payload)
	if err != nil {
		return uuid.Nil, err
	}
	return q.append(ctx, Item{
		Operation:      w.Operation,
		Endpoint:       w.Endpoint,
		Method:         w.Method,
		Data:           data,
		IdempotencyKey: w.IdempotencyKey,
	})
}

func (q *Queue) append(ctx context.Context, item Item) (uuid.UUID, error) {
	item.ID = uuid.New()
	item.Timestamp = q.now()
	item.Status = StatusPending
	if err := q.store.Append(ctx, item); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s: %w", item.Operation, err)
	}
	q.logger.Info("Write queued",
		zap.String("queue_id", item.ID.String()),
		zap.String("operation", item.Operation),
		zap.String("method", item.Method),
		zap.String("endpoint", item.Endpoint),
	)
	return item.ID, nil
}

// Replay sends every pending and failed item in enqueue order. Each item is an
// independent call: a success removes the item, a failure marks it failed with
// the error and the sweep moves on. A concurrent call returns
// ErrReplayInProgress without sending anything.
func (q *Queue) Replay(ctx context.Context) ([]SyncResult, error) {
	if q.connectivity != nil && !q.connectivity.IsOnline() {
		return nil, ErrOffline
	}
	if !q.replaying.CompareAndSwap(false, true) {
		return nil, ErrReplayInProgress
	}
	defer q.replaying.Store(false)

	items, err := q.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	results := make([]SyncResult, 0, len(items))
	failed := 0
	for _, item := range items {
		if item.Status == StatusSynced {
			q.purge(ctx, item)
			continue
		}
		if !item.Replayable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := q.replayItem(ctx, item)
		if !res.Success {
			failed++
		}
		results = append(results, res)
	}

	if err := q.store.SetLastSync(context.WithoutCancel(ctx), q.now()); err != nil {
		q.logger.Warn("Failed to record last sync time", zap.Error(err))
	}
	q.logger.Info("Replay finished",
		zap.Int("attempted", len(results)),
		zap.Int("failed", failed),
	)
	return results, nil
}

func (q *Queue) replayItem(ctx context.Context, item Item) SyncResult {
	res := SyncResult{
		ItemID:    item.ID,
		Operation: item.Operation,
		Endpoint:  item.Endpoint,
		Method:    item.Method,
	}

	req := api.Request{
		Method:  item.Method,
		Path:    item.Endpoint,
		Headers: map[string]string{api.IdempotencyKeyHeader: item.key()},
	}
	if len(item.Data) > 0 {
		req.Body = item.Data
	}
	resp, err := q.transport.Do(ctx, req)
	// the outcome is recorded even if the sweep is cancelled mid-request
	storeCtx := context.WithoutCancel(ctx)
	if err != nil {
		if apiErr, ok := api.AsAPIError(err); ok {
			res.StatusCode = apiErr.StatusCode
		}
		res.Error = err.Error()
		item.Status = StatusFailed
		item.Error = res.Error
		if uerr := q.store.Update(storeCtx, item); uerr != nil {
			q.logger.Warn("Failed to mark queue item failed",
				zap.String("queue_id", item.ID.String()), zap.Error(uerr))
		}
		q.logger.Warn("Queued write failed",
			zap.String("queue_id", item.ID.String()),
			zap.String("operation", item.Operation),
			zap.Error(err),
		)
		return res
	}

	res.Success = true
	res.StatusCode = resp.StatusCode
	err = q.store.Delete(storeCtx, item.ID)
	if err == nil {
		return res
	}
	q.logger.Warn("Failed to remove synced queue item",
		zap.String("queue_id", item.ID.String()), zap.Error(err))

	// Marked synced, the item is not sent again and the next sweep purges it.
	// If this update fails too it stays replayable, and its idempotency key
	// makes the server answer the resend from the stored response.
	syncedAt := q.now()
	item.Status = StatusSynced
	item.Error = ""
	item.SyncedAt = &syncedAt
	if err := q.store.Update(storeCtx, item); err != nil {
		q.logger.Warn("Failed to mark queue item synced",
			zap.String("queue_id", item.ID.String()), zap.Error(err))
	}
	return res
}

// purge removes an item that was delivered but could not be deleted at the time
func (q *Queue) purge(ctx context.Context, item Item) {
	if err := q.store.Delete(ctx, item.ID); err != nil {
		q.logger.Warn("Failed to purge synced queue item",
			zap.String("queue_id", item.ID.String()), zap.Error(err))
	}
}

// Status reports connectivity, queue counts and the last sync time
func (q *Queue) Status(ctx context.Context) (Status, error) {
	items, err := q.store.List(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load queue: %w", err)
	}
	lastSync, err := q.store.LastSync(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load last sync: %w", err)
	}
	st := Status{
		IsOnline: q.connectivity == nil || q.connectivity.IsOnline(),
		LastSync: lastSync,
	}
	for _, item := range items {
		switch item.Status {
		case StatusPending:
			st.PendingCount++
		case StatusFailed:
			st.FailedCount++
		}
	}
	// synced leftovers are waiting to be purged, not to be sent
	st.QueueLength = st.PendingCount + st.FailedCount
	return st, nil
}

// Items returns the queued items in enqueue order
func (q *Queue) Items(ctx context.Context) ([]Item, error) {
	return q.store.List(ctx)
}

// Clear drops every queued item
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.Clear(ctx)
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(p) == 0 {
			return nil, nil
		}
		if !json.Valid(p) {
			return nil, ErrNotSerializable
		}
		return append(json.RawMessage(nil), p...), nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
		}
		return data, nil
	}
}
