package shared

import (
	"context"
	"time"
)

// StoredResponse is the response recorded for a completed idempotent request.
type StoredResponse struct {
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers the outcome of write requests keyed by a client-chosen
// idempotency key, so a replayed request is answered without being applied again.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight request. It returns false when the key is
	// already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the response for a reserved key.
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Release drops a reservation whose request failed so the client may retry it.
	Release(ctx context.Context, key string) error

	// Lookup returns the stored response for key. ok is false when nothing is stored
	// or the request is still in flight.
	Lookup(ctx context.Context, key string) (resp *StoredResponse, ok bool, err error)

	// Close releases resources held by the store.
	Close() error
}
