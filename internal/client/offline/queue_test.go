package offline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/client/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectivity struct {
	mu     sync.Mutex
	online bool
}

func (c *connectivity) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *connectivity) set(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

type recordedRequest struct {
	Method string
	Path   string
	Key    string
	Body   string
}

// recordingServer answers 201 for every request except paths listed in
// reject, which get a 400 validation error
type recordingServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	reject   map[string]bool
	srv      *httptest.Server
}

func newRecordingServer(t *testing.T, reject ...string) *recordingServer {
	t.Helper()
	rs := &recordingServer{reject: map[string]bool{}}
	for _, p := range reject {
		rs.reject[p] = true
	}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Key:    r.Header.Get(api.IdempotencyKeyHeader),
			Body:   string(body),
		})
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if rs.reject[r.URL.Path] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"ERR_VALIDATION","message":"Validation failed","requestId":"req-1"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"`+uuid.NewString()+`"}`)
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *recordingServer) recorded() []recordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]recordedRequest(nil), rs.requests...)
}

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	c, err := api.NewClient(baseURL, api.WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestQueue_EnqueueValidatesPayload(t *testing.T) {
	q := NewQueue(NewMemoryStore(), nil, nil)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]any{"fn": func() {}})
	assert.ErrorIs(t, err, ErrNotSerializable)
	_, err = q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, ErrNotSerializable)

	id, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "Wanjiru"})
	require.NoError(t, err)
	items, err := q.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, StatusPending, items[0].Status)
	assert.JSONEq(t, `{"name":"Wanjiru"}`, string(items[0].Data))
}

func TestQueue_ReplayInOrderAndKeepsFailures(t *testing.T) {
	rs := newRecordingServer(t, "/api/payments")
	q := NewQueue(NewMemoryStore(), newClient(t, rs.srv.URL), nil)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)
	failID, err := q.Enqueue(ctx, "payment.create", "/api/payments", http.MethodPost, map[string]string{"amount": "-1"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "transaction.create", "/api/transactions", http.MethodPost, map[string]string{"cylinderType": "6kg"})
	require.NoError(t, err)

	results, err := q.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	paths := []string{}
	for _, r := range rs.recorded() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/api/customers", "/api/payments", "/api/transactions"}, paths)

	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusCreated, results[0].StatusCode)
	assert.False(t, results[1].Success)
	assert.Equal(t, http.StatusBadRequest, results[1].StatusCode)
	assert.Contains(t, results[1].Error, "ERR_VALIDATION")
	assert.True(t, results[2].Success)

	items, err := q.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, failID, items[0].ID)
	assert.Equal(t, StatusFailed, items[0].Status)
	assert.Contains(t, items[0].Error, "Validation failed")

	st, err := q.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsOnline)
	assert.Equal(t, 1, st.QueueLength)
	assert.Equal(t, 0, st.PendingCount)
	assert.Equal(t, 1, st.FailedCount)
	require.NotNil(t, st.LastSync)

	// failed items are retried on the next sweep
	results, err = q.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, failID, results[0].ItemID)
	assert.Len(t, rs.recorded(), 4)
}

func TestQueue_ReplaySendsIdempotencyKey(t *testing.T) {
	rs := newRecordingServer(t)
	q := NewQueue(NewMemoryStore(), newClient(t, rs.srv.URL), nil)
	ctx := context.Background()

	plainID, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)
	_, err = q.EnqueueWrite(ctx, api.QueuedWrite{
		Operation:      "customer.create",
		Method:         http.MethodPost,
		Endpoint:       "/api/customers",
		Payload:        json.RawMessage(`{"name":"B"}`),
		IdempotencyKey: "first-attempt-key",
	})
	require.NoError(t, err)

	_, err = q.Replay(ctx)
	require.NoError(t, err)

	reqs := rs.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, plainID.String(), reqs[0].Key)
	assert.Equal(t, "first-attempt-key", reqs[1].Key)
	assert.JSONEq(t, `{"name":"B"}`, reqs[1].Body)
}

func TestQueue_ReplayWhileOffline(t *testing.T) {
	rs := newRecordingServer(t)
	conn := &connectivity{}
	q := NewQueue(NewMemoryStore(), newClient(t, rs.srv.URL), conn)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)

	_, err = q.Replay(ctx)
	assert.ErrorIs(t, err, ErrOffline)
	assert.Empty(t, rs.recorded())

	st, err := q.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsOnline)
	assert.Equal(t, 1, st.PendingCount)
	assert.Nil(t, st.LastSync)

	conn.set(true)
	results, err := q.Replay(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueue_NetworkFailureMarksItemFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	q := NewQueue(NewMemoryStore(), newClient(t, baseURL), nil)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)

	results, err := q.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Zero(t, results[0].StatusCode)

	items, err := q.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, StatusFailed, items[0].Status)
	assert.NotEmpty(t, items[0].Error)
}

// blockingTransport holds the first call until release is closed
type blockingTransport struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingTransport) Do(ctx context.Context, _ api.Request) (*api.Response, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &api.Response{StatusCode: http.StatusCreated}, nil
}

func TestQueue_ConcurrentReplayIsRejected(t *testing.T) {
	transport := &blockingTransport{entered: make(chan struct{}), release: make(chan struct{})}
	q := NewQueue(NewMemoryStore(), transport, nil)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := q.Replay(ctx)
		done <- err
	}()
	<-transport.entered

	_, err = q.Replay(ctx)
	assert.ErrorIs(t, err, ErrReplayInProgress)

	close(transport.release)
	require.NoError(t, <-done)

	// the guard is released once the sweep finishes
	results, err := q.Replay(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// cancellingTransport cancels the sweep after the first item
type cancellingTransport struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingTransport) Do(_ context.Context, _ api.Request) (*api.Response, error) {
	c.calls++
	c.cancel()
	return &api.Response{StatusCode: http.StatusCreated}, nil
}

func TestQueue_ReplayStopsBetweenItemsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport := &cancellingTransport{cancel: cancel}
	store := NewMemoryStore()
	q := NewQueue(store, transport, nil)

	for _, name := range []string{"A", "B"} {
		_, err := q.Enqueue(context.Background(), "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": name})
		require.NoError(t, err)
	}

	results, err := q.Replay(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, transport.calls)

	items, err := q.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, StatusPending, items[0].Status)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue(NewMemoryStore(), nil, nil)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, "customer.delete", "/api/customers/x", http.MethodDelete, nil)
	require.NoError(t, err)
	require.NoError(t, q.Clear(ctx))

	st, err := q.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.QueueLength)
}

// stickyStore fails the first delete of every item
type stickyStore struct {
	*MemoryStore
	mu      sync.Mutex
	refused map[uuid.UUID]bool
}

func (s *stickyStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	first := !s.refused[id]
	s.refused[id] = true
	s.mu.Unlock()
	if first {
		return errors.New("disk busy")
	}
	return s.MemoryStore.Delete(ctx, id)
}

func TestQueue_SyncedItemIsPurgedNotResent(t *testing.T) {
	rs := newRecordingServer(t)
	store := &stickyStore{MemoryStore: NewMemoryStore(), refused: map[uuid.UUID]bool{}}
	q := NewQueue(store, newClient(t, rs.srv.URL), nil)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "customer.create", "/api/customers", http.MethodPost, map[string]string{"name": "A"})
	require.NoError(t, err)

	results, err := q.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	items, err := q.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, StatusSynced, items[0].Status)
	assert.NotNil(t, items[0].SyncedAt)

	st, err := q.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.QueueLength)

	results, err = q.Replay(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, rs.recorded(), 1, "delivered item is not sent again")

	items, err = q.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
