package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gasdist/backend/internal/client/appstate"
	"go.uber.org/zap"
)

// Coordinator replays the queue whenever the app state goes online and turns
// the outcome into notices
type Coordinator struct {
	queue  *Queue
	state  *appstate.Store
	logger *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewCoordinator creates a coordinator; call Start to begin listening
func NewCoordinator(queue *Queue, state *appstate.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{queue: queue, state: state, logger: logger}
}

// Start subscribes to connectivity changes. Calling Start twice is a no-op.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	ctx := c.ctx
	c.unsubscribe = c.state.Subscribe(func(change appstate.Change) {
		if !change.WentOnline || ctx.Err() != nil {
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			_, _ = c.SyncNow(ctx)
		}()
	})
}

// Stop unsubscribes, cancels a running sweep between items and waits for it
func (c *Coordinator) Stop() {
	c.mu.Lock()
	unsubscribe, cancel := c.unsubscribe, c.cancel
	c.unsubscribe, c.cancel = nil, nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// SyncNow replays the queue on demand. A sweep already running makes this
// call return ErrReplayInProgress and post no notice.
func (c *Coordinator) SyncNow(ctx context.Context) ([]SyncResult, error) {
	results, err := c.queue.Replay(ctx)
	switch {
	case errors.Is(err, ErrReplayInProgress):
		return nil, err
	case errors.Is(err, ErrOffline):
		c.state.Notify(appstate.NoticeWarning, "Still offline; queued changes will sync when the connection returns")
		return nil, err
	case err != nil:
		c.logger.Warn("Replay stopped", zap.Error(err))
		c.state.Notify(appstate.NoticeError, "Sync stopped: "+err.Error())
		return results, err
	}

	if len(results) == 0 {
		return results, nil
	}
	failed, unauthorized := 0, false
	for _, r := range results {
		if !r.Success {
			failed++
			unauthorized = unauthorized || r.StatusCode == http.StatusUnauthorized
		}
	}
	switch {
	case unauthorized:
		c.state.Notify(appstate.NoticeError, "Sign in again to sync queued changes")
	case failed > 0:
		c.state.Notify(appstate.NoticeWarning, fmt.Sprintf("%d of %d queued changes failed to sync", failed, len(results)))
	default:
		c.state.Notify(appstate.NoticeSuccess, fmt.Sprintf("Synced %d queued changes", len(results)))
	}
	return results, nil
}
