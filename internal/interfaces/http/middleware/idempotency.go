package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key of a write request
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is set on responses served from the store
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 128
	idempotencyStoreTimeout = 2 * time.Second
)

// ReplayObserver counts responses answered from the idempotency store
type ReplayObserver interface {
	IdempotentReplay()
}

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store   shared.IdempotencyStore
	TTL     time.Duration
	Metrics ReplayObserver
	Logger  *zap.Logger
}

// Idempotency makes POST, PUT, PATCH and DELETE requests carrying an
// Idempotency-Key safe to retry. The first request with a key is executed and
// its response stored. A retry receives the stored response. A retry that
// arrives while the first is still running gets 409. Responses with a 5xx
// status are not stored, so the client may try again.
//
// Keys are scoped to the authenticated user and the route, so the middleware
// belongs after JWT authentication.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		clientKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if clientKey == "" || !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}
		key := scopedIdempotencyKey(c, clientKey)

		ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyStoreTimeout)
		reserved, err := cfg.Store.Reserve(ctx, key, ttl)
		cancel()
		if err != nil {
			// The store is an optimisation over the request itself; carry on without it.
			log.Warn("Idempotency store unavailable", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			c.Next()
			return
		}
		if !reserved {
			replay(c, cfg, log, key)
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		handled := false
		defer func() {
			// Reached without handled set only while a panic unwinds towards
			// Recovery. Nothing was stored, so the key must not stay reserved.
			if !handled {
				release(c, cfg, log, key)
			}
		}()
		c.Next()
		handled = true

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			release(c, cfg, log, key)
			return
		}
		storeCtx, storeCancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
		defer storeCancel()
		resp := shared.StoredResponse{
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := cfg.Store.Complete(storeCtx, key, resp, ttl); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func release(c *gin.Context, cfg IdempotencyConfig, log *zap.Logger, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
	defer cancel()
	if err := cfg.Store.Release(ctx, key); err != nil {
		log.Warn("Failed to release idempotency key", zap.Error(err))
	}
}

func replay(c *gin.Context, cfg IdempotencyConfig, log *zap.Logger, key string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyStoreTimeout)
	defer cancel()
	stored, ok, err := cfg.Store.Lookup(ctx, key)
	if err != nil {
		log.Warn("Idempotency lookup failed", zap.Error(err))
	}
	if err != nil || !ok {
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
			dto.ErrCodeRequestInProgress,
			"A request with this Idempotency-Key is still being processed",
			GetRequestID(c),
		))
		return
	}
	if cfg.Metrics != nil {
		cfg.Metrics.IdempotentReplay()
	}
	c.Header(IdempotentReplayHeader, "true")
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.StatusCode, contentType, stored.Body)
	c.Abort()
}

func scopedIdempotencyKey(c *gin.Context, clientKey string) string {
	owner := GetJWTUserID(c)
	if owner == "" {
		owner = "anonymous"
	}
	return owner + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + clientKey
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseRecorder copies the response body while it is written
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
