package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/logger"
	"github.com/gasdist/backend/internal/interfaces/http/dto"
	"github.com/gasdist/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "gasdist-test",
		AccessTokenExpiration: expiration,
	})
}

func newTestUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser("user"+string(role), "Test User", "secret123", role)
	require.NoError(t, err)
	return u
}

func tokenFor(t *testing.T, svc *auth.JWTService, u *identity.User) string {
	t.Helper()
	token, err := svc.GenerateToken(u)
	require.NoError(t, err)
	return token.AccessToken
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	return testutil.DecodeJSON[dto.ErrorResponse](t, w)
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddlewareWithConfig(cfg))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId":    GetJWTUserID(c),
			"role":      c.GetString(JWTRoleKey),
			"ctxUserId": logger.GetUserID(c.Request.Context()),
			"hasClaims": GetJWTClaims(c) != nil,
		})
	})
	return r
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	u := newTestUser(t, identity.RoleOperator)
	r := newJWTRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+tokenFor(t, svc, u))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.DecodeJSON[map[string]any](t, w)
	assert.Equal(t, u.ID.String(), body["userId"])
	assert.Equal(t, "operator", body["role"])
	assert.Equal(t, u.ID.String(), body["ctxUserId"])
	assert.Equal(t, true, body["hasClaims"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	expired := newTestJWTService(-time.Minute)
	other := auth.NewJWTService(config.JWTConfig{
		Secret: "another-secret-key-at-least-32-chars", Issuer: "gasdist-test", AccessTokenExpiration: time.Hour,
	})
	u := newTestUser(t, identity.RoleManager)
	r := newJWTRouter(DefaultJWTConfig(svc))

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage", "Bearer not-a-token", dto.ErrCodeUnauthorized},
		{"wrong secret", "Bearer " + tokenFor(t, other, u), dto.ErrCodeUnauthorized},
		{"expired", "Bearer " + tokenFor(t, expired, u), dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	r := newJWTRouter(DefaultJWTConfig(newTestJWTService(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Revocation(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	store := auth.NewInMemoryRevocationStore()
	u := newTestUser(t, identity.RoleOperator)
	token := tokenFor(t, svc, u)

	cfg := DefaultJWTConfig(svc)
	cfg.Revocations = store
	r := newJWTRouter(cfg)

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call().Code)

	require.NoError(t, store.RevokeUser(context.Background(), u.ID.String(), time.Hour))
	w := call()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Error)
}

func TestGetJWTClaims_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
}
