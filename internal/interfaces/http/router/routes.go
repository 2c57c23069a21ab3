package router

import (
	"net/http"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/logger"
	"github.com/gasdist/backend/internal/infrastructure/telemetry"
	"github.com/gasdist/backend/internal/interfaces/http/dto"
	"github.com/gasdist/backend/internal/interfaces/http/handler"
	"github.com/gasdist/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the resource handlers mounted under /api
type Handlers struct {
	Customers    *handler.CustomerHandler
	Transactions *handler.TransactionHandler
	Payments     *handler.PaymentHandler
	Approvals    *handler.ApprovalHandler
	Forecasts    *handler.ForecastHandler
	Analytics    *handler.AnalyticsHandler
	Branches     *handler.BranchHandler
	Users        *handler.UserHandler
	Scans        *handler.ScanHandler
	Backups      *handler.BackupHandler
	System       *handler.SystemHandler
}

// EngineConfig carries what the middleware chain needs
type EngineConfig struct {
	Logger           *zap.Logger
	HTTP             config.HTTPConfig
	Tracing          middleware.TracingConfig
	JWTService       *auth.JWTService
	Revocations      auth.RevocationStore
	IdempotencyStore shared.IdempotencyStore
	IdempotencyTTL   time.Duration
	// Metrics is optional; nil disables /metrics and request counters
	Metrics     *telemetry.Metrics
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine: global middleware, /health, /metrics and
// the authenticated /api groups.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = false
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	var httpObserver middleware.HTTPObserver
	var replayObserver middleware.ReplayObserver
	if cfg.Metrics != nil {
		httpObserver = cfg.Metrics
		replayObserver = cfg.Metrics
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(cfg.Tracing),
		middleware.HTTPMetrics(httpObserver),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:  cfg.JWTService,
			Revocations: cfg.Revocations,
			Logger:      log,
		}),
		middleware.SpanEnricher(),
	}
	if cfg.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(cfg.RateLimiter))
	}
	apiMiddleware = append(apiMiddleware, middleware.Idempotency(middleware.IdempotencyConfig{
		Store:   cfg.IdempotencyStore,
		TTL:     cfg.IdempotencyTTL,
		Metrics: replayObserver,
		Logger:  log,
	}))

	r := NewRouter(engine, WithBasePath("/api"), WithMiddleware(apiMiddleware...))
	for _, group := range resourceGroups(h, log) {
		r.Register(group)
	}
	r.Setup()
	return engine
}

func resourceGroups(h Handlers, log *zap.Logger) []*DomainGroup {
	can := func(caps ...identity.Capability) gin.HandlerFunc {
		return middleware.RequireCapabilityWithLogger(log, caps...)
	}
	var groups []*DomainGroup

	if h.Customers != nil {
		groups = append(groups, NewDomainGroup("customers", "/customers").
			GET("", can(identity.CapCustomersRead), h.Customers.List).
			POST("", can(identity.CapCustomersCreate), h.Customers.Create).
			GET("/:id", can(identity.CapCustomersRead), h.Customers.GetByID).
			PUT("/:id", can(identity.CapCustomersEdit), h.Customers.Update).
			DELETE("/:id", can(identity.CapCustomersDelete), h.Customers.Delete).
			GET("/:id/transactions", can(identity.CapTransactionsRead), h.Customers.ListTransactions).
			GET("/:id/payments", can(identity.CapPaymentsRead), h.Customers.ListPayments))
	}
	if h.Transactions != nil {
		groups = append(groups, NewDomainGroup("transactions", "/transactions").
			GET("", can(identity.CapTransactionsRead), h.Transactions.List).
			POST("", can(identity.CapTransactionsCreate), h.Transactions.Create).
			GET("/receipts/:receiptNumber", can(identity.CapTransactionsRead), h.Transactions.GetByReceiptNumber).
			GET("/:id", can(identity.CapTransactionsRead), h.Transactions.GetByID).
			PUT("/:id", can(identity.CapTransactionsEdit), h.Transactions.Update).
			DELETE("/:id", can(identity.CapTransactionsDelete), h.Transactions.Delete))
	}
	if h.Payments != nil {
		groups = append(groups, NewDomainGroup("payments", "/payments").
			GET("", can(identity.CapPaymentsRead), h.Payments.List).
			POST("", can(identity.CapPaymentsCreate), h.Payments.Create).
			GET("/:id", can(identity.CapPaymentsRead), h.Payments.GetByID).
			PUT("/:id", can(identity.CapPaymentsEdit), h.Payments.Update).
			DELETE("/:id", can(identity.CapPaymentsDelete), h.Payments.Delete))
	}
	if h.Approvals != nil {
		groups = append(groups, NewDomainGroup("approvals", "/approvals").
			GET("", can(identity.CapApprovalsManage), h.Approvals.List).
			POST("", can(identity.CapApprovalsRequest), h.Approvals.Submit).
			GET("/:id", can(identity.CapApprovalsManage), h.Approvals.GetByID).
			PUT("/:id/approve", can(identity.CapApprovalsManage), h.Approvals.Approve).
			PUT("/:id/reject", can(identity.CapApprovalsManage), h.Approvals.Reject))
	}
	if h.Forecasts != nil {
		groups = append(groups, NewDomainGroup("forecasts", "/forecasts").
			GET("", can(identity.CapForecastsRead), h.Forecasts.List).
			POST("", can(identity.CapForecastsManage), h.Forecasts.Create).
			POST("/generate", can(identity.CapForecastsManage), h.Forecasts.Generate).
			GET("/:id", can(identity.CapForecastsRead), h.Forecasts.GetByID).
			PUT("/:id", can(identity.CapForecastsManage), h.Forecasts.Update).
			DELETE("/:id", can(identity.CapForecastsManage), h.Forecasts.Delete))
	}
	if h.Analytics != nil {
		groups = append(groups, NewDomainGroup("analytics", "/analytics").
			GET("", can(identity.CapAnalyticsRead), h.Analytics.List).
			POST("", can(identity.CapAnalyticsManage), h.Analytics.Create).
			POST("/compute", can(identity.CapAnalyticsManage), h.Analytics.Compute).
			GET("/:id", can(identity.CapAnalyticsRead), h.Analytics.GetByID).
			PUT("/:id", can(identity.CapAnalyticsManage), h.Analytics.Update).
			DELETE("/:id", can(identity.CapAnalyticsManage), h.Analytics.Delete))
	}
	if h.Branches != nil {
		groups = append(groups, NewDomainGroup("branches", "/branches").
			GET("", can(identity.CapBranchesRead), h.Branches.List).
			POST("", can(identity.CapBranchesManage), h.Branches.Create).
			GET("/:id", can(identity.CapBranchesRead), h.Branches.GetByID).
			PUT("/:id", can(identity.CapBranchesManage), h.Branches.Update).
			DELETE("/:id", can(identity.CapBranchesManage), h.Branches.Delete))
	}
	if h.Users != nil {
		groups = append(groups, NewDomainGroup("users", "/users").
			Use(can(identity.CapUsersManage)).
			GET("", h.Users.List).
			POST("", h.Users.Create).
			GET("/:id", h.Users.GetByID).
			PUT("/:id", h.Users.Update).
			DELETE("/:id", h.Users.Delete))
	}
	if h.Scans != nil {
		groups = append(groups, NewDomainGroup("scans", "/scans").
			POST("", can(identity.CapScansResolve), h.Scans.Resolve))
	}
	if h.Backups != nil {
		groups = append(groups, NewDomainGroup("backups", "/backups").
			Use(can(identity.CapBackupsCreate)).
			GET("", h.Backups.List).
			POST("", h.Backups.Create))
	}
	return groups
}
