package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analyticsapp "github.com/gasdist/backend/internal/application/analytics"
	approvalapp "github.com/gasdist/backend/internal/application/approval"
	identityapp "github.com/gasdist/backend/internal/application/identity"
	integrationapp "github.com/gasdist/backend/internal/application/integration"
	partnerapp "github.com/gasdist/backend/internal/application/partner"
	salesapp "github.com/gasdist/backend/internal/application/sales"
	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"github.com/gasdist/backend/internal/infrastructure/cache"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/event"
	infraintegration "github.com/gasdist/backend/internal/infrastructure/integration"
	"github.com/gasdist/backend/internal/infrastructure/logger"
	"github.com/gasdist/backend/internal/infrastructure/persistence"
	"github.com/gasdist/backend/internal/infrastructure/storage"
	"github.com/gasdist/backend/internal/infrastructure/telemetry"
	"github.com/gasdist/backend/internal/interfaces/http/handler"
	"github.com/gasdist/backend/internal/interfaces/http/middleware"
	"github.com/gasdist/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	log.Info("Starting gas distribution backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			DBSystem:           db.Driver,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	// Redis backs idempotency and token revocation when available
	idempotencyStore, redisClient, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	var revocations auth.RevocationStore = auth.NewInMemoryRevocationStore()
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
		defer func() { _ = redisClient.Close() }()
	}

	// Integrations
	notifier, err := infraintegration.NewNotifier(cfg.Integration, log)
	if err != nil {
		log.Fatal("Failed to create notifier", zap.Error(err))
	}
	scanner := infraintegration.NewKeyboardWedgeScanner(cfg.Integration.ScannerPrefix, cfg.Integration.ScannerSuffix)
	var backupStore integration.BackupPort
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3BackupStore(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create backup store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Warn("Backup bucket check failed", zap.Error(err))
		}
		backupStore = s3Store
	} else {
		log.Warn("Object storage disabled, backups are kept in memory")
		backupStore = infraintegration.NewInMemoryBackupStore()
	}

	// Repositories
	txm := persistence.NewTxManager(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	approvalRepo := persistence.NewGormApprovalRepository(db.DB)
	forecastRepo := persistence.NewGormForecastRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Application services
	customerService := partnerapp.NewCustomerService(customerRepo, transactionRepo, paymentRepo, txm, log)
	transactionService := salesapp.NewTransactionService(transactionRepo, paymentRepo, customerRepo, txm, log)
	paymentService := salesapp.NewPaymentService(paymentRepo, transactionRepo, customerRepo, txm, log)
	approvalService := approvalapp.NewService(approvalRepo, txm, map[approval.EntityType]approvalapp.Target{
		approval.EntityCustomer:    customerService,
		approval.EntityTransaction: transactionService,
	}, cfg.Approval.StalePolicy, log)
	forecastService := analyticsapp.NewForecastService(forecastRepo, transactionRepo, log)
	analyticsService := analyticsapp.NewAnalyticsService(analyticsRepo, transactionRepo, paymentRepo, customerRepo, log)
	branchService := identityapp.NewBranchService(branchRepo, userRepo, log)
	userService := identityapp.NewUserService(userRepo, branchRepo, revocations, cfg.JWT.AccessTokenExpiration, log)
	scanService := integrationapp.NewScanService(scanner, transactionRepo, customerRepo, log)
	backupService := integrationapp.NewBackupService(persistence.NewGormTableExporter(db.DB), backupStore, notifier, log)

	// Approval decisions are delivered to staff through the notify port
	eventBus := event.NewInMemoryEventBus(log)
	notificationHandler := integrationapp.NewNotificationHandler(notifier, cfg.Integration.NotifyOnSubmission, log)
	eventBus.Subscribe(notificationHandler, notificationHandler.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("notification_events", notificationHandler.EventTypes()),
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	approvalService.SetEventPublisher(eventBus)

	if metrics != nil {
		approvalService.SetMetrics(metrics)
		backupService.SetMetrics(metrics)
		notificationHandler.SetMetrics(metrics)
	}

	backupScheduler, err := newBackupScheduler(cfg.Storage, backupService, log)
	if err != nil {
		log.Fatal("Invalid backup schedule", zap.Error(err))
	}
	if backupScheduler != nil {
		if err := backupScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start backup scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.BackupJobTimeout)
			defer cancel()
			if err := backupScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping backup scheduler", zap.Error(err))
			}
		}()
	}

	// HTTP handlers
	base := handler.NewBaseHandler(!cfg.App.IsProduction())
	handlers := router.Handlers{
		Customers:    handler.NewCustomerHandler(base, customerService, transactionService, paymentService),
		Transactions: handler.NewTransactionHandler(base, transactionService),
		Payments:     handler.NewPaymentHandler(base, paymentService),
		Approvals:    handler.NewApprovalHandler(base, approvalService),
		Forecasts:    handler.NewForecastHandler(base, forecastService),
		Analytics:    handler.NewAnalyticsHandler(base, analyticsService),
		Branches:     handler.NewBranchHandler(base, branchService),
		Users:        handler.NewUserHandler(base, userService),
		Scans:        handler.NewScanHandler(base, scanService),
		Backups:      handler.NewBackupHandler(base, backupService),
		System:       handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, redisClient)...),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracer.IsEnabled(),
		},
		JWTService:       auth.NewJWTService(cfg.JWT),
		Revocations:      revocations,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.Redis.IdempotencyTTL,
		Metrics:          metrics,
		RateLimiter:      limiter,
	}, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
