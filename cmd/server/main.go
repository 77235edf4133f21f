package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	// Telemetry comes first so the logger can be teed into the OTLP log pipeline
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.InstrumentLogger(log)

	log.Info("Starting ERP Ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true),
		logger.WithParameterizedQueries(cfg.Log.SQLParameterized),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// sqlite deployments have no migration step of their own
	if cfg.Database.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	if cfg.Telemetry.DBTraceEnabled && providers.TracingEnabled() {
		if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        cfg.Database.Driver,
		}, log); err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
	}

	meter := providers.Meter()
	dbMetrics, err := telemetry.NewDBMetrics(db.DB, meter)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	defer func() {
		_ = dbMetrics.Close()
	}()
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register ledger metrics", zap.Error(err))
	}

	// Event serialization and the transactional outbox
	eventSerializer := event.NewEventSerializer()
	event.RegisterLedgerEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Unit of work and repositories
	uow := persistence.NewGormUnitOfWork(db.DB,
		persistence.WithOutboxSaver(outboxPublisher),
		persistence.WithUnitOfWorkLogger(log),
	)
	accountRepo := persistence.NewGormAccountRepository(uow)
	periodRepo := persistence.NewGormFiscalPeriodRepository(uow)
	entryRepo := persistence.NewGormJournalEntryRepository(uow)
	auditRepo := persistence.NewGormAuditLogRepository(uow)
	allocator := persistence.NewGormEntryNumberAllocator(uow)

	// Application services
	resolver, err := ledgerapp.NewAccountResolver(accountRepo, cfg.Ledger.AccountMapping,
		ledgerapp.WithMappingTTL(cfg.Ledger.MappingCacheTTL),
	)
	if err != nil {
		log.Fatal("Invalid account mapping", zap.Error(err))
	}
	periodService := ledgerapp.NewFiscalPeriodService(uow, periodRepo, entryRepo, ledgerMetrics, log)
	postingService := ledgerapp.NewPostingService(uow, accountRepo, entryRepo, allocator, periodService, resolver, log,
		ledgerapp.WithStrictAccountMapping(cfg.Ledger.StrictAccountMapping),
		ledgerapp.WithPostingMetrics(ledgerMetrics),
	)
	journalService := ledgerapp.NewJournalEntryService(uow, accountRepo, entryRepo, allocator, periodService, ledgerMetrics, log)
	accountService := ledgerapp.NewAccountService(uow, accountRepo, resolver, log)
	auditService := ledgerapp.NewAuditLogService(auditRepo)

	// Redis is optional unless redis.required; both consumers degrade to
	// in-memory implementations
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Redis.Required),
	).
		CreateStore(context.Background())
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Event bus with the posting translators
	eventBus := event.NewInMemoryEventBus(log)
	translatorMetrics := &event.IdempotencyMetrics{}
	translators := event.WrapHandlersWithIdempotency(
		ledgerapp.Translators(postingService, log),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
		event.WithIdempotencyMetrics(translatorMetrics),
	)
	eventTypes := make([]string, 0, len(translators))
	for _, h := range translators {
		eventBus.Subscribe(h)
		eventTypes = append(eventTypes, h.EventTypes()...)
	}
	log.Info("Posting translators registered", zap.Strings("event_types", eventTypes))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// The outbox processor delivers accepted events to the translators. When
	// its polling loop is disabled, the intake runs a delivery batch itself.
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
	outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
	outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
	outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log,
		event.WithDeliveryRecorder(ledgerMetrics),
	)
	var intakeOpts []event.OutboxIntakeOption
	if cfg.Event.ProcessorEnabled {
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	} else {
		log.Info("Outbox processor polling disabled; accepted events are delivered inline")
		intakeOpts = append(intakeOpts, event.WithInlineDelivery(outboxProcessor))
	}
	eventIntake := event.NewOutboxIntake(uow, outboxPublisher, intakeOpts...)

	// Authentication
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// Initialize HTTP handlers
	ledgerHandlers := handler.LedgerHandlers{
		Accounts:       handler.NewAccountHandler(accountService),
		FiscalPeriods:  handler.NewFiscalPeriodHandler(periodService),
		JournalEntries: handler.NewJournalEntryHandler(journalService),
		AuditLogs:      handler.NewAuditLogHandler(auditService),
		Events:         handler.NewEventIntakeHandler(eventIntake),
	}
	systemHandler := handler.NewSystemHandler(version, db)
	outboxHandler := handler.NewOutboxHandler(outboxRepo, handler.WithTranslatorMetrics(translatorMetrics))

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order matters: the request ID and span exist before anything
	// logs, and the tenant is resolved after the token is verified.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.TracingEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/health", "/api/v1/system/ping"))
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfigFrom(cfg.HTTP)))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = tokenBlacklist
	jwtConfig.Required = cfg.JWT.Required
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/ping", "/api/v1/system/info")
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, "/api/v1/system")
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))
	engine.Use(middleware.TracingAttributeInjector())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.LedgerRoutes(ledgerHandlers))
	r.Register(handler.SystemRoutes(systemHandler, outboxHandler,
		middleware.RequireAnyPermission(log, middleware.PermissionOutboxAdmin),
	))
	for _, route := range r.Setup() {
		log.Debug("route mounted",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
