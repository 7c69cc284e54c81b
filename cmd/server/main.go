package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/rentnest/backend/docs"
	adminapp "github.com/rentnest/backend/internal/application/admin"
	"github.com/rentnest/backend/internal/application/access"
	agentapp "github.com/rentnest/backend/internal/application/agent"
	alertapp "github.com/rentnest/backend/internal/application/alert"
	escrowapp "github.com/rentnest/backend/internal/application/escrow"
	favoriteapp "github.com/rentnest/backend/internal/application/favorite"
	identityapp "github.com/rentnest/backend/internal/application/identity"
	leasingapp "github.com/rentnest/backend/internal/application/leasing"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	messagingapp "github.com/rentnest/backend/internal/application/messaging"
	paymentapp "github.com/rentnest/backend/internal/application/payment"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"github.com/rentnest/backend/internal/infrastructure/cache"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/rentnest/backend/internal/infrastructure/email"
	"github.com/rentnest/backend/internal/infrastructure/event"
	"github.com/rentnest/backend/internal/infrastructure/logger"
	"github.com/rentnest/backend/internal/infrastructure/migration"
	paymentinfra "github.com/rentnest/backend/internal/infrastructure/payment"
	"github.com/rentnest/backend/internal/infrastructure/persistence"
	"github.com/rentnest/backend/internal/infrastructure/realtime"
	"github.com/rentnest/backend/internal/infrastructure/receipt"
	"github.com/rentnest/backend/internal/infrastructure/storage"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"github.com/rentnest/backend/internal/interfaces/http/handler"
	"github.com/rentnest/backend/internal/interfaces/http/middleware"
	"github.com/rentnest/backend/internal/interfaces/http/router"
	"github.com/rentnest/backend/migrations"
)

//	@title			RentNest API
//	@version		1.0
//	@description	Rental marketplace backend: listings, applications, messaging, alerts, agents, payments and escrow.

//	@contact.name	RentNest Engineering
//	@contact.email	engineering@rentnest.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const (
	appVersion      = "1.0.0"
	shutdownTimeout = 30 * time.Second
	statsInterval   = 5 * time.Minute
)

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
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Telemetry: traces, metrics, logs and profiling
	providers, err := telemetry.Setup(rootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.BridgeLogger(log, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting RentNest API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if _, err := telemetry.InstrumentDB(db.DB, telemetry.DBConfig{
		TraceEnabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, providers.Meter("rentnest/db"), log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Redis backs the token blacklist, payment idempotency and message fan-out
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklistWithClient(redisClient)
	} else {
		log.Warn("Redis disabled, revoked tokens are tracked in memory on this instance only")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	idempotencyStore, err := cache.NewIdempotencyStore(redisClient,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Repositories
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	propertyRepo := persistence.NewGormPropertyRepository(db.DB)
	savedRepo := persistence.NewGormSavedPropertyRepository(db.DB)
	applicationRepo := persistence.NewGormApplicationRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	alertRepo := persistence.NewGormSearchAlertRepository(db.DB)
	agentRepo := persistence.NewGormAgentRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	escrowRepo := persistence.NewGormEscrowRepository(db.DB)

	// Event bus delivers domain events to in-process handlers
	eventBus := event.NewInMemoryEventBus(log.Named("events"), event.WithAsyncDispatch())
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(ctx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Business metrics
	marketplaceMetrics, err := telemetry.NewMarketplaceMetrics(providers.Meter("rentnest/marketplace"), log)
	if err != nil {
		log.Fatal("Failed to create marketplace metrics", zap.Error(err))
	}
	defer marketplaceMetrics.Stop()

	// Property image storage
	images, err := newImageStorage(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Realtime message fan-out
	broker, err := realtime.NewBroker(rootCtx, redisClient, cfg.Realtime, log.Named("realtime"))
	if err != nil {
		log.Fatal("Failed to start realtime broker", zap.Error(err))
	}
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error("Error closing realtime broker", zap.Error(err))
		}
	}()

	// Alert notifications by email
	notifier, mailer, err := newAlertNotifier(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}
	if mailer != nil {
		if err := mailer.Start(rootCtx); err != nil {
			log.Fatal("Failed to start mailer", zap.Error(err))
		}
		defer func() {
			if err := mailer.Stop(); err != nil {
				log.Error("Error stopping mailer", zap.Error(err))
			}
		}()
	}

	// Payment gateways and receipts
	gateways, err := paymentinfra.NewRegistryFromConfig(cfg.Payment, log.Named("payment"))
	if err != nil {
		log.Fatal("Failed to initialize payment gateways", zap.Error(err))
	}
	var receipts payment.ReceiptRenderer
	if cfg.Receipt.Enabled {
		renderer := receipt.NewChromeRenderer(receipt.ChromeConfig{
			ExecPath:  cfg.Receipt.ChromePath,
			RemoteURL: cfg.Receipt.RemoteURL,
			Timeout:   cfg.Receipt.Timeout,
			NoSandbox: cfg.Receipt.NoSandbox,
		}, log.Named("receipt"))
		generator := receipt.NewGenerator(renderer, cfg.Receipt.Locale, cfg.Receipt.CompanyName, log.Named("receipt"))
		defer func() {
			_ = generator.Close()
		}()
		receipts = generator
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	checker := access.NewChecker(assignmentRepo)

	authService := identityapp.NewAuthService(profileRepo, jwtService, blacklist, eventBus, log)
	profileService := identityapp.NewProfileService(profileRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)

	propertyService := listingapp.NewPropertyService(propertyRepo, checker, images, eventBus, log)
	propertyService.SetMetrics(marketplaceMetrics)

	savedService := favoriteapp.NewService(savedRepo, propertyRepo, log)

	applicationService := leasingapp.NewService(applicationRepo, propertyRepo, checker, eventBus, log)
	applicationService.SetMetrics(marketplaceMetrics)

	messagingService := messagingapp.NewService(conversationRepo, messageRepo, profileRepo, propertyRepo, broker, log)
	messagingService.SetMetrics(marketplaceMetrics)

	alertService := alertapp.NewService(alertRepo, propertyRepo, log)
	matchHandler := alertapp.NewMatchHandler(alertRepo, profileRepo, notifier, log.Named("alerts"))
	matchHandler.SetMetrics(marketplaceMetrics)
	eventBus.Subscribe(event.NewIdempotentHandler(matchHandler, idempotencyStore, log.Named("events"),
		event.WithIdempotencyPrefix("alert-match:"),
	))
	log.Info("Event handlers registered", zap.Strings("alert_match_events", matchHandler.EventTypes()))

	agentService := agentapp.NewService(agentRepo, assignmentRepo, profileRepo, propertyRepo, log)

	paymentService := paymentapp.NewService(
		paymentRepo, escrowRepo, propertyRepo, profileRepo,
		gateways, idempotencyStore, receipts, eventBus,
		paymentapp.Options{
			ReturnURL:      cfg.App.PublicURL + "/payments/complete",
			CancelURL:      cfg.App.PublicURL + "/payments/cancelled",
			IdempotencyTTL: cfg.Payment.IdempotencyTTL,
		},
		log.Named("payment"),
	)
	paymentService.SetMetrics(marketplaceMetrics)

	escrowService := escrowapp.NewService(escrowRepo, propertyRepo, log)
	escrowService.SetMetrics(marketplaceMetrics)

	statsService := adminapp.NewStatsService(
		profileRepo, propertyRepo, applicationRepo, paymentRepo, escrowRepo,
		alertRepo, conversationRepo, messageRepo, log,
	)
	if providers.MetricsEnabled() {
		marketplaceMetrics.StartPeriodicCollection(rootCtx, statsService, statsInterval)
	}

	// HTTP handlers
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := routeHandlers{
		auth:         handler.NewAuthHandler(authService, profileService),
		property:     handler.NewPropertyHandler(propertyService),
		saved:        handler.NewSavedHandler(savedService),
		application:  handler.NewApplicationHandler(applicationService),
		conversation: handler.NewConversationHandler(messagingService,
			handler.WithStreamLogger(log.Named("stream")),
			handler.WithStreamHeartbeat(cfg.Realtime.HeartbeatInterval),
		),
		alert:   handler.NewAlertHandler(alertService),
		agent:   handler.NewAgentHandler(agentService),
		payment: handler.NewPaymentHandler(paymentService),
		escrow:  handler.NewEscrowHandler(escrowService),
		admin:   handler.NewAdminHandler(statsService, profileService),
		system:  handler.NewSystemHandler(cfg.App.Name, appVersion, checks),
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span per request
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics and profiling labels
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: providers.ServiceName(),
		Enabled:     providers.TracingEnabled(),
		SkipPaths:   []string{"/health"},
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if providers.MetricsEnabled() {
		engine.Use(middleware.HTTPMetrics(providers.Meter("rentnest/http")))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	engine.Use(middleware.Secure())
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
	}

	routes := routeMiddleware{
		requireAuth: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: authService,
			Logger:    log,
		}),
		streamAuth: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator:  authService,
			QueryParam: "access_token",
			Logger:     log,
		}),
		optionalAuth: middleware.OptionalJWTAuthMiddleware(authService),
		authLimiter:  authLimiter,
	}

	// Health check and docs live outside the API prefix
	engine.GET("/health", handlers.system.Health)
	registerSwagger(engine, cfg.Swagger, routes.requireAuth)

	r := router.NewRouter(engine)
	registerRoutes(r, handlers, routes)
	r.Setup()
	log.Info("API routes mounted", zap.String("prefix", r.Prefix()), zap.Int("routes", len(engine.Routes())))

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Ends open message streams so Shutdown does not wait on them
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func migrateUp(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (listingapp.ImageStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, image URLs point at the stub base URL")
		return storage.NewStubImageStorage(cfg.Storage.PublicBaseURL), nil
	}
	s3Storage, err := storage.NewS3ImageStorage(&cfg.Storage,
		storage.WithLogger(log.Named("storage")),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Object storage ready", zap.String("bucket", s3Storage.Bucket()))
	return s3Storage, nil
}

func newAlertNotifier(cfg *config.Config, log *zap.Logger) (alert.Notifier, *email.Mailer, error) {
	if !cfg.Email.Enabled {
		return email.NewLogNotifier(log.Named("alerts")), nil, nil
	}
	dialer, err := email.NewDialer(cfg.Email)
	if err != nil {
		return nil, nil, err
	}
	mailer := email.NewMailer(dialer, cfg.Email.From, cfg.Email.QueueSize, log.Named("mailer"))
	return email.NewAlertNotifier(mailer, cfg.App.PublicURL), mailer, nil
}
