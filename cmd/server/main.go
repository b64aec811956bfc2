package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/verone/backoffice/docs"
	appfinance "github.com/verone/backoffice/internal/application/finance"
	appinventory "github.com/verone/backoffice/internal/application/inventory"
	apptrade "github.com/verone/backoffice/internal/application/trade"
	"github.com/verone/backoffice/internal/infrastructure/auth"
	"github.com/verone/backoffice/internal/infrastructure/cache"
	"github.com/verone/backoffice/internal/infrastructure/config"
	"github.com/verone/backoffice/internal/infrastructure/event"
	"github.com/verone/backoffice/internal/infrastructure/invoicing"
	"github.com/verone/backoffice/internal/infrastructure/logger"
	"github.com/verone/backoffice/internal/infrastructure/migration"
	"github.com/verone/backoffice/internal/infrastructure/persistence"
	"github.com/verone/backoffice/internal/infrastructure/storage"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"github.com/verone/backoffice/internal/interfaces/http/handler"
	"github.com/verone/backoffice/internal/interfaces/http/middleware"
	"github.com/verone/backoffice/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Verone Back-Office API
//	@version		1.0
//	@description	Sales orders, purchase receptions, stock ledger and invoicing.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	logLevel, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal("Invalid log level", zap.Error(err))
	}
	providers, err := telemetry.Setup(ctx,
		telemetry.Config{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       serviceName,
			ServiceVersion:    version,
			Insecure:          cfg.Telemetry.Insecure,
		},
		telemetry.MetricsConfig{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ExportInterval:    cfg.Telemetry.MetricsInterval,
			ServiceName:       serviceName,
			Insecure:          cfg.Telemetry.Insecure,
		},
		telemetry.LogsConfig{
			Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       serviceName,
			Insecure:          cfg.Telemetry.Insecure,
			Level:             logLevel,
		},
		log,
	)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logs.IsEnabled() {
		log = providers.Logs.Bridge(log)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: serviceName,
		ProfileTypes:    cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() { _ = profiler.Stop() }()
	if cfg.Telemetry.ProfilingEnabled {
		providers.Tracer.EnableSpanProfiles()
	}

	log.Info("Starting back-office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.HTTP.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		tracing.DBName = cfg.Database.DBName
		tracing.SlowQueryThresh = cfg.Database.SlowQueryThreshold
		if err := telemetry.InstrumentGORM(db.DB, tracing, log); err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		err = db.AutoMigrate()
	} else {
		sqlDB, dbErr := db.DB.DB()
		if dbErr != nil {
			log.Fatal("Failed to get sql.DB", zap.Error(dbErr))
		}
		err = migration.Run(sqlDB, log)
	}
	if err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready")

	coordination, err := cache.NewCoordination(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = coordination.Close() }()

	var provider appfinance.InvoiceProvider = invoicing.DisabledClient{}
	if cfg.Qonto.Enabled {
		client, err := invoicing.NewClient(invoicing.QontoConfig{
			BaseURL:        cfg.Qonto.BaseURL,
			AuthMode:       invoicing.AuthMode(cfg.Qonto.AuthMode),
			OrganizationID: cfg.Qonto.OrganizationID,
			APIKey:         cfg.Qonto.APIKey,
			AccessToken:    cfg.Qonto.AccessToken,
			Timeout:        cfg.Qonto.Timeout,
			MaxRetries:     cfg.Qonto.MaxRetries,
		}, log)
		if err != nil {
			log.Fatal("Failed to configure Qonto", zap.Error(err))
		}
		provider = client
	} else {
		log.Warn("Qonto disabled, invoicing endpoints will fail with PROVIDER_DISABLED")
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  providers.Meter.Meter("backoffice"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	txScope := persistence.NewGormTransactionScope(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	stockMovementRepo := persistence.NewGormStockMovementRepository(db.DB)
	documentRepo := persistence.NewGormFinancialDocumentRepository(db.DB)

	salesOrderService := apptrade.NewSalesOrderService(salesOrderRepo, txScope, log)
	salesOrderService.SetEventPublisher(eventBus)
	salesOrderService.SetBusinessMetrics(businessMetrics)

	receptionService := apptrade.NewReceptionService(purchaseOrderRepo, stockMovementRepo, txScope, log)
	receptionService.SetIdempotencyStore(coordination.Idempotency, cfg.Idempotency.TTL)
	receptionService.SetEventPublisher(eventBus)
	receptionService.SetBusinessMetrics(businessMetrics)

	ledgerService := appinventory.NewLedgerService(stockMovementRepo, txScope, log)
	ledgerService.SetEventPublisher(eventBus)
	ledgerService.SetBusinessMetrics(businessMetrics)

	invoicingService := appfinance.NewInvoicingService(salesOrderRepo, documentRepo, txScope, provider, log)
	invoicingService.SetLocker(coordination.Locker, cfg.Redis.LockTTL)
	invoicingService.SetIdempotencyStore(coordination.Idempotency, cfg.Idempotency.TTL)
	invoicingService.SetEventPublisher(eventBus)
	invoicingService.SetBusinessMetrics(businessMetrics)
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to configure invoice archive", zap.Error(err))
		}
		invoicingService.SetArchive(archive)
	}

	syncService := appfinance.NewDocumentSyncService(txScope, log)
	syncService.SetEventPublisher(eventBus)
	syncService.SetBusinessMetrics(businessMetrics)

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to setup validator", zap.Error(err))
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	health := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": handler.PingerFunc(func(context.Context) error { return db.Ping() }),
		"redis":    handler.PingerFunc(coordination.Ping),
	})
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    serviceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          providers.Meter.Meter("backoffice/http"),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		SwaggerEnabled: cfg.HTTP.SwaggerEnabled && !cfg.App.IsProduction(),
	}, log, auth.NewJWTService(cfg.JWT), router.Handlers{
		SalesOrders:        handler.NewSalesOrderHandler(salesOrderService, invoicingService),
		PurchaseOrders:     handler.NewPurchaseOrderHandler(receptionService),
		Stock:              handler.NewStockHandler(ledgerService),
		FinancialDocuments: handler.NewFinancialDocumentHandler(invoicingService, syncService),
	}, health)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
}
