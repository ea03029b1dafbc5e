package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"settleline.backend/internal/config"
	"settleline.backend/internal/infrastructure/fraud"
	"settleline.backend/internal/infrastructure/jobs"
	"settleline.backend/internal/infrastructure/payoutrail"
	"settleline.backend/internal/infrastructure/repositories"
	"settleline.backend/internal/interfaces/http/handlers"
	"settleline.backend/internal/interfaces/http/middleware"
	"settleline.backend/internal/usecases"
	"settleline.backend/pkg/logger"
	"settleline.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize repositories
	orderRepo := repositories.NewOrderRepository(db)
	vendorRepo := repositories.NewVendorRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	adjustmentRepo := repositories.NewAdjustmentRepository(db)
	disputeRepo := repositories.NewDisputeRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize external clients
	railClient := payoutrail.NewClient(cfg.PayoutRail.BaseURL, cfg.PayoutRail.APIKey, cfg.PayoutRail.Timeout)
	var fraudPredicate usecases.FraudPredicate
	if cfg.Fraud.BaseURL != "" {
		fraudPredicate = fraud.NewClient(cfg.Fraud.BaseURL, cfg.Fraud.Timeout)
	} else {
		log.Println("⚠️ Fraud service not configured, relying on vendor fraud flags only")
		fraudPredicate = fraud.StaticPredicate{}
	}

	// Initialize usecases
	settlementUsecase := usecases.NewSettlementUsecase(
		orderRepo, vendorRepo, settlementRepo, adjustmentRepo, auditRepo, uow,
		fraudPredicate,
		cfg.Settlement.MaxAttempts,
		cfg.Settlement.BackoffBase,
		cfg.Settlement.BackoffMax,
		cfg.Settlement.DueDateGrace,
	)
	dispatchUsecase := usecases.NewDispatchUsecase(
		settlementUsecase, settlementRepo, vendorRepo, railClient,
		cfg.PayoutRail.Timeout, cfg.Settlement.DispatchBatchSize,
	)
	reconcileUsecase := usecases.NewReconcileUsecase(
		orderRepo, settlementRepo, adjustmentRepo, disputeRepo, auditRepo, uow,
		cfg.Settlement.ReconcileBatchSize,
	)
	feedUsecase := usecases.NewFeedUsecase(orderRepo, vendorRepo, disputeRepo)
	vendorUsecase := usecases.NewVendorUsecase(vendorRepo)

	// Initialize handlers
	settlementHandler := handlers.NewSettlementHandler(settlementUsecase)
	vendorHandler := handlers.NewVendorHandler(vendorUsecase)
	webhookHandler := handlers.NewWebhookHandler(feedUsecase, dispatchUsecase)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycleJob := jobs.NewSettlementCycleJob(settlementUsecase, vendorRepo, settlementRepo, cfg.Settlement.SchedulerInterval, cfg.Settlement.ReviewBatchSize)
	dispatchJob := jobs.NewPayoutDispatchJob(dispatchUsecase, cfg.Settlement.DispatchInterval)
	reconcileJob := jobs.NewDisputeReconcileJob(reconcileUsecase, cfg.Settlement.SchedulerInterval)
	go cycleJob.Start(ctx)
	go dispatchJob.Start(ctx)
	go reconcileJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		settlementHandler: settlementHandler,
		vendorHandler:     vendorHandler,
		webhookHandler:    webhookHandler,
		actorMiddleware:   middleware.ActorMiddleware(),
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		cycleJob.Stop()
		dispatchJob.Stop()
		reconcileJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 Settleline Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
