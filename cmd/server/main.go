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

	"github.com/zichdan/paycore/internal/config"
	"github.com/zichdan/paycore/internal/infrastructure/jobs"
	"github.com/zichdan/paycore/internal/infrastructure/providers"
	"github.com/zichdan/paycore/internal/infrastructure/repositories"
	"github.com/zichdan/paycore/internal/interfaces/http/handlers"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/usecases"
	"github.com/zichdan/paycore/pkg/jwt"
	"github.com/zichdan/paycore/pkg/logger"
	"github.com/zichdan/paycore/pkg/redis"
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

	// Initialize JWT service
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
		cfg.JWT.TrustExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	currencyRepo := repositories.NewCurrencyRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)
	loanProductRepo := repositories.NewLoanProductRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	creditScoreRepo := repositories.NewCreditScoreRepository(db)
	investProductRepo := repositories.NewInvestmentProductRepository(db)
	investRepo := repositories.NewInvestmentRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	billRepo := repositories.NewBillRepository(db)
	merchantRepo := repositories.NewMerchantRepository(db)
	kycRepo := repositories.NewKYCRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize provider factory
	factory := providers.NewFactory(cfg.Providers)

	// Initialize usecases
	notifier := usecases.NewNotificationUsecase(notificationRepo, nil, nil)
	ledger := usecases.NewLedgerUsecase(walletRepo, currencyRepo, uow)
	txns := usecases.NewTransactionUsecase(txnRepo, walletRepo, ledger, uow, cfg.App.ReversalWindow)
	compliance := usecases.NewComplianceUsecase(kycRepo, ledger, notifier, nil, nil, cfg.App.LocalCurrencyCode)
	transfers := usecases.NewTransferUsecase(walletRepo, currencyRepo, userRepo, txnRepo, ledger, txns, notifier, compliance, jwtService, uow)
	creditScores := usecases.NewCreditScoreUsecase(creditScoreRepo, loanRepo, userRepo)
	loans := usecases.NewLoanUsecase(loanRepo, loanProductRepo, walletRepo, currencyRepo, userRepo, txnRepo, ledger, txns, creditScores, notifier, uow)
	investments := usecases.NewInvestmentUsecase(investRepo, investProductRepo, walletRepo, currencyRepo, ledger, txns, notifier, uow)
	cards := usecases.NewCardUsecase(cardRepo, walletRepo, currencyRepo, userRepo, txnRepo, ledger, txns, notifier, factory, uow)
	bills := usecases.NewBillUsecase(billRepo, walletRepo, currencyRepo, ledger, txns, notifier, factory, uow)
	merchants := usecases.NewMerchantUsecase(merchantRepo, walletRepo, currencyRepo, ledger, txns, notifier, uow)
	withdrawals := usecases.NewWithdrawalUsecase(walletRepo, currencyRepo, txnRepo, ledger, txns, compliance, factory, uow)

	// Initialize handlers
	walletHandler := handlers.NewWalletHandler(ledger, transfers)
	txnHandler := handlers.NewTransactionHandler(txns)
	loanHandler := handlers.NewLoanHandler(loans, creditScores)
	investmentHandler := handlers.NewInvestmentHandler(investments)
	cardHandler := handlers.NewCardHandler(cards)
	billHandler := handlers.NewBillHandler(bills)
	merchantHandler := handlers.NewMerchantHandler(merchants)
	notificationHandler := handlers.NewNotificationHandler(notifier)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawals)
	kycHandler := handlers.NewKYCHandler(compliance)
	currencyHandler := handlers.NewCurrencyHandler(currencyRepo)

	authMiddleware := middleware.AuthMiddleware(jwtService)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	overdueJob := jobs.NewLoanOverdueJob(loans)
	payoutJob := jobs.NewInvestmentPayoutJob(investments)
	maturityJob := jobs.NewInvestmentMaturityJob(investments)
	txnExpiryJob := jobs.NewStaleExpiryJob("transaction", txns)
	linkExpiryJob := jobs.NewStaleExpiryJob("payment link", jobs.SweeperFunc(merchants.ExpireLinks))
	go overdueJob.Start(ctx)
	go payoutJob.Start(ctx)
	go maturityJob.Start(ctx)
	go txnExpiryJob.Start(ctx)
	go linkExpiryJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		walletHandler:       walletHandler,
		txnHandler:          txnHandler,
		loanHandler:         loanHandler,
		investmentHandler:   investmentHandler,
		cardHandler:         cardHandler,
		billHandler:         billHandler,
		merchantHandler:     merchantHandler,
		notificationHandler: notificationHandler,
		withdrawalHandler:   withdrawalHandler,
		kycHandler:          kycHandler,
		currencyHandler:     currencyHandler,
		authMiddleware:      authMiddleware,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		overdueJob.Stop()
		payoutJob.Stop()
		maturityJob.Stop()
		txnExpiryJob.Stop()
		linkExpiryJob.Stop()
		cancel()
		notifier.Wait()
	}()

	// Start server
	log.Printf("🚀 PayCore starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
