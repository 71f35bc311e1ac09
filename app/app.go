package app

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"webbank/config"
	"webbank/db"
	"webbank/handler"
	"webbank/logger"
	"webbank/repository"
	"webbank/router"
	"webbank/service"

	"github.com/redis/go-redis/v9"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	r := buildRouter(database, redisClient)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// buildRouter wires every layer together. The transaction capability is
// decided exactly once here: the config flag can force the lock-based
// fallback, and a startup probe downgrades automatically when the store
// cannot open a transaction scope.
func buildRouter(database *sql.DB, redisClient *redis.Client) http.Handler {
	useTx := config.AppConfig.Database.Transactions && repository.DetectTransactionSupport(database)
	atomic := repository.NewAtomic(database, useTx)

	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	userRepo := repository.NewUserRepository(database)

	userService := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userService)

	generator := service.NewIBANGenerator(nil)
	accountService := service.NewAccountService(accountRepo, userRepo, generator, redisClient)
	accountHandler := handler.NewAccountHandler(accountService)

	resolver := service.NewRecipientResolver(accountRepo, userRepo)
	transferService := service.NewTransferService(atomic, accountRepo, transactionRepo, userRepo, resolver)
	transferHandler := handler.NewTransferHandler(transferService)

	rateProvider := service.NewCachedRateProvider(
		service.NewHTTPRateProvider(config.AppConfig.Rates.URL),
		redisClient,
		time.Duration(config.AppConfig.Rates.CacheTTLMinutes)*time.Minute,
	)
	balanceService := service.NewBalanceService(accountRepo, rateProvider)
	balanceHandler := handler.NewBalanceHandler(balanceService)

	return router.NewRouter(userHandler, accountHandler, transferHandler, balanceHandler)
}

// TestApp exposes the wired router and raw connections for integration tests.
type TestApp struct {
	DB     *sql.DB
	Router http.Handler
}

func NewTestApp(database *sql.DB, redisClient *redis.Client) *TestApp {
	return &TestApp{
		DB:     database,
		Router: buildRouter(database, redisClient),
	}
}
