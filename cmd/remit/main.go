package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"afripay/internal/balance"
	"afripay/internal/handler"
	"afripay/internal/kyc"
	"afripay/internal/ledger"
	"afripay/internal/middleware"
	"afripay/internal/partner"
	"afripay/internal/rates"
	"afripay/internal/repository/postgres"
	"afripay/internal/risk"
	"afripay/internal/transfer"
	"afripay/pkg/config"
	"afripay/pkg/logger"
	"afripay/pkg/validator"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("remit-service")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting Remittance Service", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	// Ledger storage: Postgres when configured, in-memory otherwise.
	var db *sqlx.DB
	var ledgerRepo ledger.Repository
	if cfg.Database.URL != "" {
		var err error
		db, err = sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal("Failed to connect to database", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		ledgerRepo = postgres.NewTransactionRepository(db)
		log.Info("Database connected", nil)
	} else {
		ledgerRepo = ledger.NewMemoryRepository()
		log.Warn("DATABASE_URL not set, using in-memory ledger", nil)
	}

	// Redis backs rate limiting, idempotency, and token revocation.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	log.Info("Redis connected", nil)

	// Payout partner session
	partnerClient := partner.NewClient(cfg.Partner, log)
	loginCtx, cancelLogin := context.WithTimeout(context.Background(), cfg.Partner.Timeout)
	if err := partnerClient.Login(loginCtx, cfg.Partner.Email, cfg.Partner.Password); err != nil {
		cancelLogin()
		log.Fatal("Partner login failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cancelLogin()
	log.Info("Partner session established", nil)

	// Services
	val := validator.New()
	rateEngine := rates.NewEngine(rates.NewTable())
	assessor := risk.NewAssessor(cfg.Risk)
	kycService := kyc.NewService(kyc.NewMemoryStore(), assessor, val, cfg.KYC, log)
	balanceGuard := balance.NewGuard(partnerClient, log)
	ledgerService := ledger.NewService(ledgerRepo, log)
	transferService := transfer.NewService(rateEngine, ledgerService, kycService, balanceGuard, partnerClient, log)

	// Handlers
	quoteHandler := handler.NewQuoteHandler(rateEngine, val, log)
	kycHandler := handler.NewKYCHandler(kycService, val, log)
	transferHandler := handler.NewTransferHandler(transferService, val, log)
	financeHandler := handler.NewFinanceHandler(partnerClient, val, log)
	systemHandler := handler.NewSystemHandler(db, redisClient, log)

	// Router
	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB global cap
	r.Use(middleware.NewRateLimiter(redisClient, 150, time.Minute).Limit)

	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ready", systemHandler.Ready).Methods("GET")

	blacklist := middleware.NewRedisTokenBlacklist(redisClient)
	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)
	idemMW := middleware.NewIdempotencyMiddleware(redisClient, 24*time.Hour)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW.Authenticate)
	api.Use(middleware.NewRateLimiter(redisClient, 60, time.Minute).Limit)

	authHandler := handler.NewAuthHandler(blacklist, log)

	api.HandleFunc("/quotes", quoteHandler.CreateQuote).Methods("POST")
	api.HandleFunc("/kyc", kycHandler.SubmitVerification).Methods("POST")
	api.HandleFunc("/kyc/{id}", kycHandler.GetVerification).Methods("GET")
	api.HandleFunc("/cashin", financeHandler.CashIn).Methods("POST")
	api.HandleFunc("/balances", financeHandler.GetBalances).Methods("GET")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	transfers := api.PathPrefix("/transfers").Subrouter()
	transfers.Use(idemMW.Require)
	transfers.HandleFunc("", transferHandler.SubmitTransfer).Methods("POST")
	transfers.HandleFunc("", transferHandler.ListTransfers).Methods("GET")
	// Register the reference route ahead of the id route so "reference" is not
	// parsed as a transaction ID.
	transfers.HandleFunc("/reference/{reference}", transferHandler.GetTransferByReference).Methods("GET")
	transfers.HandleFunc("/{id}", transferHandler.GetTransfer).Methods("GET")
	transfers.HandleFunc("/{id}/confirm", transferHandler.ConfirmTransfer).Methods("POST")

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Remittance Service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Remittance Service...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Remittance Service forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Remittance Service stopped gracefully", nil)
}
