package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenahq/arena/cache"
	"github.com/arenahq/arena/config"
	"github.com/arenahq/arena/db"
	"github.com/arenahq/arena/handlers"
	"github.com/arenahq/arena/payments"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/rooms"
	api "github.com/arenahq/arena/routes"
	"github.com/arenahq/arena/services"
	"github.com/arenahq/arena/storage"
	_ "github.com/lib/pq"
)

const (
	statusSchedulerInterval = 30 * time.Second
	reconcilerInterval      = 5 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var appCache *cache.Cache
	if cfg.RedisAddr != "" {
		appCache, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer appCache.Close()
		logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, running without cache")
	}

	uploader, err := storage.NewR2Uploader(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("R2 uploader initialized")

	gateway := payments.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentAppID, cfg.PaymentSecret)

	hub := rooms.NewHub(logger)
	go hub.Run()
	logger.Info("waiting room hub started")

	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	paymentOrderRepo := repositories.NewPostgresPaymentOrderRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, participantRepo, uploader, appCache, hub, logger)
	enrollmentService := services.NewEnrollmentService(txRunner, participantRepo, tournamentRepo, userRepo, transactionRepo, appCache, hub, logger)
	myTournamentsService := services.NewMyTournamentsService(participantRepo, tournamentRepo, appCache, logger)
	walletService := services.NewWalletService(txRunner, userRepo, transactionRepo, paymentOrderRepo, gateway, logger)
	logger.Info("services initialized")

	// Flip upcoming tournaments to live once their start time passes.
	go func() {
		ticker := time.NewTicker(statusSchedulerInterval)
		defer ticker.Stop()
		logger.Info("status scheduler started", slog.Duration("interval", statusSchedulerInterval))
		for {
			if err := tournamentService.AdvanceStatuses(context.Background(), time.Now()); err != nil {
				logger.Error("status scheduler run failed", slog.Any("error", err))
			}
			<-ticker.C
		}
	}()

	// Repair current_players drift left behind by swallowed best-effort
	// counter updates.
	go func() {
		ticker := time.NewTicker(reconcilerInterval)
		defer ticker.Stop()
		logger.Info("player count reconciler started", slog.Duration("interval", reconcilerInterval))
		for range ticker.C {
			if err := tournamentService.ReconcilePlayerCounts(context.Background()); err != nil {
				logger.Error("reconciler run failed", slog.Any("error", err))
			}
		}
	}()

	router := api.InitRoutes(api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Enrollment: handlers.NewEnrollmentHandler(enrollmentService, myTournamentsService),
		Wallet:     handlers.NewWalletHandler(walletService),
		User:       handlers.NewUserHandler(userService),
		Room:       handlers.NewRoomHandler(hub, participantRepo, logger),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
