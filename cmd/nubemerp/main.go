package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/NUbem000/NubemERP/internal/app"
	"github.com/NUbem000/NubemERP/internal/auth"
	"github.com/NUbem000/NubemERP/internal/invoicing"
	"github.com/NUbem000/NubemERP/internal/modules"
	"github.com/NUbem000/NubemERP/internal/observability"
	"github.com/NUbem000/NubemERP/internal/platform/cache"
	"github.com/NUbem000/NubemERP/internal/platform/db"
	"github.com/NUbem000/NubemERP/internal/users"
	"github.com/NUbem000/NubemERP/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(jobsClient, logger, metrics, cfg.AppBaseURL, cfg.Locale, cfg.Currency)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	tokenStore := auth.NewTokenStore(redisClient)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenManager, tokenStore, notifier, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	modulesRepo := modules.NewRepository(pool)
	modulesCache := modules.NewCache(redisClient, 10*time.Minute)
	modulesService := modules.NewService(modulesRepo, modulesCache)
	modulesHandler := modules.NewHandler(logger, modulesService, usersService)

	invoicesRepo := invoicing.NewRepository(pool)
	sequences := invoicing.NewPGSequenceProvider(pool)
	invoicesService := invoicing.NewService(invoicesRepo, sequences, notifier, metrics)
	invoicesHandler := invoicing.NewHandler(logger, invoicesService, cfg.InvoiceSeries)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		TokenManager:    tokenManager,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		ModulesHandler:  modulesHandler,
		InvoicesHandler: invoicesHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
