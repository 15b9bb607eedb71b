package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel())

	logger.Info("Starting fintrack", "backend", cfg.DataBackend, "auth", cfg.AuthMode, "currency", cfg.Currency)

	ctx := context.Background()
	backendResult := cli.InitBackend(ctx, logger, cfg)

	sessions, err := cli.NewSessionManager(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize authentication", log.FieldError, err)
		_ = backendResult.Cleanup()
		os.Exit(1)
	}

	var publisher services.EventPublisher
	if client := cli.ConnectAMQP(logger, cfg); client != nil {
		publisher = client
	}

	ledger := services.NewLedgerService(backendResult.Repository, publisher)
	budgets := services.NewBudgetService(backendResult.Repository)
	notifier := auth.NewNotifier()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               net.JoinHostPort("", cfg.Port),
		Currency:           cfg.Currency,
		SessionTTL:         cfg.SessionTTL,
		CategoryCacheTTL:   cfg.CategoryCacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Ready:              backendResult.Ping,
	}, ledger, budgets, sessions, notifier)

	shutdownCtx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", log.FieldError, err)
		}
		// Closes the repository and the AMQP connection.
		if err := ledger.Close(); err != nil {
			logger.Error("Service cleanup error", log.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}
