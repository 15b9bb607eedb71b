package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel()).WithComponent(log.ComponentWorker)

	logger.Info("Starting fintrack-worker", "backend", cfg.DataBackend)

	ctx := context.Background()
	backendResult := cli.InitBackend(ctx, logger, cfg)

	// The worker has nothing to do without events, so AMQP is mandatory here.
	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("AMQP is required by the worker")
		_ = backendResult.Cleanup()
		os.Exit(1)
	}

	var exporter sheets.TransactionExporter
	if cfg.SheetsExportEnabled() {
		client, err := gsheet.NewClient(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			_ = amqpClient.Close()
			_ = backendResult.Cleanup()
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	alerts := worker.NewAlertWorker(backendResult.Repository, exporter, logger)

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		err := amqpClient.ConsumeTransactionEvents(consumeCtx, alerts.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", log.FieldError, err)
		}
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopConsuming()
		select {
		case <-consumed:
		case <-ctx.Done():
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Storage cleanup error", log.FieldError, err)
		}
	})

	cli.WaitForShutdown(shutdownCtx, done)
}
