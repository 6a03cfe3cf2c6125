package main

import (
	"context"
	"errors"
	"os"
	"time"

	"clubdash/internal/amqp"
	"clubdash/internal/cache"
	"clubdash/internal/cli"
	applog "clubdash/internal/log"
	"clubdash/internal/sheets"
	gsheet "clubdash/internal/sheets/google"
	"clubdash/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting ledger-worker")

	// Shares the ledger database with ledgerd.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	// Mirror applied transactions to Google Sheets (optional)
	var mirror sheets.TransactionWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Only a shared Redis cache can be invalidated from this process.
	var invalidator worker.Invalidator
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL, "clubdash:", cfg.CacheTTL)
		if err != nil {
			logger.Warn("Redis unavailable, cached ledger responses expire by TTL only", applog.FieldError, err)
		} else {
			invalidator = store
			defer store.Close()
		}
	}

	applyWorker := worker.NewApplyWorker(repo, mirror, invalidator, cfg.ApplyBatchSize)

	// Process any settled transactions that might have been missed
	logger.Info("Performing startup apply check...")
	if err := applyWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup apply check", applog.FieldError, err)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeTransactionCreated(ctx, applyWorker.HandleTransactionCreated)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
				os.Exit(1)
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic apply sweeps")
	}

	if cfg.ApplyInterval > 0 {
		go sweep(ctx, logger, applyWorker, cfg.ApplyInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("ledger-worker stopped")
}

// sweep reruns the startup check so transactions whose messages were lost
// are still applied.
func sweep(ctx context.Context, logger *applog.Logger, w *worker.ApplyWorker, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.StartupCheck(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Periodic apply sweep failed", applog.FieldError, err)
			}
		}
	}
}
