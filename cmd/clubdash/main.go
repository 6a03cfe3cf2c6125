package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"clubdash/internal/chat"
	"clubdash/internal/cli"
	apphttp "clubdash/internal/http"
	"clubdash/internal/ledger"
	applog "clubdash/internal/log"
)

func main() {
	localChat := flag.Bool("local-chat", false, "answer chat with canned replies instead of the ledger assistant")
	flag.Parse()

	cfg, logger := cli.Bootstrap()

	ledgerClient := ledger.NewClient(cfg.LedgerBaseURL, &http.Client{Timeout: 15 * time.Second})

	var remote chat.Chatter = ledgerClient
	if *localChat {
		remote = nil
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledgerClient, apphttp.Options{
		DefaultUnitID: cfg.DefaultUnitID,
		Chat:          remote,
		Logger:        logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 45 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting clubdash server",
		"port", cfg.Port,
		"ledger", cfg.LedgerBaseURL,
		applog.FieldUnitID, cfg.DefaultUnitID,
		"local_chat", *localChat)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
