package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clubdash/internal/amqp"
	"clubdash/internal/assistant"
	"clubdash/internal/cli"
	"clubdash/internal/ledgerapi"
	applog "clubdash/internal/log"
	"clubdash/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting ledgerd")

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	store, stopCache := cli.InitCache(initCtx, logger, cfg)
	defer stopCache()

	// Inline applies run when AMQP is off or a publish fails.
	applier := worker.NewApplyWorker(repo, nil, store, cfg.ApplyBatchSize)

	var (
		publisher  ledgerapi.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, applying transactions inline", applog.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			defer amqpClient.Close()
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - transactions are applied inline")
	}

	var model assistant.Model
	if cfg.AssistantEnabled() {
		gm, err := assistant.NewGeminiModel(initCtx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize Gemini, chat falls back to canned replies", applog.FieldError, err)
		} else {
			model = gm
			logger.Info("Chat assistant enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("No GOOGLE_API_KEY - chat uses canned replies")
	}

	api := ledgerapi.New(repo, ledgerapi.Options{
		Cache:       store,
		Publisher:   publisher,
		Applier:     applier,
		Assistant:   assistant.New(model),
		ModelName:   cfg.GeminiModel,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.LedgerPort,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Ledger API listening", "port", cfg.LedgerPort, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.LedgerPort)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("ledgerd stopped gracefully")
}
