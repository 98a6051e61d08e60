package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Raajp10/ai-expense-tracker/internal/amqp"
	"github.com/Raajp10/ai-expense-tracker/internal/config"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
	"github.com/Raajp10/ai-expense-tracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	logger.Info("Starting summary worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The worker exists to consume rebuild messages, so the broker is required here.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	summaryWorker := worker.NewSummaryWorker(repo, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Catch up on summaries that changed while the worker was down.
	logger.Info("Performing startup reconcile...")
	if err := summaryWorker.StartupReconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
		// Don't exit - continue with normal consumption
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeSummaryRebuilds(ctx, func(msg *amqp.SummaryRebuildMessage) error {
			return summaryWorker.HandleRebuild(ctx, msg)
		})
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		// Give the in-flight rebuild a moment to finish before closing.
		select {
		case <-consumeErr:
		case <-time.After(5 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("Worker shutdown complete")
}
