package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Raajp10/ai-expense-tracker/internal/amqp"
	"github.com/Raajp10/ai-expense-tracker/internal/cache"
	"github.com/Raajp10/ai-expense-tracker/internal/config"
	apphttp "github.com/Raajp10/ai-expense-tracker/internal/http"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/anomaly"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/features"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/query"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/segment"
	"github.com/Raajp10/ai-expense-tracker/internal/llm/ollama"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/services"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

const cacheCleanupInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())

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

	// AMQP is optional: without a broker the API still serves, summary
	// rebuilds just happen synchronously on read.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, summary rebuild events disabled", "error", err)
			amqpClient = nil
		}
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	var llm query.Chatter
	if cfg.OllamaURL != "" {
		llm = ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		}, logger)
		logger.Info("Ollama client initialized", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
	} else {
		logger.Info("Ollama disabled - free-text questions use rule-based answers")
	}

	builder := features.NewBuilder(repo)
	detector := anomaly.NewDetector(repo)

	var clusterer segment.Clusterer
	if cfg.ClusteringEnabled {
		switch cfg.ClusterAlgorithm {
		case "gmm":
			clusterer = segment.NewGMM()
		default:
			clusterer = segment.NewKMeans()
		}
		logger.Info("Global clustering enabled", "algorithm", cfg.ClusterAlgorithm, "clusters", cfg.ClusterCount)
	} else {
		logger.Info("Global clustering disabled - segments use rules only")
	}
	segmenter := segment.NewSegmenter(repo, builder, clusterer, cfg.ClusterCount)

	router := query.NewRouter(repo, builder, detector, llm, cfg.ZThreshold, logger)
	service := services.NewTransactionService(repo, amqpClient, logger)

	caches := cache.NewManager(logger)
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:      repo,
		Service:    service,
		Detector:   detector,
		Builder:    builder,
		Segmenter:  segmenter,
		Router:     router,
		ZThreshold: cfg.ZThreshold,
		Caches:     caches,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting insight server", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
