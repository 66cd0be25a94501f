package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finview/internal/amqp"
	"finview/internal/config"
	"finview/internal/log"
	"finview/internal/store"
	"finview/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Initialize SQLite repository
	repo, err := store.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP client so web processes can drop stale dashboard
	// caches when a recurring transaction materializes (optional)
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing",
				log.FieldError, err.Error())
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - transaction events will not be published")
	}

	var publisher worker.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	processor := worker.NewRecurringProcessor(repo, repo, publisher, logger)

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval, "sqlite_db", cfg.SQLiteDBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := processor.Run(ctx, cfg.RecurringInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Recurring processing failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Recurring-worker shutdown complete")
}
