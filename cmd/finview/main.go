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
	"golang.org/x/sync/errgroup"

	"finview/internal/amqp"
	"finview/internal/config"
	apphttp "finview/internal/http"
	"finview/internal/identity"
	"finview/internal/log"
	"finview/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	logger.Info("Starting finview", "project", cfg.ProjectName, "version", cfg.Version)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Initialize SQLite repository (runs migrations)
	repo, err := store.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize identity provider and session tokens
	provider := identity.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, nil).
		WithRedirectURL(cfg.SiteURL)
	tokens := identity.NewTokenManager(cfg.SecretKey, cfg.TokenLifetime, cfg.IsProduction())

	// Initialize AMQP client for cross-process cache invalidation (optional)
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

	// amqpClient is *amqp.Client; pass a nil interface when it is absent so
	// the server can check publisher == nil.
	var publisher apphttp.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	srv := apphttp.NewServer(cfg, repo, provider, tokens, publisher, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finview server",
			"port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeTransactionCreated(ctx, func(msg *amqp.TransactionCreatedMessage) error {
				return srv.HandleTransactionEvent(msg.UserID)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
