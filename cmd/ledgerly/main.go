package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerly/internal/amqp"
	"ledgerly/internal/config"
	apphttp "ledgerly/internal/http"
	applog "ledgerly/internal/log"
	"ledgerly/internal/services"
	"ledgerly/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	appLogger := logger.WithComponent(applog.ComponentApp)

	appLogger.Info("Starting ledgerly")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	analytics := services.NewAnalyticsService(repo, repo, repo)
	budgets := services.NewBudgetService(repo, repo, repo)
	txs := services.NewTransactionService(repo, repo)
	recurring := services.NewRecurringService(repo, repo)

	// AMQP is optional: without it the integration endpoint responds 503
	// and everything else still works.
	var publisher apphttp.Publisher
	if cfg.AMQPURL != "" && cfg.IngestAPIKey != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			appLogger.Warn("AMQP unavailable, integration ingest disabled", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			appLogger.Info("AMQP publisher initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Analytics: analytics,
		Budgets:   budgets,
		Txs:       txs,
		Recurring: recurring,
		Publisher: publisher,
		APIKey:    cfg.IngestAPIKey,
		Storage:   repo,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	appLogger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLogger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	appLogger.Info("Server stopped gracefully")
}
