package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ledgerly/internal/amqp"
	"ledgerly/internal/config"
	"ledgerly/internal/core"
	"ledgerly/internal/export"
	applog "ledgerly/internal/log"
	"ledgerly/internal/services"
	"ledgerly/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	workerLogger := logger.WithComponent(applog.ComponentWorker)

	workerLogger.Info("Starting ledgerly-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		workerLogger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		workerLogger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		workerLogger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor := services.NewIngestProcessor(repo)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactions(gctx, processor.HandleTransactionMessage)
	})

	if cfg.ExportEnabled() {
		exporter, err := export.NewSheetsExporter(ctx, cfg, logger)
		if err != nil {
			workerLogger.Error("Failed to initialize Sheets exporter", applog.FieldError, err)
			os.Exit(1)
		}
		analytics := services.NewAnalyticsService(repo, repo, repo)
		workerLogger.Info("Periodic export enabled",
			applog.FieldLedgerID, cfg.ExportLedgerID,
			"interval", cfg.ExportInterval.String())

		g.Go(func() error {
			return runExportLoop(gctx, cfg, analytics, exporter, workerLogger)
		})
	} else {
		workerLogger.Info("Periodic export disabled - no GOOGLE_SPREADSHEET_ID or EXPORT_LEDGER_ID provided")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		workerLogger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	workerLogger.Info("Worker stopped gracefully")
}

// runExportLoop exports the current month's summary once at startup and
// then on every tick until the context is cancelled. Export failures are
// logged and retried on the next tick; they never stop the worker.
func runExportLoop(ctx context.Context, cfg *config.Config, analytics *services.AnalyticsService, exporter *export.SheetsExporter, logger *applog.Logger) error {
	exportOnce := func() {
		ym := core.CurrentYearMonth(time.Now().UTC())
		summary, err := analytics.SummarizeLedgerMonth(ctx, cfg.ExportLedgerID, ym)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to summarize ledger month",
				applog.FieldError, err,
				applog.FieldLedgerID, cfg.ExportLedgerID,
				applog.FieldYearMonth, ym.String())
			return
		}
		if err := exporter.ExportMonth(ctx, ym, summary); err != nil {
			logger.ErrorContext(ctx, "Failed to export monthly summary",
				applog.FieldError, err,
				applog.FieldYearMonth, ym.String())
		}
	}

	exportOnce()

	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			exportOnce()
		}
	}
}
