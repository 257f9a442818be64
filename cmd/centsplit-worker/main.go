package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"centsplit/internal/amqp"
	"centsplit/internal/config"
	applog "centsplit/internal/log"
	"centsplit/internal/provider"
	"centsplit/internal/provider/bank"
	"centsplit/internal/services"
	"centsplit/internal/storage"
	"centsplit/internal/worker"
)

// pendingInterval controls the backup scan that catches transactions whose
// sync message was lost.
const pendingInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(slog.LevelInfo, "worker")
	applog.SetDefault(logger)

	logger.Info("Starting centsplit-worker")

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var source provider.TransactionSource
	if cfg.ProviderBaseURL != "" {
		source = bank.NewClient(cfg.ProviderBaseURL, cfg.ProviderToken)
		logger.Info("Provider ingest enabled", "base_url", cfg.ProviderBaseURL)
	} else {
		logger.Info("Provider ingest disabled - no PROVIDER_BASE_URL provided")
	}

	processor := services.NewCategorizeProcessor(repo)
	txService := services.NewTransactionService(repo, amqpClient)
	w := worker.New(repo, processor, txService, source,
		cfg.SyncBatchSize, cfg.ProviderPageSize, cfg.IngestMaxPages)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Recover anything missed while the worker was down, then pull new
	// transactions before the first ticker fires.
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup check failed", "error", err)
	}
	if err := w.IngestOnce(ctx); err != nil {
		logger.Error("Initial ingest failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeTransactionSync(gctx, func(msg *amqp.TransactionSyncMessage) error {
			return w.HandleSyncMessage(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.IngestInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.IngestOnce(gctx); err != nil {
					logger.Error("Periodic ingest failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(pendingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(gctx); err != nil {
					logger.Error("Backup scan failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
