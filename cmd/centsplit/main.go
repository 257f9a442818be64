package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"centsplit/internal/amqp"
	"centsplit/internal/config"
	apphttp "centsplit/internal/http"
	applog "centsplit/internal/log"
	"centsplit/internal/report"
	"centsplit/internal/services"
	"centsplit/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(slog.LevelInfo, "api")
	applog.SetDefault(logger)

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

	// The API keeps working without AMQP; categorization then relies on the
	// worker's backup scan instead of sync messages.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync publishing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	var writer report.Writer
	if cfg.ReportSpreadsheetID != "" {
		sheetsWriter, err := report.NewSheetsWriter(context.Background(), cfg.ReportSpreadsheetID, cfg.ReportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets writer", "error", err)
			os.Exit(1)
		}
		writer = sheetsWriter
		logger.Info("Report export enabled", "spreadsheet_id", cfg.ReportSpreadsheetID)
	} else {
		logger.Info("Report export disabled - no REPORT_SPREADSHEET_ID provided")
	}

	txService := services.NewTransactionService(repo, amqpClient)
	budget := services.NewBudgetService(repo, writer)
	srv := apphttp.NewServer(":"+cfg.Port, repo, txService, budget)

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

	logger.Info("Starting centsplit server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
