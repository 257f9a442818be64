// Package worker runs the background side of the service: provider ingest
// and transaction categorization.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"centsplit/internal/amqp"
	"centsplit/internal/metrics"
	"centsplit/internal/provider"
	"centsplit/internal/services"
	"centsplit/internal/storage"
)

// Worker consumes sync messages and periodically ingests new provider
// transactions. The pending scan is a backup mechanism in case AMQP
// messages are lost.
type Worker struct {
	storage   *storage.SQLiteRepository
	processor *services.CategorizeProcessor
	txService *services.TransactionService
	source    provider.TransactionSource
	batchSize int
	pageSize  int
	maxPages  int
}

func New(
	storage *storage.SQLiteRepository,
	processor *services.CategorizeProcessor,
	txService *services.TransactionService,
	source provider.TransactionSource,
	batchSize, pageSize, maxPages int,
) *Worker {
	return &Worker{
		storage:   storage,
		processor: processor,
		txService: txService,
		source:    source,
		batchSize: batchSize,
		pageSize:  pageSize,
		maxPages:  maxPages,
	}
}

// HandleSyncMessage categorizes the transaction named by one AMQP message.
func (w *Worker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"transaction_id", msg.TransactionID,
		"version", msg.Version)

	if err := w.processor.CategorizeTransaction(ctx, msg.TransactionID); err != nil {
		return fmt.Errorf("categorize transaction: %w", err)
	}
	return nil
}

// ProcessPending categorizes transactions that never got a category.
func (w *Worker) ProcessPending(ctx context.Context) error {
	processed, err := w.processor.CategorizePending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("process pending: %w", err)
	}
	if processed > 0 {
		slog.InfoContext(ctx, "Backup scan categorized transactions", "count", processed)
	}
	return nil
}

// StartupCheck runs a larger pending pass once at worker startup to recover
// from missed messages or downtime.
func (w *Worker) StartupCheck(ctx context.Context) error {
	processed, err := w.processor.CategorizePending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	slog.InfoContext(ctx, "Startup check completed", "categorized", processed)
	return nil
}

// IngestOnce pulls new provider transactions from the saved cursor forward,
// bounded to maxPages per run. The cursor is persisted after each page so an
// interrupted run resumes instead of re-reading.
func (w *Worker) IngestOnce(ctx context.Context) error {
	if w.source == nil {
		slog.DebugContext(ctx, "No provider source configured, skipping ingest")
		return nil
	}

	cursor, err := w.storage.GetIngestCursor(ctx)
	if err != nil {
		return fmt.Errorf("load ingest cursor: %w", err)
	}

	ingested := 0
	for page := 0; page < w.maxPages; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := w.source.ListTransactions(ctx, cursor, w.pageSize)
		if err != nil {
			metrics.IngestErrors.Inc()
			return fmt.Errorf("list provider transactions: %w", err)
		}

		for _, pt := range result.Transactions {
			if err := w.txService.IngestTransaction(ctx, pt); err != nil {
				slog.ErrorContext(ctx, "Failed to ingest transaction",
					"transaction_id", pt.ID, "error", err)
				continue
			}
			ingested++
		}

		// Keep the last known cursor when the provider reports no further
		// pages; the next run re-polls from there and the upsert absorbs
		// the overlap.
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
		if err := w.storage.SetIngestCursor(ctx, cursor); err != nil {
			return fmt.Errorf("save ingest cursor: %w", err)
		}
	}

	if ingested > 0 {
		slog.InfoContext(ctx, "Provider ingest completed", "transactions", ingested)
	}
	return nil
}
