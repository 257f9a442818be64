package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"centsplit/internal/amqp"
	"centsplit/internal/core"
	"centsplit/internal/metrics"
	"centsplit/internal/provider"
	"centsplit/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// Storage is the source of truth; the AMQP message only nudges the worker to
// recompute a category, so publish failures never fail the request.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// IngestTransaction saves a provider transaction and requests categorization.
func (s *TransactionService) IngestTransaction(ctx context.Context, pt provider.Transaction) error {
	tx := core.Transaction{
		ID:                pt.ID,
		Description:       pt.Description,
		AmountCents:       pt.AmountCents,
		CategoryID:        pt.CategoryID,
		ParentCategoryID:  pt.ParentCategoryID,
		TransferAccountID: pt.TransferAccountID,
		RoundUpCents:      pt.RoundUpCents,
		TransactionType:   pt.TransactionType,
		CreatedAt:         pt.CreatedAt,
	}

	if err := s.storage.UpsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	metrics.TransactionsIngested.Inc()

	s.publishSync(ctx, tx.ID, 1)
	return nil
}

// SetOverride records a manual category correction and schedules the
// transaction for re-categorization.
func (s *TransactionService) SetOverride(ctx context.Context, transactionID string, pair core.CategoryPair) error {
	if _, err := s.storage.GetTransaction(ctx, transactionID); err != nil {
		return err
	}
	if err := s.storage.UpsertOverride(ctx, transactionID, pair); err != nil {
		return err
	}
	if err := s.storage.ResetCategorized(ctx, transactionID); err != nil {
		return err
	}
	metrics.OverridesApplied.Inc()

	s.publishSync(ctx, transactionID, 2)
	return nil
}

// DeleteOverride removes a correction so the resolver output applies again.
func (s *TransactionService) DeleteOverride(ctx context.Context, transactionID string) error {
	if err := s.storage.DeleteOverride(ctx, transactionID); err != nil {
		return err
	}
	if err := s.storage.ResetCategorized(ctx, transactionID); err != nil {
		return err
	}
	s.publishSync(ctx, transactionID, 2)
	return nil
}

// CreateRule adds a standing description-to-category rule and returns its ID.
// Transactions already carrying the description are queued for
// re-categorization so the rule reaches past activity too.
func (s *TransactionService) CreateRule(ctx context.Context, description string, pair core.CategoryPair) (string, error) {
	id := uuid.NewString()
	if err := s.storage.CreateMerchantRule(ctx, id, description, pair); err != nil {
		return "", err
	}

	affected, err := s.storage.ResetCategorizedByDescription(ctx, description)
	if err != nil {
		return "", err
	}
	if affected > 0 {
		slog.InfoContext(ctx, "Queued matching transactions for re-categorization",
			"description", description,
			"count", affected)
	}
	return id, nil
}

func (s *TransactionService) DeleteRule(ctx context.Context, id string) error {
	return s.storage.DeleteMerchantRule(ctx, id)
}

// SetCategoryShare stores a category-level sharing rule.
func (s *TransactionService) SetCategoryShare(ctx context.Context, categoryName string, shared bool, percentage int64) error {
	rule, err := core.NewShareRule(shared, percentage)
	if err != nil {
		return err
	}
	return s.storage.UpsertCategoryShare(ctx, categoryName, rule)
}

// SetTransactionShare stores a per-transaction sharing override.
func (s *TransactionService) SetTransactionShare(ctx context.Context, transactionID string, shared bool, percentage int64) error {
	rule, err := core.NewShareRule(shared, percentage)
	if err != nil {
		return err
	}
	if _, err := s.storage.GetTransaction(ctx, transactionID); err != nil {
		return err
	}
	return s.storage.UpsertTransactionShare(ctx, transactionID, rule)
}

func (s *TransactionService) publishSync(ctx context.Context, transactionID string, version int64) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message",
			"transaction_id", transactionID)
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, transactionID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", transactionID, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
