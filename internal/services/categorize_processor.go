package services

import (
	"context"
	"fmt"
	"log/slog"

	"centsplit/internal/core"
	"centsplit/internal/metrics"
	"centsplit/internal/storage"
)

// CategorizeProcessor runs the categorization pass: resolve raw signals,
// merge in overrides and rules, persist the result. Override and rule maps
// are loaded once per batch so a pass over N transactions costs two reads,
// not 2N.
type CategorizeProcessor struct {
	storage *storage.SQLiteRepository
}

func NewCategorizeProcessor(storage *storage.SQLiteRepository) *CategorizeProcessor {
	return &CategorizeProcessor{storage: storage}
}

// CategorizeTransaction recomputes and persists the category of a single
// transaction. Safe to run repeatedly; with unchanged inputs the result is
// identical.
func (p *CategorizeProcessor) CategorizeTransaction(ctx context.Context, transactionID string) error {
	tx, err := p.storage.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	overrides, err := p.storage.LoadOverrides(ctx)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	rules, err := p.storage.LoadMerchantRules(ctx)
	if err != nil {
		return fmt.Errorf("load merchant rules: %w", err)
	}

	return p.categorize(ctx, tx, overrides, rules)
}

// CategorizePending categorizes up to limit transactions that have no
// category yet. Returns the number processed.
func (p *CategorizeProcessor) CategorizePending(ctx context.Context, limit int) (int, error) {
	pending, err := p.storage.GetPendingTransactions(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	overrides, err := p.storage.LoadOverrides(ctx)
	if err != nil {
		return 0, fmt.Errorf("load overrides: %w", err)
	}
	rules, err := p.storage.LoadMerchantRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("load merchant rules: %w", err)
	}

	processed := 0
	for _, tx := range pending {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		if err := p.categorize(ctx, tx, overrides, rules); err != nil {
			slog.ErrorContext(ctx, "Failed to categorize transaction",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "Categorization pass complete",
		"pending", len(pending),
		"processed", processed)
	return processed, nil
}

func (p *CategorizeProcessor) categorize(ctx context.Context, tx core.Transaction, overrides, rules map[string]core.CategoryPair) error {
	resolved := core.ResolveCategory(core.CategorySignals{
		ProviderCategoryID: tx.CategoryID,
		TransferAccountID:  tx.TransferAccountID,
		RoundUpCents:       tx.RoundUpCents,
		TransactionType:    tx.TransactionType,
		Description:        tx.Description,
		AmountCents:        tx.AmountCents,
	})

	pair := core.MergeCategory(tx, overrides, rules, resolved)
	name := core.CategoryDisplayName(pair.CategoryID)

	if err := p.storage.SetTransactionCategory(ctx, tx.ID, pair, name); err != nil {
		metrics.CategorizeErrors.Inc()
		if markErr := p.storage.MarkCategorizeError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark categorize error",
				"transaction_id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("persist category: %w", err)
	}

	metrics.TransactionsCategorized.WithLabelValues(pair.CategoryID).Inc()
	return nil
}
