package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"centsplit/internal/core"
	"centsplit/internal/provider"
	"centsplit/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ingest(t *testing.T, svc *TransactionService, pt provider.Transaction) {
	t.Helper()
	if pt.CreatedAt.IsZero() {
		pt.CreatedAt = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	}
	if err := svc.IngestTransaction(context.Background(), pt); err != nil {
		t.Fatalf("ingest %s: %v", pt.ID, err)
	}
}

func TestCategorizeTransactionKeyword(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	processor := NewCategorizeProcessor(repo)
	ctx := context.Background()

	ingest(t, svc, provider.Transaction{
		ID:          "t1",
		Description: "WOOLWORTHS 1234 SYDNEY",
		AmountCents: -5499,
	})

	if err := processor.CategorizeTransaction(ctx, "t1"); err != nil {
		t.Fatalf("categorize: %v", err)
	}

	tx, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryID != "groceries" {
		t.Errorf("CategoryID = %q, want groceries", tx.CategoryID)
	}
	if tx.CategoryName != "Groceries" {
		t.Errorf("CategoryName = %q, want Groceries", tx.CategoryName)
	}
}

func TestCategorizeTransactionOverrideWins(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	processor := NewCategorizeProcessor(repo)
	ctx := context.Background()

	ingest(t, svc, provider.Transaction{
		ID:          "t1",
		Description: "Woolworths",
		AmountCents: -5000,
	})

	if _, err := svc.CreateRule(ctx, "Woolworths", core.CategoryPair{CategoryID: "groceries"}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if err := svc.SetOverride(ctx, "t1", core.CategoryPair{CategoryID: "dining", ParentCategoryID: "good-life"}); err != nil {
		t.Fatalf("set override: %v", err)
	}

	if err := processor.CategorizeTransaction(ctx, "t1"); err != nil {
		t.Fatalf("categorize: %v", err)
	}

	tx, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryID != "dining" || tx.ParentCategoryID != "good-life" {
		t.Errorf("override should win over rule, got %+v", tx)
	}

	// Removing the override falls back to the merchant rule.
	if err := svc.DeleteOverride(ctx, "t1"); err != nil {
		t.Fatalf("delete override: %v", err)
	}
	if err := processor.CategorizeTransaction(ctx, "t1"); err != nil {
		t.Fatalf("recategorize: %v", err)
	}
	tx, err = repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryID != "groceries" {
		t.Errorf("expected rule category after override removed, got %q", tx.CategoryID)
	}
}

func TestCategorizePending(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	processor := NewCategorizeProcessor(repo)
	ctx := context.Background()

	ingest(t, svc, provider.Transaction{ID: "t1", Description: "Transfer to Savings", AmountCents: -10000, TransferAccountID: "acc-2"})
	ingest(t, svc, provider.Transaction{ID: "t2", Description: "Round Up", AmountCents: -55, RoundUpCents: -55})
	ingest(t, svc, provider.Transaction{ID: "t3", Description: "Mystery Merchant", AmountCents: -100})

	processed, err := processor.CategorizePending(ctx, 10)
	if err != nil {
		t.Fatalf("categorize pending: %v", err)
	}
	if processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}

	wantCategories := map[string]string{
		"t1": core.CategoryTransfers,
		"t2": core.CategoryRoundUps,
		"t3": core.CategoryUncategorized,
	}
	for id, want := range wantCategories {
		tx, err := repo.GetTransaction(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if tx.CategoryID != want {
			t.Errorf("%s: CategoryID = %q, want %q", id, tx.CategoryID, want)
		}
	}

	// Everything categorized, the next pass is a no-op.
	processed, err = processor.CategorizePending(ctx, 10)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if processed != 0 {
		t.Errorf("second pass processed = %d, want 0", processed)
	}
}

func TestCreateRuleRecategorizesPastTransactions(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	processor := NewCategorizeProcessor(repo)
	ctx := context.Background()

	ingest(t, svc, provider.Transaction{ID: "t1", Description: "Woolworths", AmountCents: -5000})
	ingest(t, svc, provider.Transaction{ID: "t2", Description: "Woolworths", AmountCents: -2500})
	ingest(t, svc, provider.Transaction{ID: "t3", Description: "Netflix.com", AmountCents: -1599})

	if _, err := processor.CategorizePending(ctx, 10); err != nil {
		t.Fatalf("initial pass: %v", err)
	}
	tx, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryID != "groceries" {
		t.Fatalf("CategoryID = %q, want groceries before rule", tx.CategoryID)
	}

	// A rule created later must reach transactions categorized before it
	// existed, not only future ones.
	if _, err := svc.CreateRule(ctx, "Woolworths", core.CategoryPair{CategoryID: "dining", ParentCategoryID: "good-life"}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	processed, err := processor.CategorizePending(ctx, 10)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}

	for _, id := range []string{"t1", "t2"} {
		tx, err := repo.GetTransaction(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if tx.CategoryID != "dining" || tx.ParentCategoryID != "good-life" {
			t.Errorf("%s: CategoryID = %q, want dining", id, tx.CategoryID)
		}
	}

	tx, err = repo.GetTransaction(ctx, "t3")
	if err != nil {
		t.Fatalf("get t3: %v", err)
	}
	if tx.CategoryID != "tv-and-music" {
		t.Errorf("unrelated transaction recategorized: CategoryID = %q", tx.CategoryID)
	}
}

func TestCategorizeTransactionIdempotent(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	processor := NewCategorizeProcessor(repo)
	ctx := context.Background()

	ingest(t, svc, provider.Transaction{ID: "t1", Description: "Netflix.com", AmountCents: -1599})

	for i := 0; i < 3; i++ {
		if err := processor.CategorizeTransaction(ctx, "t1"); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	tx, err := repo.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryID != "tv-and-music" {
		t.Errorf("CategoryID = %q, want tv-and-music", tx.CategoryID)
	}
}
