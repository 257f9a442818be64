package memory

import (
	"context"
	"fmt"
	"testing"

	"centsplit/internal/provider"
)

func TestPagination(t *testing.T) {
	var txs []provider.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, provider.Transaction{
			ID:          fmt.Sprintf("tx-%d", i),
			Description: "x",
			AmountCents: -100,
		})
	}
	source := NewSource(txs)
	ctx := context.Background()

	page, err := source.ListTransactions(ctx, "", 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Transactions) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	var seen []string
	cursor := ""
	for {
		page, err := source.ListTransactions(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("page at cursor %q: %v", cursor, err)
		}
		for _, tx := range page.Transactions {
			seen = append(seen, tx.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 transactions across pages, got %d: %v", len(seen), seen)
	}
}

func TestAddBetweenRuns(t *testing.T) {
	source := NewSource(nil)
	ctx := context.Background()

	page, err := source.ListTransactions(ctx, "", 10)
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if len(page.Transactions) != 0 || page.NextCursor != "" {
		t.Fatalf("expected empty page, got %+v", page)
	}

	source.Add(provider.Transaction{ID: "tx-new", Description: "x", AmountCents: -100})
	page, err = source.ListTransactions(ctx, "", 10)
	if err != nil {
		t.Fatalf("list after add: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].ID != "tx-new" {
		t.Fatalf("expected tx-new, got %+v", page.Transactions)
	}
}

func TestBadCursor(t *testing.T) {
	source := NewSource(nil)
	if _, err := source.ListTransactions(context.Background(), "not-a-number", 10); err == nil {
		t.Fatal("expected error for malformed cursor")
	}
}
