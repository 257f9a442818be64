package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q, want Bearer test-token", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "50" {
			t.Errorf("page_size = %q, want 50", got)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{
				"transactions": [
					{
						"id": "tx-1",
						"description": "Woolworths Metro",
						"amount": "-54.99",
						"category": {"id": "groceries", "parent_id": "home"},
						"transaction_type": "",
						"created_at": "2026-03-01T10:00:00Z"
					},
					{
						"id": "tx-2",
						"description": "Round Up",
						"amount": "-0.55",
						"category": {"id": "", "parent_id": ""},
						"round_up_amount": "-0.55",
						"created_at": "2026-03-01T10:00:05Z"
					}
				],
				"next_cursor": "page-2"
			}`))
			return
		}
		w.Write([]byte(`{"transactions": [], "next_cursor": ""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	page, err := client.ListTransactions(context.Background(), "", 50)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(page.Transactions))
	}
	if page.NextCursor != "page-2" {
		t.Errorf("NextCursor = %q, want page-2", page.NextCursor)
	}

	first := page.Transactions[0]
	if first.ID != "tx-1" || first.AmountCents != -5499 {
		t.Errorf("unexpected first transaction: %+v", first)
	}
	if first.CategoryID != "groceries" || first.ParentCategoryID != "home" {
		t.Errorf("unexpected category: %+v", first)
	}

	second := page.Transactions[1]
	if second.RoundUpCents != -55 {
		t.Errorf("RoundUpCents = %d, want -55", second.RoundUpCents)
	}

	page, err = client.ListTransactions(context.Background(), "page-2", 50)
	if err != nil {
		t.Fatalf("ListTransactions page 2: %v", err)
	}
	if len(page.Transactions) != 0 || page.NextCursor != "" {
		t.Errorf("expected empty final page, got %+v", page)
	}
}

func TestListTransactionsSkipsMalformedAmounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"transactions": [
				{"id": "bad", "description": "x", "amount": "abc", "created_at": "2026-03-01T10:00:00Z"},
				{"id": "good", "description": "y", "amount": "-1.00", "created_at": "2026-03-01T10:00:00Z"}
			],
			"next_cursor": ""
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	page, err := client.ListTransactions(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].ID != "good" {
		t.Fatalf("expected only the well-formed transaction, got %+v", page.Transactions)
	}
}

func TestListTransactionsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	if _, err := client.ListTransactions(context.Background(), "", 10); err == nil {
		t.Fatal("expected error on 502 response")
	}
}
