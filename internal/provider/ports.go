// Package provider defines the inbound transaction source port and its
// implementations. A source hands back raw transactions as the bank
// reports them; categorization happens downstream.
package provider

import (
	"context"
	"time"
)

// Transaction is a bank transaction as reported by the provider, before
// any local categorization or sharing rules apply.
type Transaction struct {
	ID                string
	Description       string
	AmountCents       int64
	CategoryID        string
	ParentCategoryID  string
	TransferAccountID string
	RoundUpCents      int64
	TransactionType   string
	CreatedAt         time.Time
}

// Page is one page of provider transactions. NextCursor is empty when
// there are no further pages.
type Page struct {
	Transactions []Transaction
	NextCursor   string
}

// TransactionSource lists transactions from an external provider.
// Cursor is an opaque pagination token; pass "" for the first page.
type TransactionSource interface {
	ListTransactions(ctx context.Context, cursor string, pageSize int) (*Page, error)
}
