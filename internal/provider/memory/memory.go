// Package memory provides an in-memory transaction source for tests and
// local development without provider credentials.
package memory

import (
	"context"
	"strconv"
	"sync"

	"centsplit/internal/provider"
)

type Source struct {
	mu           sync.Mutex
	transactions []provider.Transaction
}

func NewSource(transactions []provider.Transaction) *Source {
	return &Source{transactions: transactions}
}

// Add appends transactions to the source, simulating new provider data
// arriving between ingest runs.
func (s *Source) Add(transactions ...provider.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, transactions...)
}

func (s *Source) ListTransactions(_ context.Context, cursor string, pageSize int) (*provider.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, err
		}
		offset = parsed
	}
	if offset > len(s.transactions) {
		offset = len(s.transactions)
	}

	end := offset + pageSize
	if end > len(s.transactions) {
		end = len(s.transactions)
	}

	page := &provider.Page{
		Transactions: append([]provider.Transaction(nil), s.transactions[offset:end]...),
	}
	if end < len(s.transactions) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}
