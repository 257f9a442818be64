package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidPercentage = errors.New("share percentage must be between 0 and 100")
	ErrEmptyTransaction  = errors.New("empty transaction id")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidAmount     = errors.New("invalid amount")
)

type (
	// Transaction is a provider-synced bank transaction. Amounts are signed
	// minor units: spending is negative, income positive. Optional fields use
	// "" / 0 for absence. The core never mutates a Transaction.
	Transaction struct {
		ID               string
		AmountCents      int64
		CategoryID       string
		ParentCategoryID string
		CategoryName     string
		Description      string

		// Sync-time signals, consumed only by the resolver.
		TransferAccountID string
		RoundUpCents      int64
		TransactionType   string

		CreatedAt time.Time
	}

	// CategoryPair is the final category assignment for a transaction.
	CategoryPair struct {
		CategoryID       string
		ParentCategoryID string
	}

	Money struct {
		Cents int64
	}
)

// Validate checks the minimal shape required before a transaction enters the
// categorization or split paths.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTransaction
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (p CategoryPair) Validate() error {
	if strings.TrimSpace(p.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}
