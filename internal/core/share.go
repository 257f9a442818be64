package core

import "github.com/shopspring/decimal"

type (
	// ShareRule says whether spending is shared with the household and, when
	// shared, what percentage the signed-in user is responsible for.
	ShareRule struct {
		Shared     bool
		Percentage int64 // 0-100, the user's slice of a shared amount
	}

	// ShareConfig is a per-request snapshot of the household sharing setup:
	// category-level rules keyed by category name and per-transaction
	// overrides keyed by transaction id. Build it through NewShareConfig so
	// percentages are validated once at the boundary; the split functions
	// assume valid input and do not re-check.
	ShareConfig struct {
		Categories   map[string]ShareRule
		Transactions map[string]ShareRule
	}
)

// NewShareRule validates the percentage range. Out-of-range values are
// rejected rather than clamped.
func NewShareRule(shared bool, percentage int64) (ShareRule, error) {
	if percentage < 0 || percentage > 100 {
		return ShareRule{}, ErrInvalidPercentage
	}
	return ShareRule{Shared: shared, Percentage: percentage}, nil
}

// NewShareConfig validates every rule in both maps. Nil maps are allowed and
// behave as empty.
func NewShareConfig(categories map[string]ShareRule, transactions map[string]ShareRule) (ShareConfig, error) {
	for _, r := range categories {
		if r.Percentage < 0 || r.Percentage > 100 {
			return ShareConfig{}, ErrInvalidPercentage
		}
	}
	for _, r := range transactions {
		if r.Percentage < 0 || r.Percentage > 100 {
			return ShareConfig{}, ErrInvalidPercentage
		}
	}
	return ShareConfig{Categories: categories, Transactions: transactions}, nil
}

// resolve returns the effective share rule for a transaction. A transaction
// override beats the category rule; with neither the transaction is personal.
func (c ShareConfig) resolve(tx Transaction) (ShareRule, bool) {
	if r, ok := c.Transactions[tx.ID]; ok {
		return r, true
	}
	if r, ok := c.Categories[tx.CategoryName]; ok {
		return r, true
	}
	return ShareRule{}, false
}

// IsTransactionShared reports whether the transaction counts toward the
// household ("Our Budget") view.
func (c ShareConfig) IsTransactionShared(tx Transaction) bool {
	r, ok := c.resolve(tx)
	return ok && r.Shared
}

// TransactionSharePercentage returns the effective percentage charged to the
// signed-in user. Personal transactions are 100 by definition.
func (c ShareConfig) TransactionSharePercentage(tx Transaction) int64 {
	if r, ok := c.resolve(tx); ok && r.Shared {
		return r.Percentage
	}
	return 100
}

// MyBudgetAmount returns the minor-unit amount chargeable to the signed-in
// user: the full amount for personal transactions, the user's percentage
// slice for shared ones. Rounding happens once per transaction; totals over
// many transactions may drift from a true proportional split by a few minor
// units, which is accepted rather than corrected with a running remainder.
func (c ShareConfig) MyBudgetAmount(tx Transaction) int64 {
	r, ok := c.resolve(tx)
	if !ok || !r.Shared {
		return tx.AmountCents
	}
	return splitAmount(tx.AmountCents, r.Percentage)
}

// OurBudgetAmount returns the minor-unit amount counted toward the shared
// household view: the full amount for shared transactions, zero otherwise.
func (c ShareConfig) OurBudgetAmount(tx Transaction) int64 {
	if c.IsTransactionShared(tx) {
		return tx.AmountCents
	}
	return 0
}

// splitAmount takes percentage of cents with a single half-up rounding step.
func splitAmount(cents, percentage int64) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(percentage)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// IncomeProportionalSplit returns the user's percentage share when splitting
// by income. Two zero incomes fall back to an equal 50/50 split instead of
// dividing by zero.
func IncomeProportionalSplit(userIncomeCents, partnerIncomeCents int64) int64 {
	total := userIncomeCents + partnerIncomeCents
	if total == 0 {
		return 50
	}
	return decimal.NewFromInt(userIncomeCents).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
