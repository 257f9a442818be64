package core

// BudgetView selects which budget a total is computed for.
type BudgetView string

const (
	ViewMine BudgetView = "mine"
	ViewOurs BudgetView = "ours"
)

// ShareSummary aggregates a transaction set into shared vs personal buckets.
// All values are positive magnitudes in minor units. PartnerShareOfShared is
// derived by subtraction so the two shares always sum exactly to TotalShared.
type ShareSummary struct {
	TotalShared          int64
	TotalPersonal        int64
	UserShareOfShared    int64
	PartnerShareOfShared int64
}

// CategoryAmount is a per-category magnitude for a budget view.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact budget summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	View       BudgetView
	Total      Money
	ByCategory []CategoryAmount
}

// CategorySpendingTotal sums the view-appropriate amounts of the transactions
// whose category name matches exactly. Amounts are signed (spend is
// negative), so the total is reported as a positive magnitude.
func CategorySpendingTotal(transactions []Transaction, categoryName string, config ShareConfig, view BudgetView) int64 {
	var total int64
	for _, tx := range transactions {
		if tx.CategoryName != categoryName {
			continue
		}
		switch view {
		case ViewOurs:
			total += abs(config.OurBudgetAmount(tx))
		default:
			total += abs(config.MyBudgetAmount(tx))
		}
	}
	return total
}

// Summarize classifies every transaction as shared or personal and produces
// the household split totals in a single pass.
func Summarize(transactions []Transaction, config ShareConfig) ShareSummary {
	var s ShareSummary
	for _, tx := range transactions {
		if config.IsTransactionShared(tx) {
			s.TotalShared += abs(tx.AmountCents)
			s.UserShareOfShared += abs(config.MyBudgetAmount(tx))
		} else {
			s.TotalPersonal += abs(tx.AmountCents)
		}
	}
	s.PartnerShareOfShared = s.TotalShared - s.UserShareOfShared
	return s
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
