// Package core holds the pure categorization and budget-split logic. All
// functions here are deterministic, side-effect free, and safe for concurrent
// use: callers load overrides, rules and share configuration into memory first
// and the core only reads them.
package core

import "strings"

// Fixed category identifiers the resolver can assign directly.
const (
	CategoryTransfers     = "internal-transfers"
	CategoryRoundUps      = "round-up-savings"
	CategoryInterest      = "interest"
	CategoryBankFees      = "bank-fees"
	CategoryUncategorized = "uncategorized"
)

// CategorySignals are the per-transaction inputs to ResolveCategory.
// Absent signals are "" (or 0 for RoundUpCents).
type CategorySignals struct {
	ProviderCategoryID string
	TransferAccountID  string
	RoundUpCents       int64
	TransactionType    string
	Description        string
	AmountCents        int64
}

// typeCategories maps known non-purchase transaction types to fixed
// categories. Unknown types fall through to the keyword heuristic.
var typeCategories = map[string]string{
	"INTEREST":      CategoryInterest,
	"FEE":           CategoryBankFees,
	"FEES":          CategoryBankFees,
	"ACCOUNT_FEE":   CategoryBankFees,
	"INTERNATIONAL": CategoryBankFees,
}

// keywordRule associates a category with description substrings. Rules are
// evaluated in slice order so matching stays deterministic.
type keywordRule struct {
	CategoryID string
	Keywords   []string
}

var keywordRules = []keywordRule{
	{CategoryID: "groceries", Keywords: []string{"woolworths", "coles", "aldi", "iga ", "supermarket", "grocer"}},
	{CategoryID: "restaurants-and-cafes", Keywords: []string{"restaurant", "cafe", "mcdonald", "kfc", "uber eats", "deliveroo", "menulog"}},
	{CategoryID: "transport", Keywords: []string{"uber", "opal", "myki", "translink", "taxi", "didi"}},
	{CategoryID: "fuel", Keywords: []string{"bp ", "shell", "caltex", "ampol", "7-eleven fuel"}},
	{CategoryID: "utilities", Keywords: []string{"origin energy", "agl", "energyaustralia", "sydney water", "telstra", "optus", "vodafone"}},
	{CategoryID: "tv-and-music", Keywords: []string{"netflix", "spotify", "stan", "disney", "youtube premium"}},
	{CategoryID: "health", Keywords: []string{"pharmacy", "chemist", "medicare", "dental"}},
	{CategoryID: "rent-and-mortgage", Keywords: []string{"rent", "mortgage"}},
}

// ResolveCategory picks the best-guess category for a transaction from its
// raw signals. Priority, first match wins:
//
//  1. transfer between own accounts
//  2. round-up savings sweep
//  3. known non-purchase transaction type
//  4. the provider's own classification
//  5. description keyword heuristic, else the uncategorized sentinel
//
// It is total: no combination of inputs produces an error.
func ResolveCategory(s CategorySignals) string {
	if s.TransferAccountID != "" {
		return CategoryTransfers
	}
	if s.RoundUpCents != 0 {
		return CategoryRoundUps
	}
	if c, ok := typeCategories[strings.ToUpper(strings.TrimSpace(s.TransactionType))]; ok {
		return c
	}
	if s.ProviderCategoryID != "" {
		return s.ProviderCategoryID
	}
	return matchKeywords(s.Description)
}

func matchKeywords(description string) string {
	text := strings.ToLower(description)
	if strings.TrimSpace(text) == "" {
		return CategoryUncategorized
	}
	for _, rule := range keywordRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.CategoryID
			}
		}
	}
	return CategoryUncategorized
}
