package core

// MergeCategory combines the layered category signals for one transaction
// into a final assignment. Strict priority, first present value wins:
//
//  1. per-transaction override
//  2. merchant rule matching the exact description
//  3. the resolver's output, with the provider's parent category
//
// Nil maps are treated as empty. When even the resolver found nothing the
// result carries the uncategorized sentinel, never an empty category.
func MergeCategory(tx Transaction, overrides map[string]CategoryPair, rules map[string]CategoryPair, resolved string) CategoryPair {
	if p, ok := overrides[tx.ID]; ok {
		return p
	}
	if p, ok := rules[tx.Description]; ok {
		return p
	}
	if resolved == "" {
		resolved = CategoryUncategorized
	}
	return CategoryPair{
		CategoryID:       resolved,
		ParentCategoryID: tx.ParentCategoryID,
	}
}
