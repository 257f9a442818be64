package core

import "testing"

func TestMergeCategoryOverrideWins(t *testing.T) {
	tx := Transaction{ID: "t1", AmountCents: -5000, Description: "Woolworths"}
	rules := map[string]CategoryPair{
		"Woolworths": {CategoryID: "groceries", ParentCategoryID: "home"},
	}
	overrides := map[string]CategoryPair{
		"t1": {CategoryID: "dining", ParentCategoryID: "good-life"},
	}

	got := MergeCategory(tx, overrides, rules, "groceries")
	if got.CategoryID != "dining" {
		t.Fatalf("expected override category, got %q", got.CategoryID)
	}
	if got.ParentCategoryID != "good-life" {
		t.Fatalf("expected override parent, got %q", got.ParentCategoryID)
	}
}

func TestMergeCategoryRuleExactMatch(t *testing.T) {
	rules := map[string]CategoryPair{
		"Woolworths": {CategoryID: "groceries", ParentCategoryID: "home"},
	}

	got := MergeCategory(Transaction{ID: "t2", Description: "Woolworths"}, nil, rules, "dining")
	if got.CategoryID != "groceries" {
		t.Fatalf("expected rule category, got %q", got.CategoryID)
	}

	// Exact string match only, no normalization.
	got = MergeCategory(Transaction{ID: "t3", Description: "woolworths"}, nil, rules, "dining")
	if got.CategoryID != "dining" {
		t.Fatalf("expected case-mismatched rule to be skipped, got %q", got.CategoryID)
	}
}

func TestMergeCategoryResolverFallback(t *testing.T) {
	tx := Transaction{ID: "t4", Description: "Opal top-up", ParentCategoryID: "transport-parent"}

	got := MergeCategory(tx, nil, nil, "transport")
	if got.CategoryID != "transport" {
		t.Fatalf("expected resolver output, got %q", got.CategoryID)
	}
	if got.ParentCategoryID != "transport-parent" {
		t.Fatalf("expected provider parent, got %q", got.ParentCategoryID)
	}
}

func TestMergeCategoryNeverEmpty(t *testing.T) {
	got := MergeCategory(Transaction{ID: "t5", Description: "???"}, nil, nil, "")
	if got.CategoryID != CategoryUncategorized {
		t.Fatalf("expected uncategorized sentinel, got %q", got.CategoryID)
	}
}

func TestMergeCategoryIdempotent(t *testing.T) {
	tx := Transaction{ID: "t6", Description: "Coles"}
	rules := map[string]CategoryPair{"Coles": {CategoryID: "groceries"}}
	first := MergeCategory(tx, nil, rules, "dining")
	for i := 0; i < 3; i++ {
		if got := MergeCategory(tx, nil, rules, "dining"); got != first {
			t.Fatalf("call %d returned %+v, first returned %+v", i, got, first)
		}
	}
}
