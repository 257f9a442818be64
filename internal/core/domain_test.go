package core

import (
	"strings"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "t1", AmountCents: -100, Description: "Coles"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{ID: "", Description: "Coles"},
		{ID: "  ", Description: "Coles"},
		{ID: "t1", Description: ""},
		{ID: "t1", Description: strings.Repeat("x", 501)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryPairValidate(t *testing.T) {
	if err := (CategoryPair{CategoryID: "groceries"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (CategoryPair{}).Validate(); err == nil {
		t.Fatalf("expected error for empty category")
	}
}
