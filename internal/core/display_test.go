package core

import "testing"

func TestCategoryDisplayName(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"groceries", "Groceries"},
		{"restaurants-and-cafes", "Restaurants And Cafes"},
		{"internal-transfers", "Internal Transfers"},
		{"uncategorized", "Uncategorized"},
		{"", ""},
		{"  ", ""},
	}

	for i, tt := range tests {
		if got := CategoryDisplayName(tt.slug); got != tt.want {
			t.Errorf("case %d: CategoryDisplayName(%q) = %q, want %q", i, tt.slug, got, tt.want)
		}
	}
}
