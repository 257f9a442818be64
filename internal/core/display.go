package core

import "strings"

// CategoryDisplayName turns a category slug into a human readable name,
// e.g. "restaurants-and-cafes" becomes "Restaurants And Cafes".
func CategoryDisplayName(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
