// Package filter applies the include/exclude keyword policy that
// decides which collected items are eligible for delivery.
package filter

import (
	"strings"

	"newswatch/internal/collect"
)

// Apply returns the items whose title or description contains at least
// one include keyword (any keyword matches; an empty include list
// passes everything) and none of the exclude keywords. Matching is a
// case-insensitive substring test over title + description. The input
// order is preserved and items are never modified.
func Apply(items []collect.Item, includeKeywords, excludeKeywords []string) []collect.Item {
	if len(items) == 0 {
		return nil
	}

	include := lowerAll(includeKeywords)
	exclude := lowerAll(excludeKeywords)

	filtered := make([]collect.Item, 0, len(items))
	for _, item := range items {
		text := strings.ToLower(item.Title) + " " + strings.ToLower(item.Description)

		if len(include) > 0 && !containsAny(text, include) {
			continue
		}
		if containsAny(text, exclude) {
			continue
		}

		filtered = append(filtered, item)
	}

	return filtered
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
