package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Highlight returns the byte offsets in name that match query, for rendering.
// A contiguous case-insensitive substring is preferred; otherwise the fuzzy
// matcher's character positions are used.
func Highlight(query, name string) []int {
	if query == "" {
		return nil
	}
	lowerName, lowerQuery := strings.ToLower(name), strings.ToLower(query)
	if len(lowerName) == len(name) && len(lowerQuery) == len(query) {
		if i := strings.Index(lowerName, lowerQuery); i >= 0 {
			idx := make([]int, 0, len(query))
			for j := range query {
				idx = append(idx, i+j)
			}
			return idx
		}
	}
	matches := fuzzy.Find(query, []string{name})
	if len(matches) == 0 {
		return nil
	}
	return matches[0].MatchedIndexes
}
