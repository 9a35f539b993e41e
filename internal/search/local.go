package search

import (
	"sort"
	"strings"
)

const (
	wholeKeywordScore = 10
	prefixScore       = 2
	prefixLen         = 2
)

// keywords tokenizes a query case-insensitively on whitespace.
func keywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// scoreName is the deterministic local relevance score: 10 points per whole
// keyword found in the name, or 2 points when only the keyword's first two
// characters are found.
func scoreName(name string, keywords []string) int {
	lower := strings.ToLower(name)
	score := 0
	for _, kw := range keywords {
		switch {
		case strings.Contains(lower, kw):
			score += wholeKeywordScore
		case len(kw) >= prefixLen && strings.Contains(lower, kw[:prefixLen]):
			score += prefixScore
		}
	}
	return score
}

// rankLocal scores the candidate items against query and returns those with
// a positive score, best first, capped at max. Pure: identical inputs yield
// identical ordering and scores (ties keep list order).
func rankLocal(query string, items []listItem, max int) []scoredItem {
	kws := keywords(query)
	var matched []scoredItem
	for _, item := range items {
		if score := scoreName(item.name, kws); score > 0 {
			matched = append(matched, scoredItem{item: item, score: score})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})
	if len(matched) > max {
		matched = matched[:max]
	}
	return matched
}

type scoredItem struct {
	item  listItem
	score int
}
