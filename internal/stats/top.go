package stats

import (
	"sort"
)

// Occurrences returns how often the token took part in an alignment.
func (t TokenStat) Occurrences() int {
	return t.All() + t.Insert
}

// TopTokensByFrequency returns the top N tokens by total occurrences.
func TopTokensByFrequency(tokens []TokenStat, n int) []string {
	if n <= 0 || len(tokens) == 0 {
		return nil
	}
	type item struct {
		tok   string
		total int
	}
	items := make([]item, 0, len(tokens))
	for _, ts := range tokens {
		items = append(items, item{
			tok:   ts.Token,
			total: ts.Occurrences(),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].tok < items[j].tok
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].tok)
	}
	return out
}
